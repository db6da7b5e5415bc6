// Package signing provides release provenance signatures over the digest
// manifests.
package signing

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// mathChainID is an arbitrary number added to the recovery id when signing
// release manifests. This will make it clear that the signature comes from
// a MathChain release. Ethereum and Bitcoin do this as well, but they use
// the value of 27.
const mathChainID = 37

// Sign signs the specified manifest with the private key and writes the
// signature alongside it as <manifest>.sig. It returns the path of the
// signature file.
func Sign(manifestPath string, privateKey *ecdsa.PrivateKey) (string, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return "", fmt.Errorf("reading manifest: %w", err)
	}

	sig, err := sign(data, privateKey)
	if err != nil {
		return "", err
	}

	sigPath := manifestPath + ".sig"
	if err := os.WriteFile(sigPath, []byte(hexutil.Encode(sig)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("writing signature: %w", err)
	}

	return sigPath, nil
}

// Verify checks the signature file against the manifest and returns the
// address of the key that produced it.
func Verify(manifestPath string, sigPath string) (common.Address, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return common.Address{}, fmt.Errorf("reading manifest: %w", err)
	}

	raw, err := os.ReadFile(sigPath)
	if err != nil {
		return common.Address{}, fmt.Errorf("reading signature: %w", err)
	}

	sig, err := hexutil.Decode(strings.TrimSpace(string(raw)))
	if err != nil {
		return common.Address{}, fmt.Errorf("decoding signature: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, errors.New("invalid signature length")
	}

	// Check the recovery id carries the release marker.
	recovery := sig[crypto.RecoveryIDOffset] - mathChainID
	if recovery != 0 && recovery != 1 {
		return common.Address{}, errors.New("invalid recovery id")
	}

	// Restore the plain recovery id for public key extraction.
	cpy := make([]byte, crypto.SignatureLength)
	copy(cpy, sig)
	cpy[crypto.RecoveryIDOffset] = recovery

	hash := stamp(data)

	publicKey, err := crypto.SigToPub(hash, cpy)
	if err != nil {
		return common.Address{}, err
	}

	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), hash, cpy[:crypto.RecoveryIDOffset]) {
		return common.Address{}, errors.New("invalid signature")
	}

	return crypto.PubkeyToAddress(*publicKey), nil
}

// sign produces the [R|S|V] signature over the manifest bytes.
func sign(data []byte, privateKey *ecdsa.PrivateKey) ([]byte, error) {

	// Prepare the data for signing.
	hash := stamp(data)

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(hash, privateKey)
	if err != nil {
		return nil, err
	}

	// Extract the public key from the hash and the signature.
	publicKey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return nil, err
	}

	// Check the public key extracted from the hash and signature.
	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), hash, rs) {
		return nil, errors.New("invalid signature")
	}

	// Mark the recovery id so the signature is recognizable as a
	// MathChain release signature.
	sig[crypto.RecoveryIDOffset] += mathChainID

	return sig, nil
}

// stamp hashes the manifest with a salt unique to mathchain releases so the
// signature cannot be replayed as any other kind of signed message.
func stamp(data []byte) []byte {
	salt := []byte(fmt.Sprintf("\x19MathChain Signed Release:\n%d", len(data)))
	return crypto.Keccak256(salt, data)
}
