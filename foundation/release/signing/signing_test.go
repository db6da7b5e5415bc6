package signing_test

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mathchain/releaser/foundation/release/signing"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestSignVerify(t *testing.T) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("\t%s\tShould generate a key: %v", failed, err)
	}

	manifestPath := filepath.Join(t.TempDir(), "sha256sums.txt")
	doc := "deadbeef  mathchain-v1.2.3-x86_64-linux-gnu-glibc-2.17-llvm-3.8.tar.bz2\n"
	if err := os.WriteFile(manifestPath, []byte(doc), 0644); err != nil {
		t.Fatalf("\t%s\tShould write the manifest: %v", failed, err)
	}

	sigPath, err := signing.Sign(manifestPath, privateKey)
	if err != nil {
		t.Fatalf("\t%s\tShould sign the manifest: %v", failed, err)
	}
	if sigPath != manifestPath+".sig" {
		t.Fatalf("\t%s\tShould write the signature alongside the manifest: %s", failed, sigPath)
	}
	t.Logf("\t%s\tShould sign the manifest.", success)

	addr, err := signing.Verify(manifestPath, sigPath)
	if err != nil {
		t.Fatalf("\t%s\tShould verify the signature: %v", failed, err)
	}
	if addr != crypto.PubkeyToAddress(privateKey.PublicKey) {
		t.Fatalf("\t%s\tShould recover the signing address.", failed)
	}
	t.Logf("\t%s\tShould recover the signing address.", success)

	// Tampering with the manifest must not recover the signer's address.
	if err := os.WriteFile(manifestPath, []byte(doc+"cafef00d  extra-file\n"), 0644); err != nil {
		t.Fatalf("\t%s\tShould rewrite the manifest: %v", failed, err)
	}

	addr2, err := signing.Verify(manifestPath, sigPath)
	if err == nil && addr2 == addr {
		t.Fatalf("\t%s\tShould not verify a tampered manifest.", failed)
	}
	t.Logf("\t%s\tShould not verify a tampered manifest.", success)
}

func TestVerifyForeignSignature(t *testing.T) {
	manifestPath := filepath.Join(t.TempDir(), "sha256sums.txt")
	if err := os.WriteFile(manifestPath, []byte("deadbeef  file\n"), 0644); err != nil {
		t.Fatalf("\t%s\tShould write the manifest: %v", failed, err)
	}

	// A signature with a plain ethereum recovery id is not a release
	// signature.
	sigPath := manifestPath + ".sig"
	sig := make([]byte, 65)
	sig[64] = 27
	if err := os.WriteFile(sigPath, []byte("0x"+hex.EncodeToString(sig)+"\n"), 0644); err != nil {
		t.Fatalf("\t%s\tShould write the signature: %v", failed, err)
	}

	if _, err := signing.Verify(manifestPath, sigPath); err == nil {
		t.Fatalf("\t%s\tShould reject a signature without the release marker.", failed)
	}
	t.Logf("\t%s\tShould reject a signature without the release marker.", success)
}
