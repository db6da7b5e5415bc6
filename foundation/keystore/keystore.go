// Package keystore reads a folder of .ecdsa key files and provides lookup
// and loading of the release signing keys by name.
package keystore

import (
	"crypto/ecdsa"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// KeyStore maintains a map of key names to key file locations.
type KeyStore struct {
	keys map[string]string
}

// New constructs a KeyStore with keys from the specified folder.
func New(root string) (*KeyStore, error) {
	ks := KeyStore{
		keys: make(map[string]string),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != ".ecdsa" {
			return nil
		}

		name := strings.TrimSuffix(path.Base(fileName), ".ecdsa")
		ks.keys[name] = fileName

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ks, nil
}

// Load reads the private key for the specified name from disk.
func (ks *KeyStore) Load(name string) (*ecdsa.PrivateKey, error) {
	fileName, exists := ks.keys[name]
	if !exists {
		return nil, fmt.Errorf("key %q does not exist", name)
	}

	privateKey, err := crypto.LoadECDSA(fileName)
	if err != nil {
		return nil, fmt.Errorf("loading key %q: %w", name, err)
	}

	return privateKey, nil
}

// Addresses returns a copy of the map of key names and the address each
// key signs for.
func (ks *KeyStore) Addresses() (map[string]string, error) {
	cpy := make(map[string]string, len(ks.keys))
	for name := range ks.keys {
		privateKey, err := ks.Load(name)
		if err != nil {
			return nil, err
		}
		cpy[name] = crypto.PubkeyToAddress(privateKey.PublicKey).String()
	}
	return cpy, nil
}
