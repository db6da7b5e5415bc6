// Package releasestore provides read access to a finished release directory
// for the artifact service.
package releasestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mathchain/releaser/foundation/release/digest"
)

// Artifact describes one file available in the release directory.
type Artifact struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Store serves the files of a release directory. The directory may not
// exist yet if no pipeline run has completed.
type Store struct {
	dir string
}

// New constructs a Store for the specified release directory.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the release directory being served.
func (s *Store) Dir() string {
	return s.dir
}

// List returns the artifacts currently present in the release directory.
// A directory that doesn't exist yet lists as empty.
func (s *Store) List() ([]Artifact, error) {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Artifact{}, nil
		}
		return nil, fmt.Errorf("reading release directory: %w", err)
	}

	artifacts := []Artifact{}
	for _, dirent := range dirents {
		if dirent.IsDir() {
			continue
		}

		info, err := dirent.Info()
		if err != nil {
			return nil, err
		}

		artifacts = append(artifacts, Artifact{
			Name:    dirent.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime().UTC(),
		})
	}

	return artifacts, nil
}

// Open opens the named artifact for reading. Names carrying path
// separators are rejected so a caller can't escape the release directory.
func (s *Store) Open(name string) (*os.File, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("invalid artifact name %q", name)
	}

	return os.Open(filepath.Join(s.dir, name))
}

// Manifest reads the digest manifest for the specified algorithm.
func (s *Store) Manifest(algo string) ([]digest.Entry, error) {
	var name string
	switch algo {
	case "md5":
		name = digest.MD5Manifest
	case "sha256":
		name = digest.SHA256Manifest
	default:
		return nil, fmt.Errorf("unknown digest algorithm %q", algo)
	}

	return digest.Read(filepath.Join(s.dir, name))
}
