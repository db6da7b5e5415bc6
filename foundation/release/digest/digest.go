// Package digest writes and verifies the md5 and sha256 manifests that
// accompany a release.
package digest

import (
	"bufio"
	"crypto/md5"
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Manifest file names, one per digest family.
const (
	MD5Manifest    = "md5sums.txt"
	SHA256Manifest = "sha256sums.txt"
)

// Entry is one line of a digest manifest.
type Entry struct {
	Digest string
	Name   string
}

// Generate writes one manifest per digest family covering every file in the
// release directory, then moves the manifests inside it. The manifests are
// created in the parent directory first, so neither ever contains a line
// for itself.
func Generate(releaseDir string) error {
	files, err := listFiles(releaseDir)
	if err != nil {
		return err
	}

	parent := filepath.Dir(releaseDir)

	manifests := []struct {
		name string
		hash func() hash.Hash
	}{
		{MD5Manifest, md5.New},
		{SHA256Manifest, sha256.New},
	}

	for _, m := range manifests {
		staged := filepath.Join(parent, m.name)
		if err := writeManifest(staged, releaseDir, files, m.hash); err != nil {
			return fmt.Errorf("writing %s: %w", m.name, err)
		}
		if err := os.Rename(staged, filepath.Join(releaseDir, m.name)); err != nil {
			return fmt.Errorf("moving %s: %w", m.name, err)
		}
	}

	return nil
}

// Verify recomputes the digests for every entry in both manifests and
// reports the first mismatch.
func Verify(releaseDir string) error {
	manifests := []struct {
		name string
		hash func() hash.Hash
	}{
		{MD5Manifest, md5.New},
		{SHA256Manifest, sha256.New},
	}

	for _, m := range manifests {
		entries, err := Read(filepath.Join(releaseDir, m.name))
		if err != nil {
			return err
		}

		for _, entry := range entries {
			sum, err := hashFile(filepath.Join(releaseDir, entry.Name), m.hash())
			if err != nil {
				return err
			}
			if sum != entry.Digest {
				return fmt.Errorf("%s: digest mismatch for %s", m.name, entry.Name)
			}
		}
	}

	return nil
}

// Read parses the specified manifest file into entries.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []Entry

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("malformed manifest line %q", line)
		}

		entries = append(entries, Entry{Digest: fields[0], Name: fields[1]})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// listFiles returns the sorted names of the regular files in the directory.
func listFiles(dir string) ([]string, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, dirent := range dirents {
		if dirent.IsDir() {
			continue
		}
		files = append(files, dirent.Name())
	}
	sort.Strings(files)

	return files, nil
}

// writeManifest appends one digest line per file into the staged manifest.
func writeManifest(staged string, releaseDir string, files []string, newHash func() hash.Hash) error {
	f, err := os.OpenFile(staged, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, file := range files {
		sum, err := hashFile(filepath.Join(releaseDir, file), newHash())
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(f, "%s  %s\n", sum, file); err != nil {
			return err
		}
	}

	return f.Close()
}

// hashFile computes the hex digest of the file with the provided hash.
func hashFile(path string, h hash.Hash) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
