// Package packer stages the build artifacts and produces the versioned
// release archive.
package packer

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dsnet/compress/bzip2"
	"github.com/mathchain/releaser/foundation/release/builder"
	"github.com/mathchain/releaser/foundation/release/target"
)

// EventHandler defines a function that is called when events occur during
// packing.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to pack a release.
type Config struct {
	Product        string        // Name the executable ships under.
	ReleaseID      string        // Caller supplied version tag.
	Target         target.Triple // Triple the artifacts were built for.
	LibcVersion    string        // Libc pin baked into the archive name.
	ToolchainLabel string        // Toolchain pin baked into the archive name.
	WorkDir        string        // Directory owning the wasm/ and release/ staging.

	// IncludeRuntime adds the wasm runtime blobs to the archive. The old
	// release script never did, shipping them as loose files next to the
	// tarball, so the default keeps that behavior.
	IncludeRuntime bool

	EvHandler EventHandler
}

// Packer assembles the release staging directory and writes the archive.
type Packer struct {
	product        string
	releaseID      string
	target         target.Triple
	libcVersion    string
	toolchainLabel string
	workDir        string
	includeRuntime bool
	evHandler      EventHandler
}

// New constructs a Packer for use.
func New(cfg Config) (*Packer, error) {
	if cfg.Product == "" {
		return nil, fmt.Errorf("product name is required")
	}
	if cfg.ReleaseID == "" {
		return nil, fmt.Errorf("release id is required")
	}
	if cfg.WorkDir == "" {
		return nil, fmt.Errorf("work directory is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	p := Packer{
		product:        cfg.Product,
		releaseID:      cfg.ReleaseID,
		target:         cfg.Target,
		libcVersion:    cfg.LibcVersion,
		toolchainLabel: cfg.ToolchainLabel,
		workDir:        cfg.WorkDir,
		includeRuntime: cfg.IncludeRuntime,
		evHandler:      ev,
	}

	return &p, nil
}

// WasmDir returns the staging directory for the runtime blobs.
func (p *Packer) WasmDir() string {
	return filepath.Join(p.workDir, "wasm")
}

// ReleaseDir returns the staging directory that becomes the shipped release.
func (p *Packer) ReleaseDir() string {
	return filepath.Join(p.workDir, "release")
}

// ArchiveName returns the name of the archive this packer will produce.
func (p *Packer) ArchiveName() string {
	return target.ArchiveName(p.product, p.releaseID, p.target, p.libcVersion, p.toolchainLabel)
}

// Pack stages the artifact set and writes the release archive, returning
// the path of the archive. Both staging directories are cleared completely
// first so a re-run only ever contains the current run's outputs.
func (p *Packer) Pack(as builder.ArtifactSet) (string, error) {
	wasmDir := p.WasmDir()
	releaseDir := p.ReleaseDir()

	// Stage the runtime blobs first. A release without both wasm variants
	// is incomplete for downstream consumers, so a missing source file is
	// fatal before any archive exists.
	p.evHandler("packer: staging %d runtime blobs into %s", len(as.RuntimeBlobs), wasmDir)

	if err := recreate(wasmDir); err != nil {
		return "", err
	}
	for _, blob := range as.RuntimeBlobs {
		if err := copyFile(blob, filepath.Join(wasmDir, filepath.Base(blob))); err != nil {
			return "", fmt.Errorf("staging runtime blob: %w", err)
		}
	}

	// Stage the release directory with the blobs and the primary binary.
	p.evHandler("packer: staging release into %s", releaseDir)

	if err := recreate(releaseDir); err != nil {
		return "", err
	}
	blobs, err := os.ReadDir(wasmDir)
	if err != nil {
		return "", err
	}
	for _, blob := range blobs {
		src := filepath.Join(wasmDir, blob.Name())
		if err := copyFile(src, filepath.Join(releaseDir, blob.Name())); err != nil {
			return "", fmt.Errorf("staging runtime blob: %w", err)
		}
	}

	binary := filepath.Join(releaseDir, p.product)
	if err := copyFile(as.Binary, binary); err != nil {
		return "", fmt.Errorf("staging binary: %w", err)
	}
	if err := os.Chmod(binary, 0755); err != nil {
		return "", err
	}

	// Write the archive. Only the executable goes in unless the runtime
	// blobs were asked for explicitly.
	archive := filepath.Join(releaseDir, p.ArchiveName())
	p.evHandler("packer: writing %s", archive)

	files := []string{binary}
	if p.includeRuntime {
		for _, blob := range blobs {
			files = append(files, filepath.Join(releaseDir, blob.Name()))
		}
	}
	if err := writeArchive(archive, files); err != nil {
		return "", fmt.Errorf("writing archive: %w", err)
	}

	// The loose binary copy has served its purpose.
	if err := os.Remove(binary); err != nil {
		return "", err
	}

	return archive, nil
}

// recreate clears and recreates the specified staging directory.
func recreate(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clearing %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}

// copyFile copies the source file to the destination path.
func copyFile(src string, dst string) error {
	s, err := os.Open(src)
	if err != nil {
		return err
	}
	defer s.Close()

	d, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer d.Close()

	if _, err := io.Copy(d, s); err != nil {
		return err
	}

	return d.Close()
}

// writeArchive writes the specified files into a bzip2 compressed tar file.
// Entries are stored under their base name so the archive unpacks flat.
func writeArchive(path string, files []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bzw, err := bzip2.NewWriter(f, &bzip2.WriterConfig{Level: bzip2.BestCompression})
	if err != nil {
		return err
	}

	tw := tar.NewWriter(bzw)

	for _, file := range files {
		if err := addFile(tw, file); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	if err := bzw.Close(); err != nil {
		return err
	}

	return f.Close()
}

// addFile writes one file entry into the tar stream.
func addFile(tw *tar.Writer, file string) error {
	info, err := os.Stat(file)
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = filepath.Base(file)

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.Copy(tw, f); err != nil {
		return err
	}

	return nil
}
