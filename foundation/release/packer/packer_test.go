package packer_test

import (
	"archive/tar"
	"compress/bzip2"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/mathchain/releaser/foundation/release/builder"
	"github.com/mathchain/releaser/foundation/release/packer"
	"github.com/mathchain/releaser/foundation/release/target"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// stageArtifacts writes a fake build output tree and returns the artifact set.
func stageArtifacts(t *testing.T, dir string) builder.ArtifactSet {
	t.Helper()

	as := builder.ArtifactSet{
		Binary: filepath.Join(dir, "mathchain"),
		RuntimeBlobs: []string{
			filepath.Join(dir, "mathchain_runtime.compact.wasm"),
			filepath.Join(dir, "mathchain_runtime.wasm"),
		},
	}

	if err := os.WriteFile(as.Binary, []byte("ELF binary"), 0755); err != nil {
		t.Fatalf("\t%s\tShould write the fake binary: %v", failed, err)
	}
	for _, blob := range as.RuntimeBlobs {
		if err := os.WriteFile(blob, []byte("wasm blob"), 0644); err != nil {
			t.Fatalf("\t%s\tShould write the fake blob: %v", failed, err)
		}
	}

	return as
}

// listArchive reads back the file names inside a tar.bz2 archive.
func listArchive(t *testing.T, path string) []string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("\t%s\tShould open the archive: %v", failed, err)
	}
	defer f.Close()

	var names []string
	tr := tar.NewReader(bzip2.NewReader(f))
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("\t%s\tShould read the archive: %v", failed, err)
		}
		names = append(names, hdr.Name)
	}

	return names
}

func newPacker(t *testing.T, workDir string, includeRuntime bool) *packer.Packer {
	t.Helper()

	p, err := packer.New(packer.Config{
		Product:        "mathchain",
		ReleaseID:      "v1.2.3",
		Target:         target.X8664LinuxGNU,
		LibcVersion:    "glibc-2.17",
		ToolchainLabel: "llvm-3.8",
		WorkDir:        workDir,
		IncludeRuntime: includeRuntime,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould construct the packer: %v", failed, err)
	}
	return p
}

func TestPack(t *testing.T) {
	workDir := t.TempDir()
	as := stageArtifacts(t, t.TempDir())

	p := newPacker(t, workDir, false)

	archive, err := p.Pack(as)
	if err != nil {
		t.Fatalf("\t%s\tShould pack without error: %v", failed, err)
	}
	t.Logf("\t%s\tShould pack without error.", success)

	exp := "mathchain-v1.2.3-x86_64-linux-gnu-glibc-2.17-llvm-3.8.tar.bz2"
	if filepath.Base(archive) != exp {
		t.Logf("\t%s\tgot: %s", failed, filepath.Base(archive))
		t.Logf("\t%s\texp: %s", failed, exp)
		t.Fatalf("\t%s\tShould name the archive by convention.", failed)
	}
	t.Logf("\t%s\tShould name the archive by convention.", success)

	names := listArchive(t, archive)
	if len(names) != 1 || names[0] != "mathchain" {
		t.Fatalf("\t%s\tShould archive exactly the product binary: %v", failed, names)
	}
	t.Logf("\t%s\tShould archive exactly the product binary.", success)

	// The loose binary is removed after archiving while the runtime blobs
	// stay alongside the archive.
	if _, err := os.Stat(filepath.Join(p.ReleaseDir(), "mathchain")); !os.IsNotExist(err) {
		t.Fatalf("\t%s\tShould remove the loose binary from staging.", failed)
	}
	for _, blob := range []string{"mathchain_runtime.compact.wasm", "mathchain_runtime.wasm"} {
		if _, err := os.Stat(filepath.Join(p.ReleaseDir(), blob)); err != nil {
			t.Fatalf("\t%s\tShould leave the runtime blobs in staging: %v", failed, err)
		}
	}
	t.Logf("\t%s\tShould leave only the archive and runtime blobs in staging.", success)
}

func TestPackIncludeRuntime(t *testing.T) {
	workDir := t.TempDir()
	as := stageArtifacts(t, t.TempDir())

	p := newPacker(t, workDir, true)

	archive, err := p.Pack(as)
	if err != nil {
		t.Fatalf("\t%s\tShould pack without error: %v", failed, err)
	}

	names := listArchive(t, archive)
	if len(names) != 3 {
		t.Fatalf("\t%s\tShould archive the binary and both runtime blobs: %v", failed, names)
	}
	t.Logf("\t%s\tShould archive the binary and both runtime blobs.", success)
}

func TestPackMissingBlob(t *testing.T) {
	workDir := t.TempDir()
	as := stageArtifacts(t, t.TempDir())

	// Remove one of the runtime blobs to simulate an incomplete build.
	if err := os.Remove(as.RuntimeBlobs[1]); err != nil {
		t.Fatalf("\t%s\tShould remove the blob: %v", failed, err)
	}

	p := newPacker(t, workDir, false)

	if _, err := p.Pack(as); err == nil {
		t.Fatalf("\t%s\tShould abort when a runtime blob is missing.", failed)
	}
	t.Logf("\t%s\tShould abort when a runtime blob is missing.", success)

	if _, err := os.Stat(filepath.Join(p.ReleaseDir(), p.ArchiveName())); !os.IsNotExist(err) {
		t.Fatalf("\t%s\tShould not publish a partial release.", failed)
	}
	t.Logf("\t%s\tShould not publish a partial release.", success)
}

func TestPackClearsStaging(t *testing.T) {
	workDir := t.TempDir()
	as := stageArtifacts(t, t.TempDir())

	p := newPacker(t, workDir, false)

	// Leave debris from a previous run in both staging directories.
	for _, dir := range []string{p.WasmDir(), p.ReleaseDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("\t%s\tShould create the staging dir: %v", failed, err)
		}
		if err := os.WriteFile(filepath.Join(dir, "stale.txt"), []byte("old run"), 0644); err != nil {
			t.Fatalf("\t%s\tShould write the stale file: %v", failed, err)
		}
	}

	if _, err := p.Pack(as); err != nil {
		t.Fatalf("\t%s\tShould pack without error: %v", failed, err)
	}

	for _, dir := range []string{p.WasmDir(), p.ReleaseDir()} {
		if _, err := os.Stat(filepath.Join(dir, "stale.txt")); !os.IsNotExist(err) {
			t.Fatalf("\t%s\tShould clear staging before repopulating.", failed)
		}
	}
	t.Logf("\t%s\tShould clear staging before repopulating.", success)
}

func TestPackDeterminism(t *testing.T) {
	as := stageArtifacts(t, t.TempDir())

	read := func(workDir string) (string, []string) {
		p := newPacker(t, workDir, false)
		archive, err := p.Pack(as)
		if err != nil {
			t.Fatalf("\t%s\tShould pack without error: %v", failed, err)
		}
		return filepath.Base(archive), listArchive(t, archive)
	}

	name1, list1 := read(t.TempDir())
	name2, list2 := read(t.TempDir())

	if name1 != name2 {
		t.Fatalf("\t%s\tShould produce the same archive name on every run.", failed)
	}
	if len(list1) != len(list2) || list1[0] != list2[0] {
		t.Fatalf("\t%s\tShould produce the same file listing on every run.", failed)
	}
	t.Logf("\t%s\tShould produce identical archives for identical inputs.", success)
}

func TestPackEmptyReleaseID(t *testing.T) {
	_, err := packer.New(packer.Config{
		Product: "mathchain",
		Target:  target.X8664LinuxGNU,
		WorkDir: t.TempDir(),
	})
	if err == nil {
		t.Fatalf("\t%s\tShould reject an empty release id.", failed)
	}
	t.Logf("\t%s\tShould reject an empty release id.", success)
}
