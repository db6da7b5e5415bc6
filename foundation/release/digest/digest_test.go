package digest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mathchain/releaser/foundation/release/digest"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// stageRelease writes a release directory with the specified files.
func stageRelease(t *testing.T, files map[string]string) string {
	t.Helper()

	releaseDir := filepath.Join(t.TempDir(), "release")
	if err := os.MkdirAll(releaseDir, 0755); err != nil {
		t.Fatalf("\t%s\tShould create the release dir: %v", failed, err)
	}

	for name, content := range files {
		if err := os.WriteFile(filepath.Join(releaseDir, name), []byte(content), 0644); err != nil {
			t.Fatalf("\t%s\tShould write %s: %v", failed, name, err)
		}
	}

	return releaseDir
}

func TestGenerate(t *testing.T) {
	releaseDir := stageRelease(t, map[string]string{
		"mathchain-v1.2.3-x86_64-linux-gnu-glibc-2.17-llvm-3.8.tar.bz2": "archive bytes",
		"mathchain_runtime.compact.wasm":                                "compact wasm",
		"mathchain_runtime.wasm":                                        "full wasm",
	})

	if err := digest.Generate(releaseDir); err != nil {
		t.Fatalf("\t%s\tShould generate the manifests: %v", failed, err)
	}
	t.Logf("\t%s\tShould generate the manifests.", success)

	for _, manifest := range []string{digest.MD5Manifest, digest.SHA256Manifest} {
		entries, err := digest.Read(filepath.Join(releaseDir, manifest))
		if err != nil {
			t.Fatalf("\t%s\tShould read %s back: %v", failed, manifest, err)
		}

		// One line per non-manifest file, nothing more.
		if len(entries) != 3 {
			t.Logf("\t%s\tgot: %d entries", failed, len(entries))
			t.Logf("\t%s\texp: 3 entries", failed)
			t.Fatalf("\t%s\tShould cover every release file in %s.", failed, manifest)
		}
		t.Logf("\t%s\tShould cover every release file in %s.", success, manifest)

		for _, entry := range entries {
			if entry.Name == digest.MD5Manifest || entry.Name == digest.SHA256Manifest {
				t.Fatalf("\t%s\tShould not checksum the manifests themselves.", failed)
			}
		}
		t.Logf("\t%s\tShould not checksum the manifests themselves.", success)
	}

	// The manifests end up inside the release directory with nothing
	// left behind in the parent.
	if _, err := os.Stat(filepath.Join(filepath.Dir(releaseDir), digest.MD5Manifest)); !os.IsNotExist(err) {
		t.Fatalf("\t%s\tShould move the manifests out of the parent directory.", failed)
	}
	t.Logf("\t%s\tShould move the manifests out of the parent directory.", success)
}

func TestVerify(t *testing.T) {
	releaseDir := stageRelease(t, map[string]string{
		"mathchain.tar.bz2": "archive bytes",
		"runtime.wasm":      "wasm",
	})

	if err := digest.Generate(releaseDir); err != nil {
		t.Fatalf("\t%s\tShould generate the manifests: %v", failed, err)
	}

	if err := digest.Verify(releaseDir); err != nil {
		t.Fatalf("\t%s\tShould verify an untouched release: %v", failed, err)
	}
	t.Logf("\t%s\tShould verify an untouched release.", success)

	// Corrupt one file and expect the mismatch to surface.
	if err := os.WriteFile(filepath.Join(releaseDir, "runtime.wasm"), []byte("tampered"), 0644); err != nil {
		t.Fatalf("\t%s\tShould rewrite the file: %v", failed, err)
	}

	if err := digest.Verify(releaseDir); err == nil {
		t.Fatalf("\t%s\tShould detect a corrupted release file.", failed)
	}
	t.Logf("\t%s\tShould detect a corrupted release file.", success)
}
