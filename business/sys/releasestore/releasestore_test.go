package releasestore_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mathchain/releaser/business/sys/releasestore"
	"github.com/mathchain/releaser/foundation/release/digest"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "release")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("\t%s\tShould create the release dir: %v", failed, err)
	}

	files := map[string]string{
		"mathchain-v1.2.3-x86_64-linux-gnu-glibc-2.17-llvm-3.8.tar.bz2": "archive",
		"mathchain_runtime.wasm":                                        "wasm",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("\t%s\tShould write %s: %v", failed, name, err)
		}
	}
	if err := digest.Generate(dir); err != nil {
		t.Fatalf("\t%s\tShould generate the manifests: %v", failed, err)
	}

	store := releasestore.New(dir)

	artifacts, err := store.List()
	if err != nil {
		t.Fatalf("\t%s\tShould list the artifacts: %v", failed, err)
	}
	if len(artifacts) != 4 {
		t.Fatalf("\t%s\tShould list all four release files, got %d.", failed, len(artifacts))
	}
	t.Logf("\t%s\tShould list all four release files.", success)

	entries, err := store.Manifest("sha256")
	if err != nil {
		t.Fatalf("\t%s\tShould read the sha256 manifest: %v", failed, err)
	}
	if len(entries) != 2 {
		t.Fatalf("\t%s\tShould have two manifest entries, got %d.", failed, len(entries))
	}
	t.Logf("\t%s\tShould read the sha256 manifest.", success)

	if _, err := store.Manifest("sha1"); err == nil {
		t.Fatalf("\t%s\tShould reject an unknown digest algorithm.", failed)
	}
	t.Logf("\t%s\tShould reject an unknown digest algorithm.", success)

	f, err := store.Open("mathchain_runtime.wasm")
	if err != nil {
		t.Fatalf("\t%s\tShould open an artifact by name: %v", failed, err)
	}
	f.Close()
	t.Logf("\t%s\tShould open an artifact by name.", success)

	if _, err := store.Open("../outside.txt"); err == nil {
		t.Fatalf("\t%s\tShould reject names that escape the directory.", failed)
	}
	t.Logf("\t%s\tShould reject names that escape the directory.", success)
}

func TestStoreEmpty(t *testing.T) {
	store := releasestore.New(filepath.Join(t.TempDir(), "missing"))

	artifacts, err := store.List()
	if err != nil {
		t.Fatalf("\t%s\tShould tolerate a missing release dir: %v", failed, err)
	}
	if len(artifacts) != 0 {
		t.Fatalf("\t%s\tShould list no artifacts.", failed)
	}
	t.Logf("\t%s\tShould tolerate a missing release dir.", success)
}
