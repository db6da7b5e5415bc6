package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mathchain/releaser/foundation/release/config"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	write := func(name string, doc string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
			t.Fatalf("\t%s\tShould write the config file: %v", failed, err)
		}
		return path
	}

	t.Run("overrides", func(t *testing.T) {
		path := write("release.json", `{"target": "aarch64-unknown-linux-gnu", "toolchain_label": "llvm-11"}`)

		cfg, err := config.Load(path)
		if err != nil {
			t.Fatalf("\t%s\tShould load a partial config over the defaults: %v", failed, err)
		}
		t.Logf("\t%s\tShould load a partial config over the defaults.", success)

		if cfg.Target != "aarch64-unknown-linux-gnu" || cfg.ToolchainLabel != "llvm-11" {
			t.Fatalf("\t%s\tShould apply the overridden fields.", failed)
		}
		if cfg.Product != "mathchain" || cfg.LibcVersion != "glibc-2.17" {
			t.Fatalf("\t%s\tShould keep the defaulted fields.", failed)
		}
		t.Logf("\t%s\tShould merge overrides with defaults.", success)
	})

	t.Run("invalid", func(t *testing.T) {
		path := write("bad.json", `{"product": "", "runtime_blobs": ["only-one.wasm"]}`)

		if _, err := config.Load(path); err == nil {
			t.Fatalf("\t%s\tShould reject a config missing required fields.", failed)
		}
		t.Logf("\t%s\tShould reject a config missing required fields.", success)
	})

	t.Run("missing", func(t *testing.T) {
		if _, err := config.Load(filepath.Join(dir, "nope.json")); err == nil {
			t.Fatalf("\t%s\tShould fail when the file does not exist.", failed)
		}
		t.Logf("\t%s\tShould fail when the file does not exist.", success)
	})
}
