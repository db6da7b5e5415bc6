// Package config maintains access to the release configuration file. The
// version pins that used to be hardcoded in the old release script live
// here so new targets or toolchains don't require source edits.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mathchain/releaser/business/sys/validate"
)

// Config represents the release configuration file.
type Config struct {
	Product          string   `json:"product" validate:"required"`
	Target           string   `json:"target" validate:"required"`                  // Full triple to build for.
	WasmTarget       string   `json:"wasm_target" validate:"required"`             // Sub-target for the runtime blobs.
	ToolchainChannel string   `json:"toolchain_channel" validate:"required"`       // Pinned nightly toolchain.
	ToolchainLabel   string   `json:"toolchain_label" validate:"required"`         // Label baked into the archive name.
	LibcVersion      string   `json:"libc_version" validate:"required"`            // Libc the binary links against.
	CrossRepo        string   `json:"cross_repo" validate:"required,url"`          // Source of the cross helper.
	CrossBranch      string   `json:"cross_branch" validate:"required"`            // Branch the cross helper is built from.
	ExtraTargets     []string `json:"extra_targets"`                               // Triples provisioned beyond the build target.
	RuntimeBlobs     []string `json:"runtime_blobs" validate:"required,len=2,dive,required"` // The wasm runtime variants a release ships.
}

// Default returns the configuration matching the historical release script.
func Default() Config {
	return Config{
		Product:          "mathchain",
		Target:           "x86_64-unknown-linux-gnu",
		WasmTarget:       "wasm32-unknown-unknown",
		ToolchainChannel: "nightly-2020-10-25",
		ToolchainLabel:   "llvm-3.8",
		LibcVersion:      "glibc-2.17",
		CrossRepo:        "https://github.com/rust-embedded/cross",
		CrossBranch:      "master",
		ExtraTargets:     []string{"aarch64-unknown-linux-gnu"},
		RuntimeBlobs: []string{
			"mathchain_runtime.compact.wasm",
			"mathchain_runtime.wasm",
		},
	}
}

// Load opens and consumes the release configuration file.
func Load(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := json.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing release config: %w", err)
	}

	if err := validate.Check(cfg); err != nil {
		return Config{}, fmt.Errorf("validating release config: %w", err)
	}

	return cfg, nil
}
