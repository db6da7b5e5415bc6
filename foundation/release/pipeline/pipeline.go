// Package pipeline runs the release stages in order and owns the working
// directory the stages share. Stages short-circuit: the first failure stops
// the run and nothing after it executes.
package pipeline

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/mathchain/releaser/foundation/release/builder"
	"github.com/mathchain/releaser/foundation/release/config"
	"github.com/mathchain/releaser/foundation/release/digest"
	"github.com/mathchain/releaser/foundation/release/packer"
	"github.com/mathchain/releaser/foundation/release/run"
	"github.com/mathchain/releaser/foundation/release/signing"
	"github.com/mathchain/releaser/foundation/release/target"
	"github.com/mathchain/releaser/foundation/release/toolchain"
)

// EventHandler defines a function that is called when events occur in the
// processing of the release stages.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to run the pipeline.
type Config struct {
	Release   config.Config // Release settings and version pins.
	ReleaseID string        // Caller supplied version tag; immutable once the run starts.
	SourceDir string        // Root of the source tree to build.

	// WorkDir owns the wasm/ and release/ staging for this run. Only one
	// run may use a given work directory at a time; when empty a fresh
	// temporary directory is created so runs can't race each other.
	WorkDir string

	// IncludeRuntime adds the wasm runtime blobs to the archive instead of
	// shipping them as loose files.
	IncludeRuntime bool

	// SigningKey, when set, signs the sha256 manifest after checksums are
	// generated.
	SigningKey *ecdsa.PrivateKey

	RetryWait time.Duration // Provisioning retry wait override, mainly for tests.
	Runner    run.Runner
	EvHandler EventHandler
}

// Result describes what a completed run produced.
type Result struct {
	RunID      string
	WorkDir    string
	ReleaseDir string
	Archive    string
	SignedBy   string
}

// Pipeline executes the release stages for a single release id.
type Pipeline struct {
	runID       string
	workDir     string
	signingKey  *ecdsa.PrivateKey
	provisioner *toolchain.Provisioner
	builder     *builder.Builder
	packer      *packer.Packer
	evHandler   EventHandler
}

// New constructs a Pipeline for the specified release. All version pins and
// the target triple come from the release configuration.
func New(cfg Config) (*Pipeline, error) {
	if cfg.ReleaseID == "" {
		return nil, fmt.Errorf("release id is required")
	}
	if cfg.Runner == nil {
		return nil, fmt.Errorf("runner is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	tgt, err := target.Lookup(cfg.Release.Target)
	if err != nil {
		return nil, err
	}

	// Each run owns its staging root. A caller supplied work directory is
	// honored for callers that manage their own isolation.
	workDir := cfg.WorkDir
	if workDir == "" {
		workDir, err = os.MkdirTemp("", "mathchain-release-")
		if err != nil {
			return nil, fmt.Errorf("creating work directory: %w", err)
		}
	}

	targets := []string{cfg.Release.Target}
	targets = append(targets, cfg.Release.ExtraTargets...)
	targets = append(targets, cfg.Release.WasmTarget)

	provisioner, err := toolchain.New(toolchain.Config{
		Channel:     cfg.Release.ToolchainChannel,
		Targets:     targets,
		CrossRepo:   cfg.Release.CrossRepo,
		CrossBranch: cfg.Release.CrossBranch,
		RetryWait:   cfg.RetryWait,
		Runner:      cfg.Runner,
		EvHandler:   toolchain.EventHandler(ev),
	})
	if err != nil {
		return nil, fmt.Errorf("constructing provisioner: %w", err)
	}

	bld, err := builder.New(builder.Config{
		Product:      cfg.Release.Product,
		Target:       tgt,
		RuntimeBlobs: cfg.Release.RuntimeBlobs,
		SourceDir:    cfg.SourceDir,
		Runner:       cfg.Runner,
		EvHandler:    builder.EventHandler(ev),
	})
	if err != nil {
		return nil, fmt.Errorf("constructing builder: %w", err)
	}

	pck, err := packer.New(packer.Config{
		Product:        cfg.Release.Product,
		ReleaseID:      cfg.ReleaseID,
		Target:         tgt,
		LibcVersion:    cfg.Release.LibcVersion,
		ToolchainLabel: cfg.Release.ToolchainLabel,
		WorkDir:        workDir,
		IncludeRuntime: cfg.IncludeRuntime,
		EvHandler:      packer.EventHandler(ev),
	})
	if err != nil {
		return nil, fmt.Errorf("constructing packer: %w", err)
	}

	p := Pipeline{
		runID:       uuid.NewString(),
		workDir:     workDir,
		signingKey:  cfg.SigningKey,
		provisioner: provisioner,
		builder:     bld,
		packer:      pck,
		evHandler:   ev,
	}

	return &p, nil
}

// RunID returns the unique id assigned to this run.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Run executes provision, build, pack and checksum in order, stopping at
// the first stage that fails. When a signing key is configured the sha256
// manifest is signed last.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	p.evHandler("pipeline: run %s: provisioning toolchain", p.runID)
	if err := p.provisioner.Provision(ctx); err != nil {
		return Result{}, fmt.Errorf("provision: %w", err)
	}

	p.evHandler("pipeline: run %s: building", p.runID)
	as, err := p.builder.Build(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("build: %w", err)
	}

	p.evHandler("pipeline: run %s: packing", p.runID)
	archive, err := p.packer.Pack(as)
	if err != nil {
		return Result{}, fmt.Errorf("pack: %w", err)
	}

	p.evHandler("pipeline: run %s: generating checksums", p.runID)
	if err := digest.Generate(p.packer.ReleaseDir()); err != nil {
		return Result{}, fmt.Errorf("checksum: %w", err)
	}

	result := Result{
		RunID:      p.runID,
		WorkDir:    p.workDir,
		ReleaseDir: p.packer.ReleaseDir(),
		Archive:    archive,
	}

	if p.signingKey != nil {
		p.evHandler("pipeline: run %s: signing manifest", p.runID)

		manifest := filepath.Join(p.packer.ReleaseDir(), digest.SHA256Manifest)
		if _, err := signing.Sign(manifest, p.signingKey); err != nil {
			return Result{}, fmt.Errorf("sign: %w", err)
		}
		result.SignedBy = crypto.PubkeyToAddress(p.signingKey.PublicKey).String()
	}

	p.evHandler("pipeline: run %s: complete, archive %s", p.runID, filepath.Base(archive))

	return result, nil
}
