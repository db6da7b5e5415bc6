// Package builder performs the release mode cross compilation for a target
// triple and locates the artifacts the build leaves behind.
package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mathchain/releaser/foundation/release/run"
	"github.com/mathchain/releaser/foundation/release/target"
)

// EventHandler defines a function that is called when events occur during
// the build.
type EventHandler func(v string, args ...any)

// ArtifactSet represents the files a successful build produces for one
// target triple. The packer owns these paths once the build hands them over.
type ArtifactSet struct {
	Binary       string   // The primary executable.
	RuntimeBlobs []string // The embedded wasm runtime variants.
}

// Config represents the configuration required to run a build.
type Config struct {
	Product      string        // Name of the executable the build produces.
	Target       target.Triple // Triple the build is produced for.
	RuntimeBlobs []string      // File names of the runtime blobs to locate.
	SourceDir    string        // Root of the source tree to build in.
	Runner       run.Runner
	EvHandler    EventHandler
}

// Builder runs the cross compilation for a single target triple.
type Builder struct {
	product      string
	target       target.Triple
	runtimeBlobs []string
	sourceDir    string
	runner       run.Runner
	evHandler    EventHandler
}

// New constructs a Builder for use.
func New(cfg Config) (*Builder, error) {
	if cfg.Product == "" {
		return nil, fmt.Errorf("product name is required")
	}
	if !cfg.Target.Enabled {
		return nil, fmt.Errorf("target %q is disabled", cfg.Target.Name)
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

	b := Builder{
		product:      cfg.Product,
		target:       cfg.Target,
		runtimeBlobs: cfg.RuntimeBlobs,
		sourceDir:    cfg.SourceDir,
		runner:       cfg.Runner,
		evHandler:    ev,
	}

	return &b, nil
}

// Build runs the release mode cross compilation and returns the artifact
// set it produced. Any compilation failure aborts the pipeline since a
// release missing its primary binary is not a valid release.
func (b *Builder) Build(ctx context.Context) (ArtifactSet, error) {
	b.evHandler("builder: cross compiling %s for %s", b.product, b.target.Name)

	args := []string{"build", "--release", "--target", b.target.Name}
	if err := b.runner.Run(ctx, b.sourceDir, "cross", args...); err != nil {
		return ArtifactSet{}, fmt.Errorf("cross compiling for %s: %w", b.target.Name, err)
	}

	as, err := b.Artifacts()
	if err != nil {
		return ArtifactSet{}, err
	}

	b.evHandler("builder: produced %s and %d runtime blobs", as.Binary, len(as.RuntimeBlobs))

	return as, nil
}

// Artifacts locates the output of a previous build without running one.
// The build writes into a nested output tree keyed by triple and profile,
// with the runtime blobs under the wbuild sub-directory of the profile.
func (b *Builder) Artifacts() (ArtifactSet, error) {
	profileDir := filepath.Join(b.sourceDir, "target", b.target.Name, "release")
	wbuildDir := filepath.Join(profileDir, "wbuild", b.product+"-runtime")

	as := ArtifactSet{
		Binary: filepath.Join(profileDir, b.product),
	}
	for _, blob := range b.runtimeBlobs {
		as.RuntimeBlobs = append(as.RuntimeBlobs, filepath.Join(wbuildDir, blob))
	}

	if _, err := os.Stat(as.Binary); err != nil {
		return ArtifactSet{}, fmt.Errorf("build did not produce %s: %w", as.Binary, err)
	}

	return as, nil
}
