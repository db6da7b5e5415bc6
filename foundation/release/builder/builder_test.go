package builder_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mathchain/releaser/foundation/release/builder"
	"github.com/mathchain/releaser/foundation/release/run"
	"github.com/mathchain/releaser/foundation/release/target"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// compileRunner pretends to be the cross tool, writing the output files a
// real build would leave behind.
type compileRunner struct {
	sourceDir string
	product   string
	blobs     []string
	fail      bool
	command   string
}

func (cr *compileRunner) Run(ctx context.Context, dir string, name string, args ...string) error {
	cr.command = name + " " + strings.Join(args, " ")
	if cr.fail {
		return errors.New("exit status 101")
	}

	profileDir := filepath.Join(cr.sourceDir, "target", "x86_64-unknown-linux-gnu", "release")
	wbuildDir := filepath.Join(profileDir, "wbuild", cr.product+"-runtime")
	if err := os.MkdirAll(wbuildDir, 0755); err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(profileDir, cr.product), []byte("ELF"), 0755); err != nil {
		return err
	}
	for _, blob := range cr.blobs {
		if err := os.WriteFile(filepath.Join(wbuildDir, blob), []byte("wasm"), 0644); err != nil {
			return err
		}
	}

	return nil
}

func newBuilder(t *testing.T, r run.Runner, sourceDir string) *builder.Builder {
	b, err := builder.New(builder.Config{
		Product:      "mathchain",
		Target:       target.X8664LinuxGNU,
		RuntimeBlobs: []string{"mathchain_runtime.compact.wasm", "mathchain_runtime.wasm"},
		SourceDir:    sourceDir,
		Runner:       r,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould construct the builder: %v", failed, err)
	}
	return b
}

func TestBuild(t *testing.T) {
	sourceDir := t.TempDir()
	cr := compileRunner{
		sourceDir: sourceDir,
		product:   "mathchain",
		blobs:     []string{"mathchain_runtime.compact.wasm", "mathchain_runtime.wasm"},
	}

	b := newBuilder(t, &cr, sourceDir)

	as, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("\t%s\tShould build without error: %v", failed, err)
	}
	t.Logf("\t%s\tShould build without error.", success)

	if cr.command != "cross build --release --target x86_64-unknown-linux-gnu" {
		t.Fatalf("\t%s\tShould invoke the release mode cross build: %s", failed, cr.command)
	}
	t.Logf("\t%s\tShould invoke the release mode cross build.", success)

	if filepath.Base(as.Binary) != "mathchain" {
		t.Fatalf("\t%s\tShould locate the primary binary: %s", failed, as.Binary)
	}
	if len(as.RuntimeBlobs) != 2 {
		t.Fatalf("\t%s\tShould locate both runtime blobs: %v", failed, as.RuntimeBlobs)
	}
	t.Logf("\t%s\tShould locate the primary binary and both runtime blobs.", success)
}

func TestBuildFailure(t *testing.T) {
	sourceDir := t.TempDir()
	cr := compileRunner{sourceDir: sourceDir, product: "mathchain", fail: true}

	b := newBuilder(t, &cr, sourceDir)

	if _, err := b.Build(context.Background()); err == nil {
		t.Fatalf("\t%s\tShould abort when the compilation fails.", failed)
	}
	t.Logf("\t%s\tShould abort when the compilation fails.", success)
}

func TestDisabledTarget(t *testing.T) {
	_, err := builder.New(builder.Config{
		Product: "mathchain",
		Target:  target.Aarch64LinuxGNU,
		Runner:  run.CmdRunner{},
	})
	if err == nil {
		t.Fatalf("\t%s\tShould reject a disabled target triple.", failed)
	}
	t.Logf("\t%s\tShould reject a disabled target triple.", success)
}
