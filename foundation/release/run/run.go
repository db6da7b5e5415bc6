// Package run provides command execution support for the pipeline stages.
package run

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Runner represents the behavior required by any stage that needs to
// execute external tools.
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) error
}

// =============================================================================

// CmdRunner executes commands against the local system. The zero value
// writes tool output to the process's stdout and stderr.
type CmdRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes the specified command in the specified directory, waiting
// for it to complete.
func (cr CmdRunner) Run(ctx context.Context, dir string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	cmd.Stdout = cr.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = cr.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}

	return nil
}

// =============================================================================

// Retry executes the specified function until it succeeds, the attempt
// budget is exhausted, or the context is canceled. The wait between
// attempts doubles after every failure.
func Retry(ctx context.Context, attempts int, wait time.Duration, fn func() error) error {
	var err error

	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		wait *= 2
	}

	return fmt.Errorf("%d attempts: %w", attempts, err)
}
