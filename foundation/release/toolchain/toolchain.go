// Package toolchain installs the pinned compiler toolchain, the target
// triples and the cross-compilation helper the build stage depends on.
package toolchain

import (
	"context"
	"fmt"
	"time"

	"github.com/mathchain/releaser/foundation/release/run"
)

// The old release script aborted on the first network hiccup. Provisioning
// is the only network bound stage so it gets a small attempt budget with a
// doubling wait between attempts.
const (
	installAttempts = 3
	installWait     = 2 * time.Second
)

// EventHandler defines a function that is called when events occur during
// provisioning.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to provision the toolchain.
type Config struct {
	Channel     string   // Pinned nightly toolchain to install.
	Targets     []string // Triples added on top of the host target.
	CrossRepo   string   // Repository the cross helper is built from.
	CrossBranch string   // Branch of the cross helper repository.
	RetryWait   time.Duration
	Runner      run.Runner
	EvHandler   EventHandler
}

// Provisioner installs everything the build stage needs on the machine.
type Provisioner struct {
	channel     string
	targets     []string
	crossRepo   string
	crossBranch string
	retryWait   time.Duration
	runner      run.Runner
	evHandler   EventHandler
}

// New constructs a Provisioner for use.
func New(cfg Config) (*Provisioner, error) {
	if cfg.Channel == "" {
		return nil, fmt.Errorf("toolchain channel is required")
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

	if cfg.RetryWait <= 0 {
		cfg.RetryWait = installWait
	}

	p := Provisioner{
		channel:     cfg.Channel,
		targets:     cfg.Targets,
		crossRepo:   cfg.CrossRepo,
		crossBranch: cfg.CrossBranch,
		retryWait:   cfg.RetryWait,
		runner:      cfg.Runner,
		evHandler:   ev,
	}

	return &p, nil
}

// Provision installs the pinned toolchain, adds the target triples and
// installs the cross helper. Every step retries within the attempt budget
// before the failure becomes fatal.
func (p *Provisioner) Provision(ctx context.Context) error {
	p.evHandler("toolchain: installing %s", p.channel)

	install := func() error {
		return p.runner.Run(ctx, "", "rustup", "toolchain", "install", p.channel)
	}
	if err := run.Retry(ctx, installAttempts, p.retryWait, install); err != nil {
		return fmt.Errorf("installing toolchain %s: %w", p.channel, err)
	}

	for _, target := range p.targets {
		p.evHandler("toolchain: adding target %s", target)

		add := func() error {
			return p.runner.Run(ctx, "", "rustup", "target", "add", "--toolchain", p.channel, target)
		}
		if err := run.Retry(ctx, installAttempts, p.retryWait, add); err != nil {
			return fmt.Errorf("adding target %s: %w", target, err)
		}
	}

	if p.crossRepo != "" {
		p.evHandler("toolchain: installing cross from %s@%s", p.crossRepo, p.crossBranch)

		cross := func() error {
			return p.runner.Run(ctx, "", "cargo", "install", "cross", "--git", p.crossRepo, "--branch", p.crossBranch, "--force")
		}
		if err := run.Retry(ctx, installAttempts, p.retryWait, cross); err != nil {
			return fmt.Errorf("installing cross helper: %w", err)
		}
	}

	return nil
}
