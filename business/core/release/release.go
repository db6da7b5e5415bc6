// Package release implements the business api for launching and observing
// pipeline runs from the artifact service.
package release

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"sync"
	"time"

	"github.com/mathchain/releaser/foundation/release/config"
	"github.com/mathchain/releaser/foundation/release/pipeline"
	"github.com/mathchain/releaser/foundation/release/run"
	"go.uber.org/zap"
)

// ErrRunInFlight is returned when a launch is requested while another run
// still owns the staging directories.
var ErrRunInFlight = errors.New("a release run is already in flight")

// Status describes the state of the most recent run.
type Status struct {
	Running     bool      `json:"running"`
	RunID       string    `json:"run_id,omitempty"`
	ReleaseID   string    `json:"release_id,omitempty"`
	Archive     string    `json:"archive,omitempty"`
	SignedBy    string    `json:"signed_by,omitempty"`
	Error       string    `json:"error,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

// Config represents the configuration required to construct the core.
type Config struct {
	Log        *zap.SugaredLogger
	Release    config.Config
	SourceDir  string
	WorkDir    string
	SigningKey *ecdsa.PrivateKey
	Runner     run.Runner
	EvHandler  pipeline.EventHandler
}

// Core launches pipeline runs one at a time. The staging directories under
// the work directory are shared between runs, so only a single run may be
// in flight.
type Core struct {
	log        *zap.SugaredLogger
	release    config.Config
	sourceDir  string
	workDir    string
	signingKey *ecdsa.PrivateKey
	runner     run.Runner
	evHandler  pipeline.EventHandler

	mu      sync.Mutex
	running bool
	status  Status
}

// NewCore constructs a core for launching pipeline runs.
func NewCore(cfg Config) *Core {
	return &Core{
		log:        cfg.Log,
		release:    cfg.Release,
		sourceDir:  cfg.SourceDir,
		workDir:    cfg.WorkDir,
		signingKey: cfg.SigningKey,
		runner:     cfg.Runner,
		evHandler:  cfg.EvHandler,
	}
}

// Launch starts a pipeline run for the specified release id in the
// background and returns its run id. A second launch while a run is in
// flight returns ErrRunInFlight.
func (c *Core) Launch(releaseID string, includeRuntime bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return "", ErrRunInFlight
	}

	p, err := pipeline.New(pipeline.Config{
		Release:        c.release,
		ReleaseID:      releaseID,
		SourceDir:      c.sourceDir,
		WorkDir:        c.workDir,
		IncludeRuntime: includeRuntime,
		SigningKey:     c.signingKey,
		Runner:         c.runner,
		EvHandler:      c.evHandler,
	})
	if err != nil {
		return "", err
	}

	c.running = true
	c.status = Status{Running: true, RunID: p.RunID(), ReleaseID: releaseID}

	go func() {
		result, err := p.Run(context.Background())

		c.mu.Lock()
		defer c.mu.Unlock()

		c.running = false
		c.status.Running = false
		c.status.CompletedAt = time.Now().UTC()

		if err != nil {
			c.status.Error = err.Error()
			c.log.Errorw("release run failed", "runid", p.RunID(), "releaseid", releaseID, "ERROR", err)
			return
		}

		c.status.Archive = result.Archive
		c.status.SignedBy = result.SignedBy
		c.log.Infow("release run complete", "runid", result.RunID, "releaseid", releaseID, "archive", result.Archive)
	}()

	return p.RunID(), nil
}

// Status returns the state of the most recent run.
func (c *Core) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status
}
