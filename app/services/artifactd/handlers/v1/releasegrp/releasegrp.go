// Package releasegrp maintains the group of handlers for launching pipeline
// runs and serving the artifacts they produce.
package releasegrp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mathchain/releaser/business/core/release"
	"github.com/mathchain/releaser/business/sys/releasestore"
	v1 "github.com/mathchain/releaser/business/web/v1"
	"github.com/mathchain/releaser/foundation/events"
	"github.com/mathchain/releaser/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of release endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	Core  *release.Core
	Store *releasestore.Store
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Launch starts a pipeline run for the posted release id.
func (h Handlers) Launch(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var app AppNewRelease
	if err := web.Decode(r, &app); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	runID, err := h.Core.Launch(app.ReleaseID, app.IncludeRuntime)
	if err != nil {
		if errors.Is(err, release.ErrRunInFlight) {
			return v1.NewRequestError(err, http.StatusConflict)
		}
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	h.Log.Infow("release launched", "traceid", v.TraceID, "releaseid", app.ReleaseID, "runid", runID)

	return web.Respond(ctx, w, AppRun{RunID: runID}, http.StatusAccepted)
}

// Status returns the state of the most recent pipeline run.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Core.Status(), http.StatusOK)
}

// Artifacts lists the files currently present in the release directory.
func (h Handlers) Artifacts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	artifacts, err := h.Store.List()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, artifacts, http.StatusOK)
}

// Download streams the named artifact to the client.
func (h Handlers) Download(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	name := web.Param(r, "name")

	f, err := h.Store.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return v1.NewRequestError(fmt.Errorf("artifact %q not found", name), http.StatusNotFound)
		}
		return v1.NewRequestError(err, http.StatusBadRequest)
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	if _, err := io.Copy(w, f); err != nil {
		return err
	}

	return nil
}

// Manifest returns the parsed digest manifest for the requested algorithm.
func (h Handlers) Manifest(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	algo := web.Param(r, "algo")

	entries, err := h.Store.Manifest(algo)
	if err != nil {
		if os.IsNotExist(err) {
			return v1.NewRequestError(fmt.Errorf("no %s manifest present", algo), http.StatusNotFound)
		}
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, entries, http.StatusOK)
}

// Events handles a web socket to provide pipeline progress to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}
