// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/mathchain/releaser/app/services/artifactd/handlers/v1/releasegrp"
	"github.com/mathchain/releaser/business/core/release"
	"github.com/mathchain/releaser/business/sys/releasestore"
	"github.com/mathchain/releaser/foundation/events"
	"github.com/mathchain/releaser/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	Core  *release.Core
	Store *releasestore.Store
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	rgh := releasegrp.Handlers{
		Log:   cfg.Log,
		Core:  cfg.Core,
		Store: cfg.Store,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodPost, version, "/releases", rgh.Launch)
	app.Handle(http.MethodGet, version, "/releases/status", rgh.Status)
	app.Handle(http.MethodGet, version, "/artifacts", rgh.Artifacts)
	app.Handle(http.MethodGet, version, "/artifacts/:name", rgh.Download)
	app.Handle(http.MethodGet, version, "/manifests/:algo", rgh.Manifest)
	app.Handle(http.MethodGet, version, "/events", rgh.Events)
}
