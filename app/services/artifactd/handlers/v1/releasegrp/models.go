package releasegrp

import (
	"github.com/mathchain/releaser/business/sys/validate"
)

// AppNewRelease is what clients post to launch a pipeline run.
type AppNewRelease struct {
	ReleaseID      string `json:"release_id" validate:"required"`
	IncludeRuntime bool   `json:"include_runtime"`
}

// Validate checks the data in the model is considered clean.
func (app AppNewRelease) Validate() error {
	if err := validate.Check(app); err != nil {
		return err
	}
	return nil
}

// AppRun is returned when a pipeline run has been accepted.
type AppRun struct {
	RunID string `json:"run_id"`
}
