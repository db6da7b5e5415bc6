package cmd

import (
	"github.com/mathchain/releaser/foundation/release/pipeline"
	"github.com/mathchain/releaser/foundation/release/run"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var releaseCmd = &cobra.Command{
	Use:   "release <release-id>",
	Short: "Run the full pipeline: provision, build, pack, checksum",
	Args:  cobra.ExactArgs(1),
	Run:   releaseRun,
}

func init() {
	rootCmd.AddCommand(releaseCmd)
}

func releaseRun(cmd *cobra.Command, args []string) {
	execute("release", func(log *zap.SugaredLogger) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		signingKey, err := loadSigningKey()
		if err != nil {
			return err
		}

		p, err := pipeline.New(pipeline.Config{
			Release:        cfg,
			ReleaseID:      args[0],
			SourceDir:      sourceDir,
			WorkDir:        workDir,
			IncludeRuntime: includeRuntime,
			SigningKey:     signingKey,
			Runner:         run.CmdRunner{},
			EvHandler: func(v string, args ...any) {
				log.Infof(v, args...)
			},
		})
		if err != nil {
			return err
		}

		result, err := p.Run(cmd.Context())
		if err != nil {
			return err
		}

		log.Infow("release complete", "runid", result.RunID, "archive", result.Archive,
			"releasedir", result.ReleaseDir, "signedby", result.SignedBy)

		return nil
	})
}
