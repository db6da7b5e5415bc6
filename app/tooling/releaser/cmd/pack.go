package cmd

import (
	"github.com/mathchain/releaser/foundation/release/builder"
	"github.com/mathchain/releaser/foundation/release/packer"
	"github.com/mathchain/releaser/foundation/release/run"
	"github.com/mathchain/releaser/foundation/release/target"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var packCmd = &cobra.Command{
	Use:   "pack <release-id>",
	Short: "Stage the build output and write the release archive",
	Args:  cobra.ExactArgs(1),
	Run:   packRun,
}

func init() {
	rootCmd.AddCommand(packCmd)
}

func packRun(cmd *cobra.Command, args []string) {
	execute("pack", func(log *zap.SugaredLogger) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		tgt, err := target.Lookup(cfg.Target)
		if err != nil {
			return err
		}

		// Locate the artifacts a previous build command left behind.
		b, err := builder.New(builder.Config{
			Product:      cfg.Product,
			Target:       tgt,
			RuntimeBlobs: cfg.RuntimeBlobs,
			SourceDir:    sourceDir,
			Runner:       run.CmdRunner{},
		})
		if err != nil {
			return err
		}
		as, err := b.Artifacts()
		if err != nil {
			return err
		}

		p, err := packer.New(packer.Config{
			Product:        cfg.Product,
			ReleaseID:      args[0],
			Target:         tgt,
			LibcVersion:    cfg.LibcVersion,
			ToolchainLabel: cfg.ToolchainLabel,
			WorkDir:        stageWorkDir(),
			IncludeRuntime: includeRuntime,
			EvHandler: func(v string, args ...any) {
				log.Infof(v, args...)
			},
		})
		if err != nil {
			return err
		}

		archive, err := p.Pack(as)
		if err != nil {
			return err
		}

		log.Infow("pack complete", "archive", archive)

		return nil
	})
}
