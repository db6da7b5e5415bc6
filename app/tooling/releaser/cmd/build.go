package cmd

import (
	"github.com/mathchain/releaser/foundation/release/builder"
	"github.com/mathchain/releaser/foundation/release/run"
	"github.com/mathchain/releaser/foundation/release/target"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Cross compile the node and its wasm runtime",
	Args:  cobra.NoArgs,
	Run:   buildRun,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func buildRun(cmd *cobra.Command, args []string) {
	execute("build", func(log *zap.SugaredLogger) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		tgt, err := target.Lookup(cfg.Target)
		if err != nil {
			return err
		}

		b, err := builder.New(builder.Config{
			Product:      cfg.Product,
			Target:       tgt,
			RuntimeBlobs: cfg.RuntimeBlobs,
			SourceDir:    sourceDir,
			Runner:       run.CmdRunner{},
			EvHandler: func(v string, args ...any) {
				log.Infof(v, args...)
			},
		})
		if err != nil {
			return err
		}

		as, err := b.Build(cmd.Context())
		if err != nil {
			return err
		}

		log.Infow("build complete", "binary", as.Binary, "runtimeblobs", len(as.RuntimeBlobs))

		return nil
	})
}
