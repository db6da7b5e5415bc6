package cmd

import (
	"github.com/mathchain/releaser/foundation/release/run"
	"github.com/mathchain/releaser/foundation/release/toolchain"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Install the pinned toolchain, targets and cross helper",
	Args:  cobra.NoArgs,
	Run:   provisionRun,
}

func init() {
	rootCmd.AddCommand(provisionCmd)
}

func provisionRun(cmd *cobra.Command, args []string) {
	execute("provision", func(log *zap.SugaredLogger) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		targets := []string{cfg.Target}
		targets = append(targets, cfg.ExtraTargets...)
		targets = append(targets, cfg.WasmTarget)

		p, err := toolchain.New(toolchain.Config{
			Channel:     cfg.ToolchainChannel,
			Targets:     targets,
			CrossRepo:   cfg.CrossRepo,
			CrossBranch: cfg.CrossBranch,
			Runner:      run.CmdRunner{},
			EvHandler: func(v string, args ...any) {
				log.Infof(v, args...)
			},
		})
		if err != nil {
			return err
		}

		return p.Provision(cmd.Context())
	})
}
