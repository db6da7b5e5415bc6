package cmd

import (
	"github.com/mathchain/releaser/foundation/release/digest"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var checksumCmd = &cobra.Command{
	Use:   "checksum [release-dir]",
	Short: "Generate the md5 and sha256 manifests for a release directory",
	Args:  cobra.MaximumNArgs(1),
	Run:   checksumRun,
}

func init() {
	rootCmd.AddCommand(checksumCmd)
}

func checksumRun(cmd *cobra.Command, args []string) {
	execute("checksum", func(log *zap.SugaredLogger) error {
		releaseDir := stageReleaseDir(args)

		if err := digest.Generate(releaseDir); err != nil {
			return err
		}

		log.Infow("checksum complete", "releasedir", releaseDir)

		return nil
	})
}
