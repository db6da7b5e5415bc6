package cmd

import (
	"os"
	"path/filepath"

	"github.com/mathchain/releaser/foundation/release/digest"
	"github.com/mathchain/releaser/foundation/release/signing"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [release-dir]",
	Short: "Verify the checksums and signature of a release directory",
	Args:  cobra.MaximumNArgs(1),
	Run:   verifyRun,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func verifyRun(cmd *cobra.Command, args []string) {
	execute("verify", func(log *zap.SugaredLogger) error {
		releaseDir := stageReleaseDir(args)

		if err := digest.Verify(releaseDir); err != nil {
			return err
		}
		log.Infow("checksums verified", "releasedir", releaseDir)

		// The signature is optional: unsigned releases only carry the
		// digest manifests.
		manifest := filepath.Join(releaseDir, digest.SHA256Manifest)
		sigPath := manifest + ".sig"
		if _, err := os.Stat(sigPath); err != nil {
			if os.IsNotExist(err) {
				log.Infow("no signature present", "releasedir", releaseDir)
				return nil
			}
			return err
		}

		addr, err := signing.Verify(manifest, sigPath)
		if err != nil {
			return err
		}
		log.Infow("signature verified", "signedby", addr.String())

		return nil
	})
}
