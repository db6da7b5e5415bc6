package cmd

import (
	"errors"
	"path/filepath"

	"github.com/mathchain/releaser/foundation/release/digest"
	"github.com/mathchain/releaser/foundation/release/signing"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var signCmd = &cobra.Command{
	Use:   "sign [release-dir]",
	Short: "Sign the sha256 manifest of a release directory",
	Args:  cobra.MaximumNArgs(1),
	Run:   signRun,
}

func init() {
	rootCmd.AddCommand(signCmd)
}

func signRun(cmd *cobra.Command, args []string) {
	execute("sign", func(log *zap.SugaredLogger) error {
		if keyName == "" {
			return errors.New("a signing key name is required, use --key")
		}

		signingKey, err := loadSigningKey()
		if err != nil {
			return err
		}

		manifest := filepath.Join(stageReleaseDir(args), digest.SHA256Manifest)
		sigPath, err := signing.Sign(manifest, signingKey)
		if err != nil {
			return err
		}

		log.Infow("sign complete", "manifest", manifest, "signature", sigPath)

		return nil
	})
}
