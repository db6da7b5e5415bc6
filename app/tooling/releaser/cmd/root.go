// Package cmd contains the releaser app commands.
package cmd

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mathchain/releaser/foundation/keystore"
	"github.com/mathchain/releaser/foundation/logger"
	"github.com/mathchain/releaser/foundation/release/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath     string
	sourceDir      string
	workDir        string
	includeRuntime bool
	keysPath       string
	keyName        string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "zarf/release.json", "Path to the release configuration file.")
	rootCmd.PersistentFlags().StringVarP(&sourceDir, "source", "s", ".", "Path to the source tree to build.")
	rootCmd.PersistentFlags().StringVarP(&workDir, "work", "w", "", "Directory owning the staging folders. The release command defaults to a fresh temporary directory.")
	rootCmd.PersistentFlags().BoolVar(&includeRuntime, "include-runtime", false, "Add the wasm runtime blobs to the archive.")
	rootCmd.PersistentFlags().StringVarP(&keysPath, "keys", "p", "zarf/keys/", "Path to the directory with signing keys.")
	rootCmd.PersistentFlags().StringVarP(&keyName, "key", "k", "", "Name of the signing key. Releases are unsigned when empty.")
}

var rootCmd = &cobra.Command{
	Use:   "releaser",
	Short: "MathChain release pipeline",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// execute wraps a command body with logger construction and teardown so
// each command gets the same startup and shutdown sequence.
func execute(name string, fn func(log *zap.SugaredLogger) error) {
	log, err := logger.New("RELEASER")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := fn(log); err != nil {
		log.Errorw(name, "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

// loadConfig reads the release configuration file, falling back to the
// built-in defaults when no file exists at the configured path.
func loadConfig() (config.Config, error) {
	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			return config.Default(), nil
		}
		return config.Config{}, err
	}

	return config.Load(configPath)
}

// loadSigningKey resolves the signing key from the keystore when a key
// name was provided.
func loadSigningKey() (*ecdsa.PrivateKey, error) {
	if keyName == "" {
		return nil, nil
	}

	ks, err := keystore.New(keysPath)
	if err != nil {
		return nil, err
	}

	return ks.Load(keyName)
}

// stageWorkDir returns the working directory for the single stage
// commands, which operate against the current directory by default the
// way the old release script did.
func stageWorkDir() string {
	if workDir != "" {
		return workDir
	}
	return "."
}

// stageReleaseDir returns the release staging directory for the commands
// that operate on a finished staging tree.
func stageReleaseDir(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return filepath.Join(stageWorkDir(), "release")
}
