package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pandayo-labs/veilsdk/config"
	_ "github.com/pandayo-labs/veilsdk/internal/cryptoinit" // optional signer registration
	"github.com/pandayo-labs/veilsdk/internal/logging"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "vaultctl",
	Short: "Vault SDK CLI - account, group, and content-key operations",
	Long: `vaultctl drives the vault SDK's credential, group-key, and content
encryption engines against an in-memory test server.

This tool supports:
- Symmetric content encryption and decryption (content encrypt|decrypt)
- A full end-to-end demo of the register/login/encrypt flow against a
  local fake server (demo)`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.LoaderOptions{ConfigDir: configDir})
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger, err := logging.FromLevelFormat(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		logging.Configure(logger)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "config", "directory to load environment-specific YAML config from")
}
