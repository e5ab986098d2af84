// Package cli provides the inboxwatch command line.
package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/inboxwatch/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

// Persistent flags.
var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "inboxwatch",
	Short: "Authorize Gmail accounts and watch their inboxes",
	Long: `inboxwatch runs the Google OAuth consent handshake for Gmail accounts,
stores the resulting credentials, and registers an inbox watch that publishes
new-mail notifications to a Cloud Pub/Sub topic.

Examples:
  # Serve /auth/init and /auth/callback
  inboxwatch serve

  # Authorize one account from this machine
  inboxwatch authorize

  # Renew watches for every stored account
  inboxwatch watch`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configPath, "config", "c", "", "Path to config file (default ~/.inboxwatch/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "Enable debug logging")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// errNoBootstrap is returned when a command needs services but none were wired.
var errNoBootstrap = errors.New("application not configured")
