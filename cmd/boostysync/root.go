package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "boostysync",
	Short: "Personal archive downloader for Boosty creators",
	Long: `boostysync mirrors a creator's subscription content to local disk.

It walks the platform's paginated content streams (posts, photos, videos,
audio), keeps durable per-stream cursors so repeated runs only fetch the
delta since the last sync, and downloads media with bounded concurrency.

Credentials (session cookie and authorization token) unlock paid content,
audio and attached files. Store them with 'boostysync auth login', or set
BOOSTY_COOKIE and BOOSTY_AUTHORIZATION, or put them in the config file.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: ./config.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}
