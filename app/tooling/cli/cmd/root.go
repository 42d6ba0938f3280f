// Package cmd contains the operator commands for a ledger node.
package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

// urlEnv overrides the default node url.
const urlEnv = "LEDGER_URL"

var (
	url     string
	timeout time.Duration
)

func init() {
	defaultURL := "http://localhost:5002"
	if v := os.Getenv(urlEnv); v != "" {
		defaultURL = v
	}

	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", defaultURL, "Url of the node.")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 60*time.Second, "Timeout of a call to the node.")
}

var rootCmd = &cobra.Command{
	Use:          "cli",
	Short:        "Operate a ledger node",
	SilenceUsage: true,
}

// Execute runs the command named on the command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
