package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the full chain of the node.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodGet, "/v1/node/chain", nil)
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the tip hash and length of the chain.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodGet, "/v1/node/chain/summary", nil)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the status of the node.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodGet, "/v1/node/status", nil)
	},
}

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Sync, mine the pending pool and broadcast the block.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodPost, "/v1/node/mine", nil)
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull the longest valid chain from the peers.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodGet, "/v1/node/sync", nil)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Print and clear the propagation metrics.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodGet, "/v1/node/metrics", nil)
	},
}

func init() {
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(mineCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(metricsCmd)
}
