package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var (
	peerRole  string
	peerLocal bool
)

var peersCmd = &cobra.Command{
	Use:   "peers",
	Short: "Print the peers known to the node.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodGet, "/v1/node/peers", nil)
	},
}

var peersRegisterCmd = &cobra.Command{
	Use:   "register <address>...",
	Short: "Register addresses with the node.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc := struct {
			Nodes   []string `json:"nodes"`
			Role    string   `json:"role,omitempty"`
			IsLocal bool     `json:"is_local"`
		}{
			Nodes:   args,
			Role:    peerRole,
			IsLocal: peerLocal,
		}
		return call(cmd, http.MethodPost, "/v1/node/peers/register", doc)
	},
}

func init() {
	rootCmd.AddCommand(peersCmd)
	peersCmd.AddCommand(peersRegisterCmd)
	peersRegisterCmd.Flags().StringVarP(&peerRole, "role", "r", "", "Role declared for the addresses.")
	peersRegisterCmd.Flags().BoolVarP(&peerLocal, "local", "l", false, "Record the address as the identity of the node.")
}
