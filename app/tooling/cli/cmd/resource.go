package cmd

import (
	"fmt"
	"net/http"
	neturl "net/url"
	"strconv"

	"github.com/spf13/cobra"
)

var resourceCmd = &cobra.Command{
	Use:   "resource [city_id]",
	Short: "Print one or every resource allocation.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return call(cmd, http.MethodGet, "/v1/resources", nil)
		}

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid city id: %w", err)
		}
		return call(cmd, http.MethodGet, fmt.Sprintf("/v1/resources/%d", id), nil)
	},
}

var resourceUpdateCmd = &cobra.Command{
	Use:   "update <city_id> <risk_level>",
	Short: "Mine an update_resource_allocation contract.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid city id: %w", err)
		}
		return call(cmd, http.MethodPost, fmt.Sprintf("/v1/resources/%d/%s", id, neturl.PathEscape(args[1])), nil)
	},
}

var requestCmd = &cobra.Command{
	Use:   "request <city_id>",
	Short: "Request the allocation of a city as a requester.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid city id: %w", err)
		}
		return call(cmd, http.MethodPost, fmt.Sprintf("/v1/requests/%d", id), nil)
	},
}

func init() {
	rootCmd.AddCommand(resourceCmd)
	rootCmd.AddCommand(requestCmd)
	resourceCmd.AddCommand(resourceUpdateCmd)
}
