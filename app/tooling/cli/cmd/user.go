package cmd

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	userName    string
	userBalance float64
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts.",
}

var userAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Mine an add_user contract.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id: %w", err)
		}

		doc := struct {
			ID             int64   `json:"id"`
			Name           string  `json:"name"`
			InitialBalance float64 `json:"initial_balance"`
		}{
			ID:             id,
			Name:           userName,
			InitialBalance: userBalance,
		}
		return call(cmd, http.MethodPost, "/v1/users", doc)
	},
}

var userGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Print one or every user account.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return call(cmd, http.MethodGet, "/v1/users", nil)
		}

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid user id: %w", err)
		}
		return call(cmd, http.MethodGet, fmt.Sprintf("/v1/users/%d", id), nil)
	},
}

var transferCmd = &cobra.Command{
	Use:   "transfer <from_id> <to_id> <amount>",
	Short: "Mine a transfer contract.",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid from id: %w", err)
		}

		to, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid to id: %w", err)
		}

		amount, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid amount: %w", err)
		}

		doc := struct {
			FromID int64   `json:"from_id"`
			ToID   int64   `json:"to_id"`
			Amount float64 `json:"amount"`
		}{
			FromID: from,
			ToID:   to,
			Amount: amount,
		}
		return call(cmd, http.MethodPost, "/v1/users/transfer", doc)
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(transferCmd)
	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userGetCmd)
	userAddCmd.Flags().StringVarP(&userName, "name", "n", "", "Name of the user.")
	userAddCmd.Flags().Float64VarP(&userBalance, "balance", "b", 0, "Initial balance of the user.")
	userAddCmd.MarkFlagRequired("name")
}
