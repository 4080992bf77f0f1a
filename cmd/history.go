package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/tradeforge/stratgen/internal/model"
	"github.com/tradeforge/stratgen/internal/store"
)

var (
	histUser   string
	histStatus string
	histLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect persisted generations",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored generations",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if env.History == nil {
			return eris.New("history is disabled, set store.driver in config")
		}

		gens, err := env.History.ListGenerations(cmd.Context(), store.Filter{
			UserID: histUser,
			Status: model.GenerationStatus(histStatus),
			Limit:  histLimit,
		})
		if err != nil {
			return err
		}

		for _, g := range gens {
			fmt.Printf("%-40s %-10s %-10s %s\n",
				g.ID, g.UserID, g.Status, g.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one stored generation as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if env.History == nil {
			return eris.New("history is disabled, set store.driver in config")
		}

		g, err := env.History.GetGeneration(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if g == nil {
			return eris.Errorf("generation not found: %s", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(g), "encode generation")
	},
}

func init() {
	historyListCmd.Flags().StringVar(&histUser, "user", "", "filter by user id")
	historyListCmd.Flags().StringVar(&histStatus, "status", "", "filter by status (completed, degraded)")
	historyListCmd.Flags().IntVar(&histLimit, "limit", 50, "maximum rows")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}
