package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/tradeforge/stratgen/internal/catalog"
	"github.com/tradeforge/stratgen/internal/model"
)

var (
	tmplCategory   string
	tmplMarket     string
	tmplTimeframe  string
	tmplDifficulty string
	tmplTag        string
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Browse and manage the strategy template catalog",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates, optionally filtered",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		templates := env.Catalog.List(catalog.Filter{
			Category:   tmplCategory,
			MarketType: tmplMarket,
			Timeframe:  tmplTimeframe,
			Difficulty: tmplDifficulty,
			Tag:        tmplTag,
		})
		printTemplates(templates)
		return nil
	},
}

var templatesSearchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search templates by name and description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		printTemplates(env.Catalog.Search(args[0]))
		return nil
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one template as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		t := env.Catalog.Get(args[0])
		if t == nil {
			return eris.Errorf("template not found: %s", args[0])
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(t), "encode template")
	},
}

var templatesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a user template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if !env.Catalog.Delete(args[0]) {
			return eris.Errorf("template %s not found or is built-in", args[0])
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

func printTemplates(templates []model.StrategyTemplate) {
	if len(templates) == 0 {
		fmt.Println("no templates")
		return
	}
	for _, t := range templates {
		kind := "user"
		if t.Builtin {
			kind = "builtin"
		}
		fmt.Printf("%-28s %-8s %-14s %s\n", t.ID, kind, t.Category, t.Name)
	}
}

func init() {
	templatesListCmd.Flags().StringVar(&tmplCategory, "category", "", "filter by category")
	templatesListCmd.Flags().StringVar(&tmplMarket, "market", "", "filter by market type")
	templatesListCmd.Flags().StringVar(&tmplTimeframe, "timeframe", "", "filter by timeframe")
	templatesListCmd.Flags().StringVar(&tmplDifficulty, "difficulty", "", "filter by difficulty")
	templatesListCmd.Flags().StringVar(&tmplTag, "tag", "", "filter by tag")

	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesSearchCmd)
	templatesCmd.AddCommand(templatesShowCmd)
	templatesCmd.AddCommand(templatesDeleteCmd)
	rootCmd.AddCommand(templatesCmd)
}
