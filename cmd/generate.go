package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/tradeforge/stratgen/internal/model"
)

var (
	genDescription string
	genModels      []string
	genMarket      string
	genTimeframe   string
	genRisk        string
	genTemplate    string
	genUser        string
	genParams      string
	genDialect     bool
	genOptimize    bool
	genFullOutput  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a trading strategy from a description",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		req := model.StrategyRequest{
			Description:     genDescription,
			UserID:          genUser,
			Models:          genModels,
			MarketType:      genMarket,
			Timeframe:       genTimeframe,
			RiskLevel:       genRisk,
			TemplateID:      genTemplate,
			DialectRequired: genDialect,
			Optimize:        genOptimize,
		}
		if genParams != "" {
			if err := json.Unmarshal([]byte(genParams), &req.Parameters); err != nil {
				return eris.Wrap(err, "parse --params")
			}
		}

		resp, err := env.Orchestrator.Generate(ctx, req)
		if err != nil {
			return err
		}

		if genFullOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return eris.Wrap(enc.Encode(resp), "encode response")
		}

		printSummary(resp)
		return nil
	},
}

func printSummary(resp *model.StrategyResponse) {
	fmt.Printf("strategy %s (%.2fs)\n\n", resp.StrategyID, resp.Metadata.TotalTime)
	for _, r := range resp.Results {
		if r.Failed() {
			fmt.Printf("  %-10s FAILED  %s\n", r.Provider, r.Error)
			continue
		}
		status := "valid"
		if r.Validation != nil {
			status = string(r.Validation.Status)
		}
		fmt.Printf("  %-10s %-8s confidence=%.2f time=%.2fs\n", r.Provider, status, r.Confidence, r.ExecutionTime)
	}

	if resp.BestResult == nil {
		fmt.Println("\nno usable candidate was produced")
		return
	}
	fmt.Printf("\nbest: %s\n\n%s\n", resp.BestResult.Provider, resp.BestResult.Code)
}

func init() {
	generateCmd.Flags().StringVarP(&genDescription, "description", "d", "", "strategy description (required)")
	generateCmd.Flags().StringSliceVarP(&genModels, "models", "m", []string{model.WildcardModel}, "providers to use, or 'all'")
	generateCmd.Flags().StringVar(&genMarket, "market", "", "market type (stock, crypto, forex, futures)")
	generateCmd.Flags().StringVar(&genTimeframe, "timeframe", "", "bar timeframe (1m, 1h, 1d, ...)")
	generateCmd.Flags().StringVar(&genRisk, "risk", "", "risk level (low, medium, high)")
	generateCmd.Flags().StringVar(&genTemplate, "template", "", "template id to use as skeleton")
	generateCmd.Flags().StringVar(&genUser, "user", "", "user id recorded with the generation")
	generateCmd.Flags().StringVar(&genParams, "params", "", "strategy parameters as a JSON object")
	generateCmd.Flags().BoolVar(&genDialect, "dialect", true, "require platform dialect compliance")
	generateCmd.Flags().BoolVar(&genOptimize, "optimize", false, "ask providers to optimize thresholds")
	generateCmd.Flags().BoolVar(&genFullOutput, "json", false, "print the full response as JSON")
	_ = generateCmd.MarkFlagRequired("description")
	rootCmd.AddCommand(generateCmd)
}
