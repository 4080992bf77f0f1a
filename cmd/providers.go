package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Inspect configured generation providers",
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		for _, name := range env.Registry.Names() {
			marker := " "
			if name == cfg.Providers.Primary {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, name)
		}
		return nil
	},
}

var providersVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Probe each provider for reachability",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		status := env.Orchestrator.VerifyAll(cmd.Context())
		failed := 0
		for _, name := range env.Registry.Names() {
			state := "ok"
			if !status[name] {
				state = "unreachable"
				failed++
			}
			fmt.Printf("%-10s %s\n", name, state)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d providers unreachable", failed, len(status))
		}
		return nil
	},
}

func init() {
	providersCmd.AddCommand(providersListCmd)
	providersCmd.AddCommand(providersVerifyCmd)
	rootCmd.AddCommand(providersCmd)
}
