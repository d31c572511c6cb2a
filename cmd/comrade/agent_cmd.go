package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/the-erin-collective/comrade-sub004/internal/config"
)

func newAgentCmd(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage agent configurations",
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an agent bound to a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			providerID, _ := cmd.Flags().GetString("provider")
			model, _ := cmd.Flags().GetString("model")
			temperature, _ := cmd.Flags().GetFloat64("temperature")
			maxTokens, _ := cmd.Flags().GetInt("max-tokens")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			systemPrompt, _ := cmd.Flags().GetString("system-prompt")

			agent, err := app.manager.CreateAgent(config.NewAgentParams{
				Name:         args[0],
				ProviderID:   providerID,
				Model:        model,
				Temperature:  temperature,
				MaxTokens:    maxTokens,
				Timeout:      timeout,
				SystemPrompt: systemPrompt,
			})
			if err != nil {
				return err
			}
			fmt.Printf("created agent %s\n", agent.ID)
			return nil
		},
	}
	createCmd.Flags().String("provider", "", "provider id the agent runs against")
	createCmd.Flags().String("model", "", "model identifier")
	createCmd.Flags().Float64("temperature", 0.7, "sampling temperature (0..2)")
	createCmd.Flags().Int("max-tokens", 0, "response token limit (0 uses the default)")
	createCmd.Flags().Duration("timeout", 0, "request timeout (0 uses the default)")
	createCmd.Flags().String("system-prompt", "", "system prompt")
	_ = createCmd.MarkFlagRequired("provider")
	_ = createCmd.MarkFlagRequired("model")
	cmd.AddCommand(createCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			agents, err := app.manager.ListAgents()
			if err != nil {
				return err
			}
			return json.NewEncoder(os.Stdout).Encode(agents)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "activate <id>",
		Short: "Activate an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.manager.ToggleAgentStatus(args[0], true)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "deactivate <id>",
		Short: "Deactivate an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.manager.ToggleAgentStatus(args[0], false)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.manager.DeleteAgent(args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <id>",
		Short: "Check an agent and its provider are both present and active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := app.manager.ValidateAgentWithProvider(args[0])
			if err != nil {
				return err
			}
			if report.IsValid {
				fmt.Println("valid")
				return nil
			}
			for _, reason := range report.Errors {
				fmt.Fprintln(os.Stderr, reason)
			}
			return fmt.Errorf("agent %s failed validation", args[0])
		},
	})

	return cmd
}
