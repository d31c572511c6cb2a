package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/the-erin-collective/comrade-sub004/internal/config"
)

func newProviderCmd(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Manage model providers",
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			providerType, _ := cmd.Flags().GetString("type")
			vendor, _ := cmd.Flags().GetString("vendor")
			apiKey, _ := cmd.Flags().GetString("api-key")
			endpoint, _ := cmd.Flags().GetString("endpoint")
			host, _ := cmd.Flags().GetString("host")
			port, _ := cmd.Flags().GetInt("port")
			protocol, _ := cmd.Flags().GetString("protocol")

			provider, err := app.manager.CreateProvider(config.NewProviderParams{
				Name:     args[0],
				Type:     config.ProviderType(providerType),
				Vendor:   vendor,
				APIKey:   apiKey,
				Endpoint: endpoint,
				Host:     host,
				Port:     port,
				Protocol: protocol,
			})
			if err != nil {
				return err
			}
			fmt.Printf("created provider %s\n", provider.ID)
			return nil
		},
	}
	createCmd.Flags().String("type", string(config.ProviderCloud), "provider type: cloud or local-network")
	createCmd.Flags().String("vendor", "", "vendor key, e.g. openai, anthropic, ollama")
	createCmd.Flags().String("api-key", "", "credential stored in the secret store")
	createCmd.Flags().String("endpoint", "", "endpoint URL for local-network providers")
	createCmd.Flags().String("host", "", "host for local-network providers")
	createCmd.Flags().Int("port", 0, "port for local-network providers")
	createCmd.Flags().String("protocol", "", "protocol for local-network providers")
	cmd.AddCommand(createCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			providers, err := app.manager.ListProviders()
			if err != nil {
				return err
			}
			return json.NewEncoder(os.Stdout).Encode(providers)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "activate <id>",
		Short: "Activate a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.manager.ToggleProviderStatus(args[0], true)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "deactivate <id>",
		Short: "Deactivate a provider and its agents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.manager.ToggleProviderStatus(args[0], false); err != nil {
				return err
			}
			return app.manager.HandleProviderDeactivation(args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a provider, its credential and its agents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.manager.DeleteProvider(args[0]); err != nil {
				return err
			}
			return app.manager.HandleProviderDeletion(args[0])
		},
	})

	return cmd
}
