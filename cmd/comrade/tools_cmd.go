package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/the-erin-collective/comrade-sub004/internal/agent/ports"
)

func newToolsCmd(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect and run individual tools",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered tools and their parameter schemas",
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			defs := app.registry.Schemas()
			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(defs)
			}
			for _, def := range defs {
				fmt.Print(formatToolDefinition(def))
			}
			return nil
		},
	})
	cmd.PersistentFlags().Bool("json", false, "emit JSON")

	runCmd := &cobra.Command{
		Use:   "run <name> [--args JSON]",
		Short: "Execute a single tool through the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawArgs, _ := cmd.Flags().GetString("args")
			callArgs := map[string]any{}
			if strings.TrimSpace(rawArgs) != "" {
				if err := json.Unmarshal([]byte(rawArgs), &callArgs); err != nil {
					return fmt.Errorf("parse --args: %w", err)
				}
			}
			result := app.registry.Execute(cmd.Context(), ports.ToolCall{
				ID:        uuid.NewString(),
				Name:      args[0],
				Arguments: callArgs,
			})
			return printResult(result)
		},
	}
	runCmd.Flags().String("args", "", "tool arguments as a JSON object")
	cmd.AddCommand(runCmd)

	return cmd
}

func newExecCmd(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <batch.json>",
		Short: "Execute a batch of tool calls under bounded concurrency",
		Long: `Reads a JSON array of {"id", "name", "arguments"} objects and runs them
through the batch executor. Successes and failures are reported together;
result order follows completion, not submission.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read batch file: %w", err)
			}
			var calls []ports.ToolCall
			if err := json.Unmarshal(data, &calls); err != nil {
				return fmt.Errorf("parse batch file: %w", err)
			}
			for i := range calls {
				if calls[i].ID == "" {
					calls[i].ID = uuid.NewString()
				}
			}

			batch := app.executor.ExecuteToolCalls(cmd.Context(), calls)
			for _, result := range batch.Results {
				if err := printResult(result); err != nil {
					return err
				}
			}
			for _, execErr := range batch.Errors {
				fmt.Fprintf(os.Stderr, "error: %v\n", execErr)
			}
			if len(batch.Errors) > 0 {
				return fmt.Errorf("%d of %d call(s) failed", len(batch.Errors), len(calls))
			}
			return nil
		},
	}
	return cmd
}

func printResult(result *ports.ToolResult) error {
	return json.NewEncoder(os.Stdout).Encode(result)
}

// formatToolDefinition renders one tool and its parameters, sorted by name,
// for `tools list`.
func formatToolDefinition(def ports.ToolDefinition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-14s %s\n", def.Name, def.Description)

	names := make([]string, 0, len(def.Parameters.Properties))
	for name := range def.Parameters.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop := def.Parameters.Properties[name]
		required := ""
		if contains(def.Parameters.Required, name) {
			required = " (required)"
		}
		fmt.Fprintf(&b, "    %s: %s%s - %s\n", name, prop.Type, required, prop.Description)
	}
	return b.String()
}

func contains(list []string, item string) bool {
	for _, entry := range list {
		if entry == item {
			return true
		}
	}
	return false
}
