// Command comrade exposes the tool registry, batch executor and
// provider/agent configuration over a CLI. The same wiring serves an
// embedding caller; the CLI is just the thinnest consumer of it.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/the-erin-collective/comrade-sub004/internal/config"
	"github.com/the-erin-collective/comrade-sub004/internal/shared/logging"
	"github.com/the-erin-collective/comrade-sub004/internal/tools"
	"github.com/the-erin-collective/comrade-sub004/internal/tools/builtin"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	app := &appContext{}

	rootCmd := &cobra.Command{
		Use:   "comrade",
		Short: "Workspace tool execution and provider/agent configuration",
		Long: `comrade runs workspace tools (file access, search, filtered shell) under
bounded concurrency with timeout and retry, and manages the provider/agent
configuration they depend on.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.initialize()
		},
	}

	rootCmd.PersistentFlags().StringVar(&app.workspaceFlag, "workspace", "", "workspace root (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&app.configFlag, "config", "", "config file (default: $HOME/.comrade/config.yaml)")

	rootCmd.AddCommand(newToolsCmd(app))
	rootCmd.AddCommand(newExecCmd(app))
	rootCmd.AddCommand(newProviderCmd(app))
	rootCmd.AddCommand(newAgentCmd(app))
	return rootCmd
}

// appContext holds everything the subcommands share, constructed once in
// PersistentPreRunE.
type appContext struct {
	workspaceFlag string
	configFlag    string

	registry *tools.Registry
	executor *tools.BatchExecutor
	manager  *config.Manager
	logger   logging.Logger
}

func (a *appContext) initialize() error {
	if a.configFlag != "" {
		viper.SetConfigFile(a.configFlag)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".comrade"))
		}
		viper.AddConfigPath(".")
	}
	viper.SetEnvPrefix("COMRADE")
	viper.AutomaticEnv()

	viper.SetDefault("workspace", ".")
	viper.SetDefault("executor.max_concurrent", tools.DefaultMaxConcurrent)
	viper.SetDefault("executor.attempt_timeout", tools.DefaultAttemptTimeout)
	viper.SetDefault("executor.retry_attempts", tools.DefaultMaxRetries)
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.max_size", 256)
	viper.SetDefault("cache.ttl", 5*time.Minute)

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file means defaults; anything else is real.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	a.logger = logging.NewComponentLogger("comrade")

	workspace := a.workspaceFlag
	if workspace == "" {
		workspace = viper.GetString("workspace")
	}

	var registryOpts []tools.RegistryOption
	registryOpts = append(registryOpts, tools.WithLogger(a.logger))
	if viper.GetBool("cache.enabled") {
		cacheCfg := tools.DefaultCacheConfig()
		cacheCfg.MaxSize = viper.GetInt("cache.max_size")
		cacheCfg.TTL = viper.GetDuration("cache.ttl")
		if extra := viper.GetStringSlice("cache.exclude_tools"); len(extra) > 0 {
			cacheCfg.ExcludeTools = append(cacheCfg.ExcludeTools, extra...)
		}
		cache, err := tools.NewResultCache(cacheCfg)
		if err != nil {
			return fmt.Errorf("init result cache: %w", err)
		}
		registryOpts = append(registryOpts, tools.WithResultCache(cache))
	}
	a.registry = tools.NewRegistry(registryOpts...)

	err := builtin.RegisterAll(a.registry, builtin.Config{
		WorkspaceRoot:      workspace,
		ExtraDenyPatterns:  viper.GetStringSlice("shell.deny_patterns"),
		ExtraAllowCommands: viper.GetStringSlice("shell.allow_commands"),
		Logger:             a.logger,
	})
	if err != nil {
		return fmt.Errorf("register builtin tools: %w", err)
	}

	batchOpts := tools.BatchOptions{
		MaxConcurrent:  viper.GetInt("executor.max_concurrent"),
		AttemptTimeout: viper.GetDuration("executor.attempt_timeout"),
		RetryAttempts:  viper.GetInt("executor.retry_attempts"),
		Logger:         a.logger,
	}
	if policyFile := viper.GetString("executor.policy_file"); policyFile != "" {
		policyCfg, err := tools.LoadToolPolicyConfig(policyFile)
		if err != nil {
			return err
		}
		batchOpts.Policy = tools.NewToolPolicy(policyCfg)
	}
	a.executor = tools.NewBatchExecutor(a.registry, batchOpts)

	stateDir, err := configDir()
	if err != nil {
		return err
	}
	store, err := config.NewFileStore(filepath.Join(stateDir, "entities.json"))
	if err != nil {
		return err
	}
	secrets, err := config.NewFileSecretStore(filepath.Join(stateDir, "secrets.json"))
	if err != nil {
		return err
	}
	a.manager = config.NewManager(store, secrets, config.WithManagerLogger(a.logger))
	return nil
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".comrade"), nil
}
