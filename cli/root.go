// Package cli implements the cloudmanager command line.
package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/linode/cloudmanager/pkg/config"
	"github.com/linode/cloudmanager/pkg/config/definition"
	"github.com/linode/cloudmanager/pkg/logger"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "cloudmanager",
		Short:             "Sync Linode API resources into a local state tree",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}
	addGlobalFlags(root.PersistentFlags(), definition.CreateRegistry())
	root.AddCommand(
		getCmd(),
		listCmd(),
		createCmd(),
		updateCmd(),
		deleteCmd(),
		waitCmd(),
		treeCmd(),
		metricsCmd(),
	)
	return root
}

// Execute runs the root command and reports a failure on stderr.
func Execute(ctx context.Context, args []string) error {
	root := RootCmd()
	root.SetArgs(args)
	err := categorizeError(root.ExecuteContext(ctx))
	if err != nil {
		asJSON, _ := root.PersistentFlags().GetBool("log-json")
		outputError(root.ErrOrStderr(), err, asJSON)
	}
	return err
}

// addGlobalFlags registers every registry field that declares a CLI flag.
func addGlobalFlags(flags *pflag.FlagSet, registry *definition.Registry) {
	for _, f := range registry.Fields() {
		if f.CLIFlag == "" {
			continue
		}
		switch def := f.Default.(type) {
		case string:
			flags.StringP(f.CLIFlag, f.Shorthand, def, f.Help)
		case int:
			flags.IntP(f.CLIFlag, f.Shorthand, def, f.Help)
		case int64:
			flags.Int64P(f.CLIFlag, f.Shorthand, def, f.Help)
		case bool:
			flags.BoolP(f.CLIFlag, f.Shorthand, def, f.Help)
		case time.Duration:
			flags.DurationP(f.CLIFlag, f.Shorthand, def, f.Help)
		}
	}
	flags.StringP("config", "c", "cloudmanager.yaml", "Path to the config file")
	flags.String("catalog", "", "Path to a resource catalog replacing the built-in Linode catalog")
	flags.String("env-file", ".env", "Dotenv file loaded before the environment is read")
	flags.Bool("color", false, "Colorize JSON output (defaults to on for terminals)")
	flags.Bool("dump-state", false, "Print the state tree after the command")
}

// setup loads configuration from file, dotenv and environment, and changed flags, then
// installs the logger and the config manager in the command context.
func setup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	changed := make(map[string]any)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := loadEnvFile(envFile); err != nil {
		return err
	}
	path, _ := cmd.Flags().GetString("config")
	manager := config.NewManager(nil)
	cfg, err := manager.Load(ctx, config.NewYAMLProvider(path), config.NewCLIProvider(changed))
	if err != nil {
		return err
	}
	log := logger.SetupLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.JSON, cfg.Log.Source)
	ctx = logger.ContextWithLogger(ctx, log)
	ctx = config.ContextWithManager(ctx, manager)
	cmd.SetContext(ctx)
	log.Debug("Configuration loaded", "base_url", cfg.API.BaseURL, "config", path)
	return nil
}
