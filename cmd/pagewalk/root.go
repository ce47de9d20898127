package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/pagewalk/internal/config"
	"github.com/nao1215/pagewalk/internal/log"
)

// NewRootCmd creates the root command for pagewalk.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagewalk",
		Short: "Walk paginated listings backward and submit every item",
		Long: `pagewalk crawls a site's listing pages from the newest page backward by
following each page's "previous page" link until the oldest page is reached.
Every item found on the way is fetched, its title, duration and tags are
extracted, and the record is submitted to a GraphQL endpoint, stored in a
local SQLite database or printed as JSON lines.

Sites are described by YAML source definitions; no code change is needed to
add a new one. Run 'pagewalk sources' to list the known sources and
'pagewalk init --source example' to start a new definition.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .pagewalk in current or home directory)")
	cmd.PersistentFlags().String("env-file", config.DefaultEnvFile,
		"Load environment variables from this file if it exists")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewProbeCmd())
	cmd.AddCommand(NewSourcesCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogger creates the secure logger selected by the global flags and
// installs it as the default.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose") //nolint:errcheck // persistent flag always exists
	asJSON, _ := cmd.Flags().GetBool("log-json") //nolint:errcheck // persistent flag always exists

	var logger *slog.Logger
	if asJSON {
		logger = log.NewSecureJSONLogger(cmd.ErrOrStderr(), verbose)
	} else {
		logger = log.NewSecureLogger(cmd.ErrOrStderr(), verbose)
	}
	slog.SetDefault(logger)
	return logger
}

// loadSettings builds a Config from defaults, the .env file, the
// environment and the configuration file. Command flags are applied by
// the caller afterwards.
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, err
	}
	if envFile != "" {
		if err := config.LoadEnv(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicit path must exist; the default locations are optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
	}

	return cfg, nil
}
