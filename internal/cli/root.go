// Package cli implements the dealdb command.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aqasim81/dealfinder-db/internal/config"
)

const version = "0.2.0"

// AppConfig holds the loaded configuration, set during PersistentPreRunE.
var AppConfig *config.Config //nolint:gochecknoglobals // standard Cobra pattern for shared config

// Logger is the structured logger built from AppConfig, set during PersistentPreRunE.
var Logger = slog.New(slog.DiscardHandler) //nolint:gochecknoglobals // shared with subcommands like AppConfig

// rootCmd is the base command for the dealdb CLI.
var rootCmd = &cobra.Command{ //nolint:gochecknoglobals // standard Cobra pattern
	Use:     "dealdb",
	Version: version,
	Short:   "Database setup and migrations for the deal finder",
	Long: `dealdb applies the SQL files in the migrations directory to the deal
finder's PostgreSQL/PostGIS database in filename order, recording each file
in schema_migrations so it runs at most once. It also lints files for
statements that break on retry and runs post-load maintenance.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}

		logger, err := newLogger(cmd.ErrOrStderr(), AppConfig.LogLevel, AppConfig.LogFormat)
		if err != nil {
			return err
		}

		Logger = logger

		return nil
	},
}

func init() { //nolint:gochecknoinits // standard Cobra pattern for flag registration
	rootCmd.PersistentFlags().String("config", config.DefaultConfigFile, "path to configuration file")
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string")
	rootCmd.PersistentFlags().String("migrations-dir", "", "path to migration files")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")
}

// Execute runs the root command. Called from main. Interrupts cancel the
// command's context so an in-flight statement is abandoned and its
// transaction rolled back.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads configuration with precedence: flag > env > file.
func loadConfig(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	allowMissing := !cmd.Flags().Changed("config")

	cfg, err := config.Load(configPath, allowMissing)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if err := config.MergeEnv(cfg); err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	mergeFlags(cmd, cfg)

	AppConfig = cfg

	return nil
}

// mergeFlags overrides config with explicitly-set CLI flags.
func mergeFlags(cmd *cobra.Command, cfg *config.Config) {
	overrides := []struct {
		flag string
		dst  *string
	}{
		{"database-url", &cfg.DatabaseURL},
		{"migrations-dir", &cfg.MigrationsDir},
		{"log-level", &cfg.LogLevel},
		{"log-format", &cfg.LogFormat},
	}

	for _, s := range overrides {
		if cmd.Flags().Lookup(s.flag) != nil && cmd.Flags().Changed(s.flag) {
			*s.dst, _ = cmd.Flags().GetString(s.flag)
		}
	}
}
