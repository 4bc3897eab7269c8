package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"vivbliss/mongo-init/internal/config"
	"vivbliss/mongo-init/internal/telemetry"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	// cfg is populated by PersistentPreRunE and shared with all subcommands.
	cfg *config.Config

	// app holds all wired dependencies; populated by PersistentPreRunE for
	// commands annotated with needsApp.
	app *AppContext
)

// needsApp marks commands that run against MongoDB. Others (help,
// completion) get a logger only and never open a client.
const needsApp = "mongo-init/needs-app"

func requiresApp(cmd *cobra.Command) bool {
	return cmd.Annotations[needsApp] == "true"
}

var rootCmd = &cobra.Command{
	Use:   "mongo-init",
	Short: "Provision the application's MongoDB account on first start",
	Long: `mongo-init creates the application user in MongoDB: one account with
readWrite on one database. The database, username and password come from
MONGO_DB, MONGO_APP_USERNAME and MONGO_APP_PASSWORD, falling back to
vivbliss / vivbliss_app / vivbliss_secret.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		initLogger(logLevel)
		if !requiresApp(cmd) {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		// --log-level flag takes precedence over value in config file.
		if cmd.Flags().Changed("log-level") {
			cfg.Telemetry.LogLevel = logLevel
		} else if cfg.Telemetry.LogLevel != "" {
			initLogger(cfg.Telemetry.LogLevel)
		}

		app, err = buildAppContext(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("building app context: %w", err)
		}

		return nil
	}

	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(serverCmd)
}

// Execute is the entry point called by main. SIGINT and SIGTERM cancel the
// command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// initLogger installs the JSON logger on stderr; stdout is reserved for
// command results.
func initLogger(level string) {
	slog.SetDefault(telemetry.NewLogger(os.Stderr, telemetry.ParseLevel(level)))
}
