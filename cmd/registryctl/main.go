// Package main implements registryctl, the admin CLI for the attendance bot.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lobatera/asistencia/config"
	"github.com/lobatera/asistencia/internal/calendar"
	"github.com/lobatera/asistencia/pkg/database"
)

var (
	// dayFlag is the civil date a command works on; empty means today.
	dayFlag string
	verbose bool
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "registryctl",
	Short: "Admin CLI for the attendance bot",
	Long: `registryctl runs maintenance tasks against the attendance database and
the Telegram Bot API: schema migrations, webhook management, active event
inspection, record lookup and attendance reports.

Configuration is read from the same environment (and .env file) as the server.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(webhookCmd)
	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(reportCmd)
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, _ := zap.NewDevelopment()
	return logger
}

// env bundles what most subcommands need.
type env struct {
	cfg    *config.Config
	clock  *calendar.Clock
	logger *zap.Logger
}

func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Workflow.Location()
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, clock: calendar.NewClock(loc), logger: newLogger()}, nil
}

func (e *env) connect(ctx context.Context) (*pgxpool.Pool, error) {
	return database.NewPostgresPool(ctx, e.cfg.Database.DSN(), e.logger)
}

// resolveDay parses --day or falls back to today in the registry's time zone.
func resolveDay(flag string, clock *calendar.Clock) (time.Time, error) {
	if flag == "" {
		return clock.Today(), nil
	}
	day, err := calendar.Parse(flag)
	if err != nil {
		return time.Time{}, fmt.Errorf("--day must be YYYY-MM-DD: %w", err)
	}
	return day, nil
}
