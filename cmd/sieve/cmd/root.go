// Package cmd implements the sieve command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solatis/sieve/internal/core/config"
	"github.com/solatis/sieve/internal/core/db"
	"github.com/solatis/sieve/internal/dates"
	"github.com/solatis/sieve/internal/filter"
)

const Version = "0.1.0"

// app carries global flags and shared state for one command invocation.
type app struct {
	configFile string
	dbURL      string
	logLevel   string
	logFormat  string

	logger *slog.Logger
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "sieve",
		Short:         "Filter and bulk-edit tasks with a small query language",
		Long:          `sieve evaluates queries like "status = open AND due < today" against todos, projects, areas or arbitrary JSON records.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(cmd.ErrOrStderr(), a.logLevel, a.logFormat)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&a.dbURL, "db-url", "", "database connection URL (sqlite://path or postgres://...)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "text", "log format (json, text)")

	rootCmd.AddCommand(
		newQueryCmd(a),
		newBulkCmd(a),
		newMigrateCmd(a),
		newServeCmd(a),
		newKeygenCmd(),
	)
	return rootCmd
}

// Execute runs the command line against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q (expected json or text)", format)
	}
}

// loadConfig resolves configuration with cmd's flags taking precedence.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(a.configFile, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// engine builds a query engine under cfg's limits.
func (a *app) engine(cfg *config.Config) *filter.Engine {
	return filter.NewEngine(
		filter.WithLogger(a.logger),
		filter.WithResolver(dates.NewResolver()),
		filter.WithLimits(cfg.Query.MaxLength, cfg.Query.MaxCost),
	)
}

// openStore opens the task store. The schema must already be current.
func (a *app) openStore(ctx context.Context, cfg *config.Config) (*db.Store, error) {
	database, err := db.Open(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	statuses, err := db.MigrateStatus(ctx, database)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, s := range statuses {
		if !s.Applied {
			database.Close()
			return nil, fmt.Errorf("migration %s not applied - run 'sieve migrate' first", s.ID)
		}
	}

	store, err := db.NewStore(database)
	if err != nil {
		database.Close()
		return nil, err
	}
	return store, nil
}
