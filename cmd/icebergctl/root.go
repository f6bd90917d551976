package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/icebergd/coreberg/catalogstore/sqlite"
	"github.com/icebergd/coreberg/commit"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "icebergctl",
	Short: "Exercise the Iceberg table-format core from the command line",
	Long: `icebergctl drives the table-format core end to end without a server:
it creates tables, commits append snapshots, and inspects the metadata
and manifest files the core produces.

State lives in a single SQLite file (objects plus catalog pointers),
so every command is self-contained.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExecuteWithContext runs the root command with the logger attached to
// the context, so every subcommand shares one logger.
func ExecuteWithContext(ctx context.Context, logger zerolog.Logger) error {
	rootCmd.SetContext(logger.WithContext(ctx))
	return rootCmd.Execute()
}

// openEnv loads the config and opens the SQLite-backed catalog, commit
// engine included. The caller owns closing the returned DB.
func openEnv(cmd *cobra.Command) (*Config, *sqlite.DB, *commit.Engine, error) {
	logger := zerolog.Ctx(cmd.Context())

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	if lvl, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		*logger = logger.Level(lvl)
	}

	db, err := sqlite.Open(cfg.Catalog.Path)
	if err != nil {
		return nil, nil, nil, err
	}

	engine := commit.NewEngine(db.Storage(), db.Pointers(), commit.NewTableLocker(), *logger)
	engine.MaxRetries = cfg.Commit.MaxRetries
	return cfg, db, engine, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".icebergctl.yml", "path to config file")
	rootCmd.AddCommand(tableCmd)
	rootCmd.AddCommand(manifestCmd)
}
