package main

import (
	"context"
	"fmt"

	"github.com/jonathan/cleanops/internal/db"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long:  "Applies the embedded SQL migrations that have not yet been recorded in schema_migrations, in version order.",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requireDatabaseURL(cfg); err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	applied, err := runMigrations(cmd.Context(), cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date")
		return nil
	}
	for _, version := range applied {
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %s\n", version)
	}
	return nil
}

func migrate(ctx context.Context, databaseURL string, logger *zap.SugaredLogger) error {
	_, err := runMigrations(ctx, databaseURL, logger)
	return err
}

func runMigrations(ctx context.Context, databaseURL string, logger *zap.SugaredLogger) ([]string, error) {
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	sqlDB := database.SQLDB()
	defer func() { _ = sqlDB.Close() }()

	applied, err := db.Migrate(ctx, sqlDB, logger)
	if err != nil {
		return applied, fmt.Errorf("migration failed: %w", err)
	}
	return applied, nil
}
