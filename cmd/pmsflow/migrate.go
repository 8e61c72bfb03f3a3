package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/chairside/pmsflow/internal/config"
	"github.com/chairside/pmsflow/internal/state"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run local state database migrations",
		Long: `Initialize or update the local state database schema. Other commands run
migrations automatically; this exists for checking a database ahead of an
upgrade.`,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	settings, err := config.Load()
	if err != nil {
		return err
	}

	slog.Info("Running state migrations", "database", settings.DatabasePath)

	store, err := state.NewSQLiteStore(settings.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("State database is up to date", "version", state.ExpectedSchemaVersion)
	return nil
}
