package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/packvault/packvault/internal/config"
	"github.com/packvault/packvault/internal/db"
	"github.com/packvault/packvault/internal/logger"
	"github.com/spf13/cobra"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(cfg *config.Config, database *sqlx.DB) error {
				err := db.RunMigrations(database.DB, cfg.DBDriver)
				if err != nil {
					return err
				}
				return printVersion(cmd, cfg, database)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(cfg *config.Config, database *sqlx.DB) error {
				err := db.MigrateDown(database.DB, cfg.DBDriver)
				if err != nil {
					return err
				}
				return printVersion(cmd, cfg, database)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(cfg *config.Config, database *sqlx.DB) error {
				return printVersion(cmd, cfg, database)
			})
		},
	})

	return cmd
}

func withDatabase(fn func(cfg *config.Config, database *sqlx.DB) error) error {
	cfg := config.LoadDatabase()
	logger.Init(cfg.IsDevelopment(), "")

	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return err
	}
	defer db.Close(database)

	return fn(cfg, database)
}

func printVersion(cmd *cobra.Command, cfg *config.Config, database *sqlx.DB) error {
	version, err := db.MigrationVersion(database.DB, cfg.DBDriver)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", version)
	return nil
}
