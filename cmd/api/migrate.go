package main

import (
	"github.com/spf13/cobra"

	"github.com/aaronsabellek/TravelSketcher-Website/internal/persistence/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := postgres.NewPool(cmd.Context(), cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		return postgres.Migrate(cmd.Context(), pool)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the migration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := postgres.NewPool(cmd.Context(), cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		return postgres.MigrationStatus(cmd.Context(), pool)
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)
}
