package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/motorsport-club/internal/config"
	"github.com/Shivanand-hulikatti/motorsport-club/internal/database"
)

var migrateSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the PostgreSQL schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requirePostgres(); err != nil {
			return err
		}
		return database.Migrate(cfg.Database.MigrationURL())
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requirePostgres(); err != nil {
			return err
		}
		if migrateSteps < 1 {
			return errors.New("--steps must be at least 1")
		}
		return database.MigrateDown(cfg.Database.MigrationURL(), migrateSteps)
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}

func requirePostgres() error {
	if cfg.Database.Driver != config.DriverPostgres {
		return errors.New("migrations need database.driver=postgres")
	}
	return nil
}
