package main

import (
	"log"

	"github.com/SachinRathod0101/Time-left-backend/internal/config"
	"github.com/SachinRathod0101/Time-left-backend/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run PostgreSQL migrations for the payment ledger",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if err := database.MigratePostgres(cfg.PostgresURI); err != nil {
			return err
		}
		log.Println("✅ Migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
}
