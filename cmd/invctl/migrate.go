package main

import (
	"fmt"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/config"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Open(config.LoadTooling())
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		fmt.Println("Migration complete.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
