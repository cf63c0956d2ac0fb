package main

import (
	"fmt"
	"os"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/config"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/customfields"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/database"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/inventory"

	"github.com/spf13/cobra"
)

var (
	exportCompany string
	exportOut     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a company's inventory to an XLSX file",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Open(config.LoadTooling())
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		ctx := cmd.Context()
		svc := inventory.NewService(db, customfields.NewService(db))
		items, err := svc.List(ctx, exportCompany, inventory.Filter{})
		if err != nil {
			return err
		}

		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := inventory.WriteWorkbook(f, items); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d items written to %s\n", len(items), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportCompany, "company", "", "Company id")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "inventory.xlsx", "Output file")
	exportCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(exportCmd)
}
