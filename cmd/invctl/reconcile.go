package main

import (
	"fmt"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/config"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/database"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/reports"

	"github.com/spf13/cobra"
)

var (
	reconcileCompany string
	reconcileDryRun  bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compare stored quantities with the transaction ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Open(config.LoadTooling())
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		svc := reports.NewService(db)
		ctx := cmd.Context()

		var runs []reports.Reconciliation
		if reconcileCompany != "" {
			rec, err := svc.Reconcile(ctx, reconcileCompany, !reconcileDryRun)
			if err != nil {
				return err
			}
			runs = append(runs, rec)
		} else {
			if reconcileDryRun {
				return fmt.Errorf("--dry-run needs --company")
			}
			if runs, err = svc.ReconcileAll(ctx); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		for _, r := range runs {
			fmt.Fprintf(out, "company %s: %d items checked, %d drifted\n", r.CompanyID, r.CheckedItems, len(r.Drifts))
			for _, d := range r.Drifts {
				fmt.Fprintf(out, "  %-30s stored=%d ledger=%d diff=%+d\n", d.ItemName, d.StoredQuantity, d.LedgerQuantity, d.Difference())
			}
		}
		return nil
	},
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileCompany, "company", "", "Only reconcile this company id")
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "Report drifts without recording them")
	rootCmd.AddCommand(reconcileCmd)
}
