package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/config"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/database"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/jobs"
	"github.com/cylindrical-duck/duck-inventory-systems/internal/reports"

	"github.com/spf13/cobra"
)

var jobName string

var cronStartCmd = &cobra.Command{
	Use:   "cron:start",
	Short: "Start the cron scheduler or run a single job by name",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadTooling()
		db, err := database.Open(cfg)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		registered := []jobs.Job{jobs.Reconcile(reports.NewService(db), cfg.ReconcileCron)}

		if jobName != "" {
			j, ok := jobs.Find(jobName, registered...)
			if !ok {
				return fmt.Errorf("unknown job: %s", jobName)
			}
			fmt.Printf("Running cron job: %s\n", j.Name)
			return j.Run(cmd.Context())
		}

		fmt.Println("Starting cron scheduler...")
		c, err := jobs.Start(registered...)
		if err != nil {
			return err
		}
		defer c.Stop()
		fmt.Println("Cron scheduler started. Press Ctrl+C to exit.")

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		return nil
	},
}

func init() {
	cronStartCmd.Flags().StringVarP(&jobName, "job", "j", "", "Run a single cron job by name and exit")
	rootCmd.AddCommand(cronStartCmd)
}
