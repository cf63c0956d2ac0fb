// Package jobs runs background work on cron schedules.
package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cylindrical-duck/duck-inventory-systems/internal/reports"

	"github.com/robfig/cron/v3"
)

// Job is one named unit of scheduled work.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// Reconcile replays every company's ledger and records drifts.
func Reconcile(svc *reports.Service, schedule string) Job {
	return Job{
		Name:     "reconcile",
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			started := time.Now()
			runs, err := svc.ReconcileAll(ctx)
			if err != nil {
				return err
			}
			drifted := 0
			for _, r := range runs {
				drifted += len(r.Drifts)
			}
			log.Printf("[jobs] reconcile: %d companies, %d drifted items, took %s", len(runs), drifted, time.Since(started).Round(time.Millisecond))
			return nil
		},
	}
}

// Start registers jobs on a new scheduler and starts it. Jobs with an empty
// schedule are skipped.
func Start(jobs ...Job) (*cron.Cron, error) {
	c := cron.New()
	for _, j := range jobs {
		if j.Schedule == "" {
			log.Printf("[jobs] %s disabled", j.Name)
			continue
		}
		job := j
		if _, err := c.AddFunc(job.Schedule, func() {
			if err := job.Run(context.Background()); err != nil {
				log.Printf("[jobs] %s failed: %v", job.Name, err)
			}
		}); err != nil {
			return nil, fmt.Errorf("register job %s: %w", job.Name, err)
		}
		log.Printf("[jobs] %s scheduled at %q", job.Name, job.Schedule)
	}
	c.Start()
	return c, nil
}

// Find returns the job called name.
func Find(name string, jobs ...Job) (Job, bool) {
	for _, j := range jobs {
		if j.Name == name {
			return j, true
		}
	}
	return Job{}, false
}
