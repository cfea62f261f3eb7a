// Package scheduler runs pipeline jobs on cron expressions.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"NewsPlanner/internal/ports"
)

// CronScheduler drives registered jobs on standard 5-field cron expressions
// in a configured timezone.
type CronScheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler in the given location.
func NewCronScheduler(loc *time.Location, logger *slog.Logger) *CronScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &CronScheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		logger: logger,
	}
}

// Add registers a named job under a cron expression. Jobs added after Start
// are picked up on the fly.
func (c *CronScheduler) Add(name, spec string, job func()) error {
	if job == nil {
		return fmt.Errorf("job %s is nil", name)
	}
	_, err := c.cron.AddFunc(spec, func() {
		started := time.Now()
		job()
		if c.logger != nil {
			c.logger.Debug("job finished", "job", name, "took", time.Since(started))
		}
	})
	if err != nil {
		return fmt.Errorf("add job %s (%q): %w", name, spec, err)
	}
	return nil
}

// Start launches the cron loop in its own goroutine.
func (c *CronScheduler) Start(ctx context.Context) error {
	c.cron.Start()
	if c.logger != nil {
		c.logger.Info("scheduler started", "jobs", len(c.cron.Entries()))
	}
	return nil
}

// Stop halts scheduling and waits for running jobs, bounded by ctx.
func (c *CronScheduler) Stop(ctx context.Context) error {
	done := c.cron.Stop().Done()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
