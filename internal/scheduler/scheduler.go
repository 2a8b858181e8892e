// Package scheduler drives the recurring pipeline runs: daily prediction,
// monthly training, and the offline comparison that follows it.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	applogger "ShopIntent/pkg/logger"
)

// Scheduler wraps gocron with context-aware pipeline tasks.
type Scheduler struct {
	s gocron.Scheduler
	l *applogger.Logger
}

func New(l *applogger.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{s: s, l: l}, nil
}

// AddCron registers a named task on a cron expression. Task errors are
// logged, never fatal; the next tick runs regardless.
func (sc *Scheduler) AddCron(spec, name string, task func(context.Context) error) error {
	_, err := sc.s.NewJob(
		gocron.CronJob(spec, false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
			defer cancel()
			start := time.Now()
			if err := task(ctx); err != nil {
				if sc.l != nil {
					sc.l.Error("scheduled task failed",
						applogger.String("task", name),
						applogger.Error(err),
					)
				}
				return
			}
			if sc.l != nil {
				sc.l.Info("scheduled task finished",
					applogger.String("task", name),
					applogger.Duration("duration_ms", time.Since(start)),
				)
			}
		}),
		gocron.WithName(name),
	)
	if err != nil {
		return fmt.Errorf("register task %q: %w", name, err)
	}
	return nil
}

// Start begins executing registered tasks. Non-blocking.
func (sc *Scheduler) Start() {
	sc.s.Start()
	if sc.l != nil {
		jobs := sc.s.Jobs()
		sc.l.Info("scheduler started", applogger.Int("tasks", len(jobs)))
	}
}

// Stop shuts the scheduler down, waiting for running tasks.
func (sc *Scheduler) Stop() error {
	return sc.s.Shutdown()
}
