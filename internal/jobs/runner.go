// Package jobs executes queued pipeline runs in a small worker pool.
package jobs

import (
	"context"
	"sync"
	"time"

	applogger "ShopIntent/pkg/logger"
	"ShopIntent/pkg/queue"
)

// Runner drains the job queue and dispatches messages to registered jobs
// by type. Failed messages are re-enqueued with a delay until the retry
// limit is reached.
type Runner struct {
	q          queue.Queue
	jobs       map[string]queue.Job
	l          *applogger.Logger
	workers    int
	retryLimit int
	retryDelay time.Duration

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func NewRunner(q queue.Queue, l *applogger.Logger, workers, retryLimit int, retryDelay time.Duration, jobs ...queue.Job) *Runner {
	if workers <= 0 {
		workers = 2
	}
	if retryDelay <= 0 {
		retryDelay = 30 * time.Second
	}
	byType := make(map[string]queue.Job, len(jobs))
	for _, j := range jobs {
		byType[j.Type()] = j
	}
	return &Runner{
		q:          q,
		jobs:       byType,
		l:          l,
		workers:    workers,
		retryLimit: retryLimit,
		retryDelay: retryDelay,
	}
}

// Start launches the worker pool. Non-blocking.
func (r *Runner) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx, i)
	}
	if r.l != nil {
		r.l.Info("job runner started", applogger.Int("workers", r.workers))
	}
}

// Stop cancels the workers and waits for in-flight jobs to finish.
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *Runner) worker(ctx context.Context, id int) {
	defer r.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		msg, err := r.q.Dequeue(ctx, 2*time.Second)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if r.l != nil {
				r.l.Error("dequeue error", applogger.Int("worker", id), applogger.Error(err))
			}
			time.Sleep(time.Second)
			continue
		}
		if msg == nil {
			continue
		}
		r.dispatch(ctx, msg)
	}
}

func (r *Runner) dispatch(ctx context.Context, msg *queue.Message) {
	job, ok := r.jobs[msg.Type]
	if !ok {
		if r.l != nil {
			r.l.Warn("unknown job type dropped",
				applogger.String("job_id", msg.ID),
				applogger.String("type", msg.Type),
			)
		}
		return
	}

	start := time.Now()
	err := job.Run(ctx, msg)
	if err == nil {
		if r.l != nil {
			r.l.Info("job finished",
				applogger.String("job_id", msg.ID),
				applogger.String("type", msg.Type),
				applogger.Duration("duration_ms", time.Since(start)),
			)
		}
		return
	}

	if r.l != nil {
		r.l.Error("job failed",
			applogger.String("job_id", msg.ID),
			applogger.String("type", msg.Type),
			applogger.Int("attempts", msg.Attempts),
			applogger.Error(err),
		)
	}
	if msg.Attempts+1 >= r.retryLimit {
		if r.l != nil {
			r.l.Warn("job dropped after retry limit",
				applogger.String("job_id", msg.ID),
				applogger.String("type", msg.Type),
			)
		}
		return
	}

	retry := *msg
	retry.Attempts++
	select {
	case <-ctx.Done():
		return
	case <-time.After(r.retryDelay):
	}
	if err := r.q.Enqueue(ctx, retry); err != nil && r.l != nil {
		r.l.Error("re-enqueue failed", applogger.String("job_id", msg.ID), applogger.Error(err))
	}
}
