package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applogger "ShopIntent/pkg/logger"
	"ShopIntent/pkg/queue"
)

type countingJob struct {
	typ      string
	runs     atomic.Int32
	failFor  int32
	lastSeen atomic.Int32
}

func (j *countingJob) Type() string { return j.typ }

func (j *countingJob) Run(_ context.Context, msg *queue.Message) error {
	n := j.runs.Add(1)
	j.lastSeen.Store(int32(msg.Attempts))
	if n <= j.failFor {
		return errors.New("boom")
	}
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestRunnerDispatchesByType(t *testing.T) {
	q := queue.NewMemoryQueue(8)
	job := &countingJob{typ: "predict"}
	r := NewRunner(q, applogger.Nop(), 1, 3, 10*time.Millisecond, job)

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, queue.Message{ID: "1", Type: "predict"}))

	r.Start(ctx)
	defer r.Stop()

	waitFor(t, func() bool { return job.runs.Load() == 1 })
}

func TestRunnerDropsUnknownType(t *testing.T) {
	q := queue.NewMemoryQueue(8)
	job := &countingJob{typ: "predict"}
	r := NewRunner(q, applogger.Nop(), 1, 3, 10*time.Millisecond, job)

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, queue.Message{ID: "1", Type: "nonsense"}))
	require.NoError(t, q.Enqueue(ctx, queue.Message{ID: "2", Type: "predict"}))

	r.Start(ctx)
	defer r.Stop()

	// The unknown message is skipped, the known one still runs.
	waitFor(t, func() bool { return job.runs.Load() == 1 })
	n, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunnerRetriesUntilSuccess(t *testing.T) {
	q := queue.NewMemoryQueue(8)
	job := &countingJob{typ: "train", failFor: 2}
	r := NewRunner(q, applogger.Nop(), 1, 5, 10*time.Millisecond, job)

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, queue.Message{ID: "1", Type: "train"}))

	r.Start(ctx)
	defer r.Stop()

	waitFor(t, func() bool { return job.runs.Load() == 3 })
	assert.Equal(t, int32(2), job.lastSeen.Load(), "attempts counter travels with the retried message")
}

func TestRunnerDropsAtRetryLimit(t *testing.T) {
	q := queue.NewMemoryQueue(8)
	job := &countingJob{typ: "train", failFor: 100}
	r := NewRunner(q, applogger.Nop(), 1, 2, 10*time.Millisecond, job)

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, queue.Message{ID: "1", Type: "train"}))

	r.Start(ctx)
	defer r.Stop()

	waitFor(t, func() bool { return job.runs.Load() == 2 })
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(2), job.runs.Load(), "message must not be re-enqueued past the limit")
}
