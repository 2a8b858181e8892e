// Package queue provides a Redis-backed job queue for asynchronous
// pipeline runs submitted over the API.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Message is one queued job.
type Message struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	Attempts   int             `json:"attempts"`
}

// ParsePayload decodes the message payload into out.
func (m *Message) ParsePayload(out interface{}) error {
	if len(m.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(m.Payload, out); err != nil {
		return fmt.Errorf("parse payload: %w", err)
	}
	return nil
}

// Queue is the job queue contract.
type Queue interface {
	Enqueue(ctx context.Context, msg Message) error
	Dequeue(ctx context.Context, timeout time.Duration) (*Message, error)
	Length(ctx context.Context) (int64, error)
	Close() error
}

// Job is a unit of work executed by the worker pool.
type Job interface {
	Type() string
	Run(ctx context.Context, msg *Message) error
}
