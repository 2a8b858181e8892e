package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueueRoundTrip(t *testing.T) {
	q := NewMemoryQueue(4)
	defer q.Close()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, Message{ID: "1", Type: "predict"}))

	msg, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "1", msg.ID)
	assert.Equal(t, "predict", msg.Type)
	assert.False(t, msg.EnqueuedAt.IsZero())
}

func TestMemoryQueueTimeout(t *testing.T) {
	q := NewMemoryQueue(4)
	defer q.Close()

	msg, err := q.Dequeue(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestMemoryQueueLength(t *testing.T) {
	q := NewMemoryQueue(4)
	defer q.Close()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, Message{ID: "1", Type: "train"}))
	require.NoError(t, q.Enqueue(ctx, Message{ID: "2", Type: "train"}))

	n, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestParsePayload(t *testing.T) {
	raw, err := json.Marshal(map[string]string{"date": "2024-04-10"})
	require.NoError(t, err)

	msg := Message{Payload: raw}
	var out struct {
		Date string `json:"date"`
	}
	require.NoError(t, msg.ParsePayload(&out))
	assert.Equal(t, "2024-04-10", out.Date)

	empty := Message{}
	require.NoError(t, empty.ParsePayload(&out))

	bad := Message{Payload: json.RawMessage("{")}
	assert.Error(t, bad.ParsePayload(&out))
}
