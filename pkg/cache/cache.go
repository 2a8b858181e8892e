// Package cache provides a small cache abstraction with in-memory and
// Redis backends, used to serve repeated score lookups without hitting
// the warehouse.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss indicates the key is not present.
var ErrCacheMiss = errors.New("cache miss")

// Service is the cache contract.
type Service interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
