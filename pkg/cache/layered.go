package cache

import (
	"context"
	"errors"
	"time"
)

// Layered reads through a fast local cache backed by a shared remote
// one. Writes go to both; local misses that hit remote are backfilled.
type Layered struct {
	local  Service
	remote Service
}

// NewLayered composes a local and a remote cache.
func NewLayered(local, remote Service) *Layered {
	return &Layered{local: local, remote: remote}
}

func (l *Layered) Get(ctx context.Context, key string) ([]byte, error) {
	if v, err := l.local.Get(ctx, key); err == nil {
		return v, nil
	}
	v, err := l.remote.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	// Short local TTL keeps the layers loosely consistent.
	_ = l.local.Set(ctx, key, v, 30*time.Second)
	return v, nil
}

func (l *Layered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	localErr := l.local.Set(ctx, key, value, ttl)
	remoteErr := l.remote.Set(ctx, key, value, ttl)
	return errors.Join(localErr, remoteErr)
}

func (l *Layered) Delete(ctx context.Context, key string) error {
	return errors.Join(l.local.Delete(ctx, key), l.remote.Delete(ctx, key))
}

func (l *Layered) Close() error {
	return errors.Join(l.local.Close(), l.remote.Close())
}
