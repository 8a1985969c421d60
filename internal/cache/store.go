package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by a Store when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is the backing key-value store of the cache. Set must be atomic
// per key so readers never see a partially written value.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every key starting with prefix and reports how many.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	// Keys lists live keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}
