package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps entries in Redis. Capacity is governed by the server's
// maxmemory policy.
type RedisStore struct {
	c *redis.Client
}

// NewRedisStore wraps a client.
func NewRedisStore(c *redis.Client) *RedisStore {
	return &RedisStore{c: c}
}

func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return val, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.c.Set(ctx, key, value, ttl).Err()
}

func (r *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.c.Del(ctx, keys...).Err()
}

func (r *RedisStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := r.Keys(ctx, prefix)
	if err != nil {
		return 0, err
	}
	if err := r.Delete(ctx, keys...); err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Keys walks the keyspace with SCAN rather than KEYS so large keyspaces do
// not block the server.
func (r *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	pattern := escapeGlob(prefix) + "*"

	// SCAN may report a key more than once.
	seen := make(map[string]struct{})
	var keys []string
	var cursor uint64
	for {
		batch, next, err := r.c.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range batch {
			if _, dup := seen[k]; !dup {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

func (r *RedisStore) Close() error {
	return r.c.Close()
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
