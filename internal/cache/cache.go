// Package cache is an expiring read-through cache with prefix invalidation.
//
// A Cache is built once at startup around a Store (in-process or Redis),
// injected into the services that need it and closed on shutdown.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache memoizes producer results with a TTL.
type Cache struct {
	store      Store
	defaultTTL time.Duration
	logger     *zap.Logger
	flight     singleflight.Group
	// generation is bumped by every invalidation; a producer that started
	// under an older generation does not write its result back.
	generation atomic.Uint64

	hits   atomic.Uint64
	misses atomic.Uint64
	faults atomic.Uint64
}

// New creates a cache over store. defaultTTL applies when a call passes ttl <= 0.
func New(store Store, defaultTTL time.Duration, logger *zap.Logger) *Cache {
	return &Cache{store: store, defaultTTL: defaultTTL, logger: logger}
}

// WithCache returns the live entry under key, or runs producer, stores its
// result for ttl and returns it. Concurrent misses on one key share a single
// producer run. Producer errors are returned and never cached.
//
// Store faults never fail the read: when the store cannot be read the
// producer is called directly, nothing is written and the fault is logged.
func WithCache[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, producer func(context.Context) (T, error)) (T, error) {
	var zero T
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	value, hit, faulted := lookup[T](ctx, c, key)
	if hit {
		return value, nil
	}
	if faulted {
		return producer(ctx)
	}

	gen := c.generation.Load()
	v, err, _ := c.flight.Do(flightKey(key, gen), func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		value, err := producer(fctx)
		if err != nil {
			return nil, err
		}
		if c.generation.Load() != gen {
			c.logger.Debug("cache invalidated during read, result not stored", zap.String("key", key))
			return value, nil
		}
		c.put(fctx, key, value, ttl)
		if c.generation.Load() != gen {
			// An invalidation landed while the entry was written.
			_ = c.store.Delete(fctx, key)
		}
		return value, nil
	})
	if err != nil {
		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		// Another caller shared the key with a different type.
		return producer(ctx)
	}
	return value, nil
}

// flightKey separates producer runs started before and after an invalidation.
func flightKey(key string, gen uint64) string {
	return strconv.FormatUint(gen, 10) + "|" + key
}

// lookup reports a hit, or whether the store itself failed.
func lookup[T any](ctx context.Context, c *Cache, key string) (value T, hit, faulted bool) {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.fault("get", key, err)
			return value, false, true
		}
		c.misses.Add(1)
		c.logger.Debug("cache miss", zap.String("key", key))
		return value, false, false
	}

	if err := json.Unmarshal(raw, &value); err != nil {
		// A corrupt entry is replaced by the next write.
		c.fault("decode", key, err)
		c.misses.Add(1)
		return value, false, false
	}

	c.hits.Add(1)
	c.logger.Debug("cache hit", zap.String("key", key))
	return value, true, false
}

func (c *Cache) put(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.fault("encode", key, err)
		return
	}
	if err := c.store.Set(ctx, key, raw, ttl); err != nil {
		c.fault("set", key, err)
		return
	}
	c.logger.Debug("cache set", zap.String("key", key), zap.Duration("ttl", ttl))
}

func (c *Cache) fault(op, key string, err error) {
	c.faults.Add(1)
	c.logger.Warn("cache fault, falling back to source",
		zap.String("op", op), zap.String("key", key), zap.Error(err))
}

// Invalidate removes the given keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	c.generation.Add(1)
	if err := c.store.Delete(ctx, keys...); err != nil {
		c.fault("delete", strings.Join(keys, ","), err)
	}
}

// InvalidatePrefix removes every key starting with prefix.
func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) int {
	c.generation.Add(1)
	n, err := c.store.DeletePrefix(ctx, prefix)
	if err != nil {
		c.fault("delete-prefix", prefix, err)
		return 0
	}
	c.logger.Debug("cache invalidated", zap.String("prefix", prefix), zap.Int("keys", n))
	return n
}

// Flush removes every key in the store.
func (c *Cache) Flush(ctx context.Context) (int, error) {
	c.generation.Add(1)
	n, err := c.store.DeletePrefix(ctx, "")
	if err != nil {
		return 0, err
	}
	c.logger.Info("cache flushed", zap.Int("keys", n))
	return n, nil
}

// Stats describes the cache contents and counters.
type Stats struct {
	TotalKeys     int            `json:"totalKeys"`
	KeysBySection map[string]int `json:"keysBySection"`
	SampleKeys    []string       `json:"sampleKeys"`
	Hits          uint64         `json:"hits"`
	Misses        uint64         `json:"misses"`
	Faults        uint64         `json:"faults"`
}

const sampleKeyCount = 20

// Stats reports live keys grouped by section (text up to the first ':').
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	keys, err := c.store.Keys(ctx, "")
	if err != nil {
		return Stats{}, err
	}
	sort.Strings(keys)

	sections := make(map[string]int)
	for _, k := range keys {
		section, _, _ := strings.Cut(k, ":")
		sections[section+":"]++
	}

	sample := keys
	if len(sample) > sampleKeyCount {
		sample = sample[:sampleKeyCount]
	}

	return Stats{
		TotalKeys:     len(keys),
		KeysBySection: sections,
		SampleKeys:    sample,
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Faults:        c.faults.Load(),
	}, nil
}

// Close releases the store.
func (c *Cache) Close() error {
	return c.store.Close()
}
