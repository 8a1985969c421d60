package cache

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(client)
	t.Cleanup(func() { s.Close() })
	return mr, s
}

func TestRedisStoreGetSet(t *testing.T) {
	mr, s := setupRedisStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, s.Set(ctx, "learning_library:id:1", []byte(`{"id":1}`), time.Minute))
	got, err := s.Get(ctx, "learning_library:id:1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(got))

	mr.FastForward(2 * time.Minute)
	_, err = s.Get(ctx, "learning_library:id:1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisStorePrefixOps(t *testing.T) {
	_, s := setupRedisStore(t)
	ctx := context.Background()

	keys := []string{
		"learning_library:all",
		"learning_library:all:page:1",
		"learning_library:all:page:2",
		"learning_library:id:3",
		"sessions:abc",
	}
	for _, k := range keys {
		require.NoError(t, s.Set(ctx, k, []byte("v"), time.Minute))
	}

	got, err := s.Keys(ctx, "learning_library:")
	require.NoError(t, err)
	sort.Strings(got)
	assert.Equal(t, keys[:4], got)

	n, err := s.DeletePrefix(ctx, "learning_library:all")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rest, err := s.Keys(ctx, "")
	require.NoError(t, err)
	sort.Strings(rest)
	assert.Equal(t, []string{"learning_library:id:3", "sessions:abc"}, rest)
}

func TestRedisBackedCacheExpiry(t *testing.T) {
	mr, s := setupRedisStore(t)
	c := New(s, time.Minute, zap.NewNop())
	ctx := context.Background()
	producer, calls := counter([]article{{ID: 1, Title: "Bedtime"}})

	v, err := WithCache(ctx, c, "learning_library:id:1", 10*time.Minute, producer)
	require.NoError(t, err)
	assert.Equal(t, "Bedtime", v[0].Title)

	_, _ = WithCache(ctx, c, "learning_library:id:1", 10*time.Minute, producer)
	assert.Equal(t, int32(1), calls.Load())

	mr.FastForward(11 * time.Minute)
	_, _ = WithCache(ctx, c, "learning_library:id:1", 10*time.Minute, producer)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRedisUnavailableFallsBack(t *testing.T) {
	mr, s := setupRedisStore(t)
	c := New(s, time.Minute, zap.NewNop())
	ctx := context.Background()
	producer, calls := counter([]article{{ID: 2}})

	mr.Close()

	v, err := WithCache(ctx, c, "learning_library:id:2", time.Minute, producer)
	require.NoError(t, err)
	assert.Equal(t, []article{{ID: 2}}, v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `a\*b\?c\[d\]`, escapeGlob("a*b?c[d]"))
}
