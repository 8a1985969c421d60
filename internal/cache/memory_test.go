package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreEvictsLeastRecentlyUsed(t *testing.T) {
	s := NewMemoryStore(2, 0)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, s.Set(ctx, "b", []byte("2"), time.Minute))

	// Reading a makes b the least recently used entry.
	_, err := s.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "c", []byte("3"), time.Minute))

	assert.Equal(t, 2, s.Len())
	_, err = s.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrMiss)
	for _, k := range []string{"a", "c"} {
		_, err := s.Get(ctx, k)
		assert.NoError(t, err, k)
	}
}

func TestMemoryStoreSweepsExpired(t *testing.T) {
	s := NewMemoryStore(10, 10*time.Millisecond)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "short", []byte("x"), 20*time.Millisecond))
	require.NoError(t, s.Set(ctx, "long", []byte("y"), time.Minute))

	assert.Eventually(t, func() bool {
		return s.Len() == 1
	}, time.Second, 10*time.Millisecond)

	_, err := s.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStoreDeletePrefix(t *testing.T) {
	s := NewMemoryStore(10, 0)
	defer s.Close()
	ctx := context.Background()

	for _, k := range []string{"learning_library:all", "learning_library:all:page:2", "learning_library:id:1"} {
		require.NoError(t, s.Set(ctx, k, []byte("v"), time.Minute))
	}

	n, err := s.DeletePrefix(ctx, "learning_library:all")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	keys, err := s.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"learning_library:id:1"}, keys)
}

func TestMemoryStoreCloseIsIdempotent(t *testing.T) {
	s := NewMemoryStore(10, time.Millisecond)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
