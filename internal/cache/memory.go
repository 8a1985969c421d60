package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryStore keeps entries in process. When maxKeys is reached the least
// recently used entry is evicted to make room.
type MemoryStore struct {
	c    *ttlcache.Cache[string, []byte]
	stop chan struct{}
	once sync.Once
}

// NewMemoryStore creates a store holding at most maxKeys entries. Expired
// entries are swept every checkPeriod; they are never returned in between.
func NewMemoryStore(maxKeys int, checkPeriod time.Duration) *MemoryStore {
	s := &MemoryStore{
		c: ttlcache.New[string, []byte](
			ttlcache.WithCapacity[string, []byte](uint64(maxKeys)),
			ttlcache.WithDisableTouchOnHit[string, []byte](),
		),
		stop: make(chan struct{}),
	}
	if checkPeriod > 0 {
		go s.sweep(checkPeriod)
	}
	return s
}

func (s *MemoryStore) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.c.DeleteExpired()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	item := s.c.Get(key)
	if item == nil {
		return nil, ErrMiss
	}
	return item.Value(), nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.c.Set(key, value, ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.c.Delete(k)
	}
	return nil
}

func (s *MemoryStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	keys, _ := s.Keys(ctx, prefix)
	for _, k := range keys {
		s.c.Delete(k)
	}
	return len(keys), nil
}

func (s *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for _, k := range s.c.Keys() {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Len returns the number of live entries.
func (s *MemoryStore) Len() int {
	return len(s.c.Keys())
}

func (s *MemoryStore) Close() error {
	s.once.Do(func() {
		close(s.stop)
		s.c.DeleteAll()
	})
	return nil
}
