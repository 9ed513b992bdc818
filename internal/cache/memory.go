package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps cached pages in process memory. Used when no Redis is
// configured; entries are lost on restart and not shared across replicas.
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore creates a store whose entries default to ttl and are
// purged every 2*ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: gocache.New(ttl, ttl*2)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, found := s.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	return b, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.cache.Set(key, value, ttl)
	return nil
}

func (s *MemoryStore) Flush(_ context.Context) (int, error) {
	n := s.cache.ItemCount()
	s.cache.Flush()
	return n, nil
}

func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}
