package storage

import (
	"context"

	"github.com/patrickmn/go-cache"
)

// MemoryStore lives only as long as the process. Used by tests and --ephemeral runs.
type MemoryStore struct {
	cache *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	if x, found := s.cache.Get(key); found {
		return x.(string), true, nil
	}
	return "", false, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.cache.Set(key, value, cache.NoExpiration)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}
