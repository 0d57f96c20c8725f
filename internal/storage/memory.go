package storage

import (
	"sort"

	"github.com/patrickmn/go-cache"
)

// MemoryStore is a process-local Store. Entries never expire.
type MemoryStore struct {
	items *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: cache.New(cache.NoExpiration, 0)}
}

func (s *MemoryStore) Get(key string) ([]byte, error) {
	value, found := s.items.Get(key)
	if !found {
		return nil, ErrNotFound
	}

	data := value.([]byte)
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemoryStore) Put(key string, value []byte) error {
	data := make([]byte, len(value))
	copy(data, value)
	s.items.Set(key, data, cache.NoExpiration)
	return nil
}

func (s *MemoryStore) Keys() ([]string, error) {
	items := s.items.Items()
	keys := make([]string, 0, len(items))
	for key := range items {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
