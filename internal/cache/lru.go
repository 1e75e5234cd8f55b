package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMaxEntries bounds the in-process store when no size is configured.
const DefaultMaxEntries = 1024

// LRUStore is an in-process Store backed by a size-bounded LRU. Eviction of
// cold entries under pressure is acceptable because every entry is
// reconstructible from a fresh generation.
type LRUStore struct {
	entries *lru.Cache[string, string]
}

// NewLRUStore creates a store holding at most maxEntries values.
func NewLRUStore(maxEntries int) (*LRUStore, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	entries, err := lru.New[string, string](maxEntries)
	if err != nil {
		return nil, err
	}
	return &LRUStore{entries: entries}, nil
}

var _ Store = (*LRUStore)(nil)

func (s *LRUStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, ok := s.entries.Get(key)
	return value, ok, nil
}

func (s *LRUStore) Set(ctx context.Context, key, value string) error {
	s.entries.Add(key, value)
	return nil
}

func (s *LRUStore) Delete(ctx context.Context, key string) error {
	s.entries.Remove(key)
	return nil
}

func (s *LRUStore) Keys(ctx context.Context) ([]string, error) {
	return s.entries.Keys(), nil
}
