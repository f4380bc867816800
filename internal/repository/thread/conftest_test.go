package thread

import (
	"context"
	"sync"
	"time"
)

// listStore is an in-memory stand-in for the Redis list commands.
type listStore struct {
	mu       sync.Mutex
	lists    map[string][][]byte
	expires  map[string]time.Duration
	rpushErr error
}

func newListStore() *listStore {
	return &listStore{lists: map[string][][]byte{}, expires: map[string]time.Duration{}}
}

func (s *listStore) RPush(_ context.Context, key string, values ...[]byte) error {
	if s.rpushErr != nil {
		return s.rpushErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[key] = append(s.lists[key], values...)
	return nil
}

func (s *listStore) LRange(_ context.Context, key string, _, _ int64) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.lists[key]...), nil
}

func (s *listStore) Expire(_ context.Context, key string, ttl time.Duration, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expires[key] = ttl
	return nil
}
