package memory

import (
	"context"
	"sync"

	"github.com/kailas-cloud/pdfchat/internal/domain/message"
)

// ThreadStore keeps one append-only history per thread ID.
// Threads are created on first append and never evicted.
type ThreadStore struct {
	mu      sync.RWMutex
	threads map[string][]message.Message
}

// NewThreadStore creates an empty store.
func NewThreadStore() *ThreadStore {
	return &ThreadStore{threads: make(map[string][]message.Message)}
}

// History returns a copy of the thread's messages in append order.
// An unknown thread has an empty history.
func (s *ThreadStore) History(_ context.Context, threadID string) ([]message.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.threads[threadID]
	out := make([]message.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Append adds messages to the end of the thread.
func (s *ThreadStore) Append(_ context.Context, threadID string, msgs ...message.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads[threadID] = append(s.threads[threadID], msgs...)
	return nil
}
