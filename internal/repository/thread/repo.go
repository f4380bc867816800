// Package thread keeps conversation histories in Redis lists, one list per
// thread, one JSON-encoded message per element.
package thread

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/domain/message"
)

const keyPrefix = domain.KeyPrefix + "thread:"

// store is the consumer interface for thread logs (ISP).
type store interface {
	RPush(ctx context.Context, key string, values ...[]byte) error
	LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Repo implements conversation memory.
type Repo struct {
	store store
	ttl   time.Duration
}

// Option configures the repository.
type Option func(*Repo)

// WithTTL expires an idle thread ttl after its last append. Zero keeps threads forever.
func WithTTL(ttl time.Duration) Option {
	return func(r *Repo) { r.ttl = ttl }
}

// New creates a thread repository.
func New(s store, opts ...Option) *Repo {
	r := &Repo{store: s}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// History returns every message of the thread in append order.
func (r *Repo) History(ctx context.Context, threadID string) ([]message.Message, error) {
	key := threadKey(threadID)
	raw, err := r.store.LRange(ctx, key, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("lrange %s: %w", key, err)
	}

	msgs := make([]message.Message, 0, len(raw))
	for i, data := range raw {
		m, err := message.Unmarshal(data)
		if err != nil {
			return nil, fmt.Errorf("thread %s entry %d: %w", threadID, i, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// Append pushes messages to the thread tail in one RPUSH.
func (r *Repo) Append(ctx context.Context, threadID string, msgs ...message.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	values := make([][]byte, len(msgs))
	for i, m := range msgs {
		data, err := message.Marshal(m)
		if err != nil {
			return err
		}
		values[i] = data
	}

	key := threadKey(threadID)
	if err := r.store.RPush(ctx, key, values...); err != nil {
		return fmt.Errorf("rpush %s: %w", key, err)
	}
	if r.ttl > 0 {
		if err := r.store.Expire(ctx, key, r.ttl, false); err != nil {
			return fmt.Errorf("expire %s: %w", key, err)
		}
	}
	return nil
}

func threadKey(threadID string) string {
	return keyPrefix + threadID
}
