package domain

import (
	"context"
	"sync/atomic"
)

type usageKey struct{}

// Usage collects provider token consumption for one request.
// The HTTP handler places it in the context; services add to it; the handler
// reports the totals in response headers.
type Usage struct {
	embeddingTokens atomic.Int64
	modelTokens     atomic.Int64
	embedded        atomic.Bool
}

// NewContextWithUsage returns a context carrying a fresh usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext returns the collector, or nil when none is attached.
func UsageFromContext(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// AddEmbeddingTokens records embedding tokens. Safe on a nil receiver.
func (u *Usage) AddEmbeddingTokens(n int) {
	if u == nil {
		return
	}
	u.embeddingTokens.Add(int64(n))
	u.embedded.Store(true)
}

// AddModelTokens records chat model tokens. Safe on a nil receiver.
func (u *Usage) AddModelTokens(n int) {
	if u == nil {
		return
	}
	u.modelTokens.Add(int64(n))
}

// EmbeddingTokens returns the recorded embedding tokens.
func (u *Usage) EmbeddingTokens() int64 { return u.embeddingTokens.Load() }

// ModelTokens returns the recorded chat model tokens.
func (u *Usage) ModelTokens() int64 { return u.modelTokens.Load() }

// Embedded reports whether any embedding call happened, cache hits included.
func (u *Usage) Embedded() bool { return u.embedded.Load() }
