package usage

import (
	"context"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// BudgetStore persists budget counters. IncrBy may be called repeatedly.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// Model is the chat model a BudgetedModel guards.
type Model interface {
	Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error)
}
