package usage

import (
	"context"

	"github.com/kailas-cloud/pdfchat/internal/domain"
)

// BudgetedModel checks the chat budget before every completion and records
// prompt plus completion tokens after it.
type BudgetedModel struct {
	inner   Model
	tracker *Tracker
}

// NewBudgetedModel wraps inner with tracker.
func NewBudgetedModel(inner Model, tracker *Tracker) *BudgetedModel {
	return &BudgetedModel{inner: inner, tracker: tracker}
}

// Complete runs one model round within the budget.
func (m *BudgetedModel) Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	if err := m.tracker.Check(ctx); err != nil {
		return domain.ChatResponse{}, err
	}
	resp, err := m.inner.Complete(ctx, req)
	if err != nil {
		return domain.ChatResponse{}, err //nolint:wrapcheck // transparent decorator
	}
	m.tracker.Record(int64(resp.PromptTokens + resp.CompletionTokens))
	return resp, nil
}

// HealthCheck forwards to the inner model when it can check itself.
func (m *BudgetedModel) HealthCheck(ctx context.Context) error {
	if hc, ok := m.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
