package usage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/domain/usage"
)

type mockModel struct {
	calls  int
	resp   domain.ChatResponse
	err    error
	health error
}

func (m *mockModel) Complete(context.Context, domain.ChatRequest) (domain.ChatResponse, error) {
	m.calls++
	return m.resp, m.err
}

func (m *mockModel) HealthCheck(context.Context) error { return m.health }

func TestBudgetedModel_RecordsAndRejects(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	tr := newTestTracker(clock, 100, 0, ActionReject)
	inner := &mockModel{resp: domain.ChatResponse{Content: "ok", PromptTokens: 70, CompletionTokens: 30}}
	m := NewBudgetedModel(inner, tr)
	ctx := context.Background()

	resp, err := m.Complete(ctx, domain.ChatRequest{})
	if err != nil || resp.Content != "ok" {
		t.Fatalf("Complete() = %+v, %v", resp, err)
	}
	if used := tr.Snapshot(usage.PeriodDay).TokensUsed(); used != 100 {
		t.Errorf("used = %d, want 100", used)
	}

	if _, err := m.Complete(ctx, domain.ChatRequest{}); !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Errorf("second Complete() error = %v, want ErrQuotaExceeded", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
}

func TestBudgetedModel_ErrorNotRecorded(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	tr := newTestTracker(clock, 100, 0, ActionReject)
	inner := &mockModel{err: domain.ErrModelProviderError, resp: domain.ChatResponse{PromptTokens: 50}}

	if _, err := NewBudgetedModel(inner, tr).Complete(context.Background(), domain.ChatRequest{}); !errors.Is(err, domain.ErrModelProviderError) {
		t.Errorf("error = %v", err)
	}
	if used := tr.Snapshot(usage.PeriodDay).TokensUsed(); used != 0 {
		t.Errorf("used = %d, want 0", used)
	}
}

func TestBudgetedModel_HealthCheckForwards(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	inner := &mockModel{health: errors.New("down")}
	m := NewBudgetedModel(inner, newTestTracker(clock, 0, 0, ActionWarn))
	if err := m.HealthCheck(context.Background()); err == nil {
		t.Error("expected forwarded health error")
	}
}
