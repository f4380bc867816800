// Package usage enforces provider token budgets and reports usage.
package usage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/domain/usage"
	"github.com/kailas-cloud/pdfchat/internal/domain/usage/budget"
	"github.com/kailas-cloud/pdfchat/internal/metrics"
)

// Budget scopes.
const (
	ScopeEmbedding = "embedding"
	ScopeChat      = "chat"
)

// Action defines behavior when the token budget is exceeded.
type Action string

const (
	// ActionWarn logs a warning but allows the request.
	ActionWarn Action = "warn"
	// ActionReject blocks the request with domain.ErrQuotaExceeded.
	ActionReject Action = "reject"
)

const persistTimeout = 2 * time.Second

// Tracker is an in-memory token budget for one scope with optional persistence.
// Check never leaves the process; Record updates memory first and then
// writes behind to the store.
type Tracker struct {
	mu             sync.Mutex
	scope          string
	dailyUsed      int64
	monthlyUsed    int64
	dailyLimit     int64
	monthlyLimit   int64
	action         Action
	lastDayReset   time.Time
	lastMonthReset time.Time
	store          BudgetStore
	logger         *zap.Logger
	now            func() time.Time
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

// NewTracker creates a tracker. Zero limits mean unlimited.
func NewTracker(
	scope string, dailyLimit, monthlyLimit int64, action Action,
	logger *zap.Logger, opts ...TrackerOption,
) *Tracker {
	t := &Tracker{
		scope:        scope,
		dailyLimit:   dailyLimit,
		monthlyLimit: monthlyLimit,
		action:       action,
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	now := t.now().UTC()
	t.lastDayReset, _ = usage.PeriodDay.Bounds(now)
	t.lastMonthReset, _ = usage.PeriodMonth.Bounds(now)
	t.publish()
	return t
}

// Scope returns the budget scope.
func (t *Tracker) Scope() string { return t.scope }

// WithStore attaches a persistence store and loads the current counters.
func (t *Tracker) WithStore(ctx context.Context, store BudgetStore) *Tracker {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.store = store
	now := t.now().UTC()
	if val, err := store.Get(ctx, t.dailyKey(now)); err == nil {
		t.dailyUsed = val
	} else {
		t.logger.Warn("Failed to load daily budget from store", zap.String("scope", t.scope), zap.Error(err))
	}
	if val, err := store.Get(ctx, t.monthlyKey(now)); err == nil {
		t.monthlyUsed = val
	} else {
		t.logger.Warn("Failed to load monthly budget from store", zap.String("scope", t.scope), zap.Error(err))
	}

	t.logger.Info("Budget loaded from store",
		zap.String("scope", t.scope),
		zap.Int64("daily_used", t.dailyUsed),
		zap.Int64("monthly_used", t.monthlyUsed),
	)
	t.publishLocked()
	return t
}

func (t *Tracker) dailyKey(at time.Time) string {
	return fmt.Sprintf("%sbudget:%s:daily:%s", domain.KeyPrefix, t.scope, at.Format("2006-01-02"))
}

func (t *Tracker) monthlyKey(at time.Time) string {
	return fmt.Sprintf("%sbudget:%s:monthly:%s", domain.KeyPrefix, t.scope, at.Format("2006-01"))
}

// Check reports whether a new request fits the budget.
func (t *Tracker) Check(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetIfNeeded()

	dailyExceeded := t.dailyLimit > 0 && t.dailyUsed >= t.dailyLimit
	monthlyExceeded := t.monthlyLimit > 0 && t.monthlyUsed >= t.monthlyLimit
	if !dailyExceeded && !monthlyExceeded {
		return nil
	}

	if t.action == ActionReject {
		return fmt.Errorf("%s budget: %w", t.scope, domain.ErrQuotaExceeded)
	}

	t.logger.Warn("Token budget exceeded",
		zap.String("scope", t.scope),
		zap.Int64("daily_used", t.dailyUsed),
		zap.Int64("daily_limit", t.dailyLimit),
		zap.Int64("monthly_used", t.monthlyUsed),
		zap.Int64("monthly_limit", t.monthlyLimit),
	)
	return nil
}

// Record adds consumed tokens.
func (t *Tracker) Record(tokens int64) {
	if tokens <= 0 {
		return
	}

	t.mu.Lock()
	t.resetIfNeeded()
	t.dailyUsed += tokens
	t.monthlyUsed += tokens
	t.publishLocked()
	store := t.store
	now := t.now().UTC()
	dailyKey := t.dailyKey(now)
	monthlyKey := t.monthlyKey(now)
	t.mu.Unlock()

	if store == nil {
		return
	}

	// Detached from the request so a cancelled turn still counts its tokens.
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := store.IncrBy(ctx, dailyKey, tokens); err != nil {
		t.logger.Warn("Failed to persist daily budget", zap.String("key", dailyKey), zap.Error(err))
	}
	if err := store.IncrBy(ctx, monthlyKey, tokens); err != nil {
		t.logger.Warn("Failed to persist monthly budget", zap.String("key", monthlyKey), zap.Error(err))
	}
}

// Snapshot returns the budget for period.
func (t *Tracker) Snapshot(period usage.Period) budget.Budget {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetIfNeeded()
	_, end := period.Bounds(t.now())
	if period == usage.PeriodMonth {
		return budget.New(t.scope, t.monthlyLimit, t.monthlyUsed, end)
	}
	return budget.New(t.scope, t.dailyLimit, t.dailyUsed, end)
}

// resetIfNeeded zeroes counters when the day or month rolls over.
func (t *Tracker) resetIfNeeded() {
	now := t.now().UTC()
	today, _ := usage.PeriodDay.Bounds(now)
	thisMonth, _ := usage.PeriodMonth.Bounds(now)

	if today.After(t.lastDayReset) {
		t.dailyUsed = 0
		t.lastDayReset = today
	}
	if thisMonth.After(t.lastMonthReset) {
		t.monthlyUsed = 0
		t.lastMonthReset = thisMonth
	}
}

func (t *Tracker) publish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.publishLocked()
}

func (t *Tracker) publishLocked() {
	if t.dailyLimit > 0 {
		metrics.BudgetTokensRemaining.WithLabelValues(t.scope, string(usage.PeriodDay)).
			Set(float64(max(0, t.dailyLimit-t.dailyUsed)))
	}
	if t.monthlyLimit > 0 {
		metrics.BudgetTokensRemaining.WithLabelValues(t.scope, string(usage.PeriodMonth)).
			Set(float64(max(0, t.monthlyLimit-t.monthlyUsed)))
	}
}
