// Package budget describes the token budget state of one provider scope.
package budget

import "time"

// Budget is a snapshot of one scope's token budget for a period.
type Budget struct {
	scope     string
	limit     int64
	used      int64
	resetsAt  time.Time
	exhausted bool
}

// New creates a Budget snapshot. A zero limit means unlimited.
func New(scope string, limit, used int64, resetsAt time.Time) Budget {
	return Budget{
		scope:     scope,
		limit:     limit,
		used:      used,
		resetsAt:  resetsAt,
		exhausted: limit > 0 && used >= limit,
	}
}

// Scope names the provider the budget applies to ("embedding" or "chat").
func (b Budget) Scope() string { return b.scope }

// TokensLimit returns the token cap, 0 when unlimited.
func (b Budget) TokensLimit() int64 { return b.limit }

// TokensUsed returns tokens consumed in the period.
func (b Budget) TokensUsed() int64 { return b.used }

// TokensRemaining returns tokens left, or -1 when unlimited.
func (b Budget) TokensRemaining() int64 {
	if b.limit == 0 {
		return -1
	}
	return max(0, b.limit-b.used)
}

// IsExhausted reports whether the budget is spent.
func (b Budget) IsExhausted() bool { return b.exhausted }

// ResetsAt returns when the counter rolls over.
func (b Budget) ResetsAt() time.Time { return b.resetsAt }
