// Package usage holds provider token usage reports.
package usage

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/domain/usage/budget"
)

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod validates a period name. Empty selects PeriodDay.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", fmt.Errorf("period must be %q or %q, got %q: %w", PeriodDay, PeriodMonth, s, domain.ErrInvalidInput)
	}
}

// Bounds returns the UTC period containing t.
func (p Period) Bounds(t time.Time) (start, end time.Time) {
	t = t.UTC()
	if p == PeriodMonth {
		start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0)
	}
	start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// Report is the token usage of every budgeted scope for one period.
type Report struct {
	period  Period
	start   time.Time
	end     time.Time
	budgets []budget.Budget
}

// NewReport creates a usage report.
func NewReport(period Period, start, end time.Time, budgets []budget.Budget) Report {
	return Report{period: period, start: start, end: end, budgets: budgets}
}

// Period returns the aggregation granularity.
func (r *Report) Period() Period { return r.period }

// PeriodStart returns the period start.
func (r *Report) PeriodStart() time.Time { return r.start }

// PeriodEnd returns the period end.
func (r *Report) PeriodEnd() time.Time { return r.end }

// Budgets returns one entry per scope.
func (r *Report) Budgets() []budget.Budget { return r.budgets }
