package usage

import (
	"context"
	"time"

	"github.com/kailas-cloud/pdfchat/internal/domain/usage"
	"github.com/kailas-cloud/pdfchat/internal/domain/usage/budget"
)

// Service handles usage reporting.
type Service struct {
	trackers []*Tracker
	now      func() time.Time
}

// New creates a Service over the configured trackers. With none, reports
// list no budgets.
func New(trackers ...*Tracker) *Service {
	return &Service{trackers: trackers, now: time.Now}
}

// GetReport builds a usage report for period.
func (s *Service) GetReport(_ context.Context, period usage.Period) usage.Report {
	start, end := period.Bounds(s.now())
	budgets := make([]budget.Budget, 0, len(s.trackers))
	for _, t := range s.trackers {
		budgets = append(budgets, t.Snapshot(period))
	}
	return usage.NewReport(period, start, end, budgets)
}
