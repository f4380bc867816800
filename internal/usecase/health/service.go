// Package health aggregates readiness checks of storage and providers.
package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Check names reported by the service.
const (
	CheckDatabase  = "database"
	CheckEmbedding = "embedding"
	CheckChat      = "chat"
)

const defaultCheckTimeout = 5 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type check struct {
	name string
	fn   func(ctx context.Context) error
}

// Service coordinates health checks.
type Service struct {
	checks  []check
	timeout time.Duration
}

// Option registers a check.
type Option func(*Service)

// WithDatabase checks a storage backend. Nil is ignored.
func WithDatabase(p Pinger) Option {
	return func(s *Service) {
		if p != nil {
			s.checks = append(s.checks, check{name: CheckDatabase, fn: p.Ping})
		}
	}
}

// WithEmbedding checks the embedding provider. Nil is ignored.
func WithEmbedding(c ProviderChecker) Option {
	return func(s *Service) {
		if c != nil {
			s.checks = append(s.checks, check{name: CheckEmbedding, fn: c.HealthCheck})
		}
	}
}

// WithChat checks the chat model provider. Nil is ignored.
func WithChat(c ProviderChecker) Option {
	return func(s *Service) {
		if c != nil {
			s.checks = append(s.checks, check{name: CheckChat, fn: c.HealthCheck})
		}
	}
}

// WithTimeout bounds each individual check.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a Service.
func New(opts ...Option) *Service {
	s := &Service{timeout: defaultCheckTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Names lists the registered checks.
func (s *Service) Names() []string {
	names := make([]string, len(s.checks))
	for i, c := range s.checks {
		names[i] = c.name
	}
	sort.Strings(names)
	return names
}

// Check runs all checks concurrently. Any failure degrades the status.
func (s *Service) Check(ctx context.Context) Report {
	results := make([]CheckResult, len(s.checks))

	var wg sync.WaitGroup
	for i, c := range s.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			if err := c.fn(cctx); err != nil {
				logger.FromContext(ctx).Warn("health check failed", zap.String("check", c.name), zap.Error(err))
				results[i] = CheckError
				return
			}
			results[i] = CheckOK
		}()
	}
	wg.Wait()

	checks := make(map[string]CheckResult, len(s.checks))
	status := Healthy
	for i, c := range s.checks {
		checks[c.name] = results[i]
		if results[i] == CheckError {
			status = Degraded
		}
	}
	return Report{Status: status, Checks: checks}
}
