package pdfchat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Client operation names used as metric labels and log fields.
const (
	opIngest = "ingest"
	opAsk    = "ask"
	opList   = "list_documents"
	opGet    = "get_document"
	opUsage  = "usage"
)

type clientMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	m := &clientMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdfchat",
			Subsystem: "client",
			Name:      "operations_total",
			Help:      "Client operations by name and status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pdfchat",
			Subsystem: "client",
			Name:      "operation_duration_seconds",
			Help:      "Client operation duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers c, or swaps in the collector already registered
// under the same descriptor so two clients can share one registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("pdfchat: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("pdfchat: metric already registered as %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

// observer logs and measures client operations. A nil observer is a no-op.
type observer struct {
	logger  *slog.Logger
	metrics *clientMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newClientMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// start begins timing op and returns the function that records its outcome.
func (o *observer) start(ctx context.Context, op string, attrs ...slog.Attr) func(err error) {
	began := time.Now()
	return func(err error) {
		if o == nil {
			return
		}
		elapsed := time.Since(began)

		if o.metrics != nil {
			status := "ok"
			if err != nil {
				status = "error"
			}
			o.metrics.operations.WithLabelValues(op, status).Inc()
			o.metrics.duration.WithLabelValues(op).Observe(elapsed.Seconds())
		}

		if o.logger == nil {
			return
		}
		attrs = append(attrs, slog.String("op", op), slog.Duration("duration", elapsed))
		if err != nil {
			o.logger.LogAttrs(ctx, slog.LevelWarn, "operation failed", append(attrs, slog.Any("error", err))...)
			return
		}
		o.logger.LogAttrs(ctx, slog.LevelDebug, "operation completed", attrs...)
	}
}
