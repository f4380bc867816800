package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Chat model Prometheus metrics.
var (
	ModelRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfchat",
			Name:      "model_requests_total",
			Help:      "Total number of chat model requests",
		},
		[]string{"provider", "model", "status"},
	)

	ModelRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pdfchat",
			Name:      "model_request_duration_seconds",
			Help:      "Chat model request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider", "model"},
	)

	ModelTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfchat",
			Name:      "model_tokens_total",
			Help:      "Total chat model tokens consumed",
		},
		[]string{"provider", "model", "type"}, // "prompt" / "completion"
	)
)

var modelOnce sync.Once

// RegisterModelMetrics registers Prometheus chat model metrics.
func RegisterModelMetrics() {
	modelOnce.Do(func() {
		prometheus.MustRegister(ModelRequestsTotal)
		prometheus.MustRegister(ModelRequestDuration)
		prometheus.MustRegister(ModelTokensTotal)
	})
}
