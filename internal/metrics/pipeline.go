package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Agent and ingestion Prometheus metrics.
var (
	AgentTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfchat",
			Name:      "agent_turns_total",
			Help:      "Conversation turns by outcome",
		},
		[]string{"outcome"}, // "answered" / "failed"
	)

	AgentRounds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "pdfchat",
			Name:      "agent_rounds",
			Help:      "Model rounds per conversation turn",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 8, 10},
		},
	)

	AgentToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfchat",
			Name:      "agent_tool_calls_total",
			Help:      "Tool invocations requested by the model",
		},
		[]string{"tool", "status"},
	)

	IngestDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pdfchat",
			Name:      "ingest_documents_total",
			Help:      "Ingested documents by outcome",
		},
		[]string{"status"},
	)

	IngestChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pdfchat",
			Name:      "ingest_chunks_total",
			Help:      "Chunks written to the vector index",
		},
	)

	BudgetTokensRemaining = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "pdfchat",
			Name:      "budget_tokens_remaining",
			Help:      "Remaining provider token budget",
		},
		[]string{"scope", "period"},
	)
)

var pipelineOnce sync.Once

// RegisterPipelineMetrics registers agent, ingestion and budget metrics.
func RegisterPipelineMetrics() {
	pipelineOnce.Do(func() {
		prometheus.MustRegister(AgentTurnsTotal)
		prometheus.MustRegister(AgentRounds)
		prometheus.MustRegister(AgentToolCallsTotal)
		prometheus.MustRegister(IngestDocumentsTotal)
		prometheus.MustRegister(IngestChunksTotal)
		prometheus.MustRegister(BudgetTokensRemaining)
	})
}
