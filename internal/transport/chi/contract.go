package chi

import (
	"context"

	domdoc "github.com/kailas-cloud/pdfchat/internal/domain/document"
	domusage "github.com/kailas-cloud/pdfchat/internal/domain/usage"
	agentuc "github.com/kailas-cloud/pdfchat/internal/usecase/agent"
	healthuc "github.com/kailas-cloud/pdfchat/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/pdfchat/internal/usecase/ingest"
)

// Extractor turns uploaded bytes into text.
type Extractor interface {
	Extract(ctx context.Context, contentType string, data []byte) (string, error)
}

// Ingester runs the ingestion pipeline.
type Ingester interface {
	Ingest(ctx context.Context, req ingestuc.Request) (ingestuc.Summary, error)
}

// Agent answers one conversation turn.
type Agent interface {
	RunTurn(ctx context.Context, threadID, documentID, userText string) (agentuc.Reply, error)
}

// Documents reads document metadata.
type Documents interface {
	List(ctx context.Context, limit int) ([]domdoc.Document, error)
	Get(ctx context.Context, id string) (domdoc.Document, error)
}

// HealthChecker reports readiness.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageReporter reports provider token budgets.
type UsageReporter interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}
