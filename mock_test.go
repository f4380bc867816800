package pdfchat

import (
	"context"

	domdoc "github.com/kailas-cloud/pdfchat/internal/domain/document"
	domusage "github.com/kailas-cloud/pdfchat/internal/domain/usage"
	agentuc "github.com/kailas-cloud/pdfchat/internal/usecase/agent"
	healthuc "github.com/kailas-cloud/pdfchat/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/pdfchat/internal/usecase/ingest"
)

type mockExtractor struct {
	fn func(ctx context.Context, contentType string, data []byte) (string, error)
}

func (m *mockExtractor) Extract(ctx context.Context, contentType string, data []byte) (string, error) {
	return m.fn(ctx, contentType, data)
}

type mockIngestUC struct {
	fn func(ctx context.Context, req ingestuc.Request) (ingestuc.Summary, error)
}

func (m *mockIngestUC) Ingest(ctx context.Context, req ingestuc.Request) (ingestuc.Summary, error) {
	return m.fn(ctx, req)
}

type mockAgentUC struct {
	fn func(ctx context.Context, threadID, documentID, userText string) (agentuc.Reply, error)
}

func (m *mockAgentUC) RunTurn(ctx context.Context, threadID, documentID, userText string) (agentuc.Reply, error) {
	return m.fn(ctx, threadID, documentID, userText)
}

type mockDocumentUC struct {
	listFn func(ctx context.Context, limit int) ([]domdoc.Document, error)
	getFn  func(ctx context.Context, id string) (domdoc.Document, error)
}

func (m *mockDocumentUC) List(ctx context.Context, limit int) ([]domdoc.Document, error) {
	return m.listFn(ctx, limit)
}

func (m *mockDocumentUC) Get(ctx context.Context, id string) (domdoc.Document, error) {
	return m.getFn(ctx, id)
}

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report { return m.report }

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

type mockUsageUC struct {
	fn func(ctx context.Context, period domusage.Period) domusage.Report
}

func (m *mockUsageUC) GetReport(ctx context.Context, period domusage.Period) domusage.Report {
	return m.fn(ctx, period)
}
