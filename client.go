package pdfchat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/app"
	"github.com/kailas-cloud/pdfchat/internal/config"
	"github.com/kailas-cloud/pdfchat/internal/domain"
	domdoc "github.com/kailas-cloud/pdfchat/internal/domain/document"
	agentuc "github.com/kailas-cloud/pdfchat/internal/usecase/agent"
	domusage "github.com/kailas-cloud/pdfchat/internal/domain/usage"
	healthuc "github.com/kailas-cloud/pdfchat/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/pdfchat/internal/usecase/ingest"
)

// Internal interfaces, swapped for mocks in tests.
type extractor interface {
	Extract(ctx context.Context, contentType string, data []byte) (string, error)
}

type ingestUseCase interface {
	Ingest(ctx context.Context, req ingestuc.Request) (ingestuc.Summary, error)
}

type agentUseCase interface {
	RunTurn(ctx context.Context, threadID, documentID, userText string) (agentuc.Reply, error)
}

type documentUseCase interface {
	List(ctx context.Context, limit int) ([]domdoc.Document, error)
	Get(ctx context.Context, id string) (domdoc.Document, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

type usageUseCase interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// Client is the pdfchat entry point.
type Client struct {
	extractor extractor
	ingest    ingestUseCase
	agent     agentUseCase
	docs      documentUseCase
	health    healthUseCase
	usage     usageUseCase
	closeFn   func() error
	obs       *observer
}

// New wires a Client. The context bounds connecting to external backends.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cc := &clientConfig{}
	for _, o := range opts {
		o.apply(cc)
	}

	cfg, err := resolveConfig(cc)
	if err != nil {
		return nil, err
	}

	var appOpts []app.Option
	if cc.embedder != nil {
		appOpts = append(appOpts, app.WithEmbedder(&embedderAdapter{inner: cc.embedder}))
	} else if cfg.Embedding.APIKey == "" {
		return nil, errors.New("pdfchat: embedding provider required (use WithOpenAIEmbeddings or WithEmbedder)")
	}
	if cc.model != nil {
		appOpts = append(appOpts, app.WithModel(cc.model))
	} else if cfg.Chat.APIKey == "" {
		return nil, errors.New("pdfchat: chat model required (use WithGeminiChat or WithOpenAIChat)")
	}

	obs, err := newObserver(cc.logger, cc.metricsReg)
	if err != nil {
		return nil, err
	}

	a, err := app.Build(ctx, cfg, zap.NewNop(), appOpts...)
	if err != nil {
		return nil, fmt.Errorf("pdfchat: %w", err)
	}
	return &Client{
		extractor: a.Extractor,
		ingest:    a.Ingest,
		agent:     a.Agent,
		docs:      a.Documents,
		health:    a.Health,
		usage:     a.Usage,
		closeFn:   a.Close,
		obs:       obs,
	}, nil
}

func resolveConfig(cc *clientConfig) (*config.Config, error) {
	var cfg config.Config
	if cc.env != "" {
		loaded, err := config.Load(cc.env)
		if err != nil {
			return nil, fmt.Errorf("pdfchat: %w", err)
		}
		cfg = loaded
	}
	for _, fn := range cc.settings {
		fn(&cfg)
	}
	cfg.ApplyDefaults()
	if err := cfg.ValidateComponents(); err != nil {
		return nil, fmt.Errorf("pdfchat: invalid options: %w", err)
	}
	return &cfg, nil
}

// Close releases all backends.
func (c *Client) Close() error {
	if c.closeFn == nil {
		return nil
	}
	return c.closeFn()
}

// IngestFile extracts the text of data and indexes it. PDF, HTML and
// plain-text content are supported; an empty contentType is sniffed.
func (c *Client) IngestFile(
	ctx context.Context, filename, contentType string, data []byte,
) (res IngestResult, err error) {
	done := c.obs.start(ctx, opIngest, slog.String("filename", filename))
	defer func() { done(err) }()

	text, err := c.extractor.Extract(ctx, contentType, data)
	if err != nil {
		return IngestResult{}, fmt.Errorf("extract %s: %w", filename, err)
	}
	sum, err := c.ingest.Ingest(ctx, ingestuc.Request{
		Filename:    filename,
		FileSize:    int64(len(data)),
		ContentType: contentType,
		Text:        text,
	})
	if err != nil {
		return IngestResult{}, fmt.Errorf("ingest %s: %w", filename, err)
	}
	return IngestResult{DocumentID: sum.DocumentID, ChunksCreated: sum.ChunksCreated, Filename: sum.Filename}, nil
}

// Ask runs one conversation turn on threadID about documentID. A turn the
// agent could not complete returns an Answer with Failed set and a nil error.
func (c *Client) Ask(ctx context.Context, threadID, documentID, question string) (ans Answer, err error) {
	done := c.obs.start(ctx, opAsk, slog.String("thread_id", threadID), slog.String("document_id", documentID))
	defer func() { done(err) }()

	if threadID == "" {
		threadID = agentuc.DefaultThreadID
	}
	reply, err := c.agent.RunTurn(ctx, threadID, documentID, question)
	if err != nil {
		return Answer{}, fmt.Errorf("ask: %w", err)
	}
	if reply.Failed && c.obs != nil && c.obs.logger != nil {
		c.obs.logger.WarnContext(ctx, "turn failed", "thread_id", threadID, "error", reply.Cause)
	}
	return Answer{Text: reply.Text, Failed: reply.Failed, Rounds: reply.Rounds, ToolCalls: reply.ToolCalls}, nil
}

// ListDocuments returns up to limit documents, newest first. Zero means the maximum page.
func (c *Client) ListDocuments(ctx context.Context, limit int) (docs []Document, err error) {
	done := c.obs.start(ctx, opList)
	defer func() { done(err) }()

	list, err := c.docs.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	docs = make([]Document, len(list))
	for i := range list {
		docs[i] = fromDomainDocument(&list[i])
	}
	return docs, nil
}

// GetDocument returns one document's metadata.
func (c *Client) GetDocument(ctx context.Context, id string) (doc Document, err error) {
	done := c.obs.start(ctx, opGet, slog.String("document_id", id))
	defer func() { done(err) }()

	d, err := c.docs.Get(ctx, id)
	if err != nil {
		return Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	return fromDomainDocument(&d), nil
}

// Health checks every configured backend and provider.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.health.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{Status: string(report.Status), Checks: checks}
}

func fromDomainDocument(d *domdoc.Document) Document {
	return Document{
		ID:         d.ID(),
		Filename:   d.Filename(),
		FileSize:   d.FileSize(),
		FileType:   d.FileType(),
		UploadedAt: d.UploadedAt(),
		Chunks:     d.Chunks(),
	}
}

// embedderAdapter wraps the public Embedder to satisfy domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

// Usage reports token budgets for period, "day" (the default) or "month".
func (c *Client) Usage(ctx context.Context, period string) (rep UsageReport, err error) {
	done := c.obs.start(ctx, opUsage, slog.String("period", period))
	defer func() { done(err) }()

	p, err := domusage.ParsePeriod(period)
	if err != nil {
		return UsageReport{}, fmt.Errorf("usage report: %w", err)
	}
	report := c.usage.GetReport(ctx, p)
	rep = UsageReport{
		Period:      string(report.Period()),
		PeriodStart: report.PeriodStart(),
		PeriodEnd:   report.PeriodEnd(),
		Budgets:     make([]Budget, 0, len(report.Budgets())),
	}
	for _, b := range report.Budgets() {
		rep.Budgets = append(rep.Budgets, Budget{
			Scope:     b.Scope(),
			Used:      b.TokensUsed(),
			Limit:     b.TokensLimit(),
			Remaining: b.TokensRemaining(),
			Exhausted: b.IsExhausted(),
			ResetsAt:  b.ResetsAt(),
		})
	}
	return rep, nil
}
