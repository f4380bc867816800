// Package app assembles the pdfchat components from configuration. Both the
// HTTP server and the embeddable client are built here.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/chunker"
	"github.com/kailas-cloud/pdfchat/internal/config"
	"github.com/kailas-cloud/pdfchat/internal/db"
	dbRedis "github.com/kailas-cloud/pdfchat/internal/db/redis"
	"github.com/kailas-cloud/pdfchat/internal/domain"
	domchunk "github.com/kailas-cloud/pdfchat/internal/domain/chunk"
	domdoc "github.com/kailas-cloud/pdfchat/internal/domain/document"
	"github.com/kailas-cloud/pdfchat/internal/domain/search/filter"
	"github.com/kailas-cloud/pdfchat/internal/domain/search/result"
	"github.com/kailas-cloud/pdfchat/internal/extract"
	"github.com/kailas-cloud/pdfchat/internal/metrics"
	budgetrepo "github.com/kailas-cloud/pdfchat/internal/repository/budget"
	"github.com/kailas-cloud/pdfchat/internal/repository/chromem"
	chunkrepo "github.com/kailas-cloud/pdfchat/internal/repository/chunk"
	documentrepo "github.com/kailas-cloud/pdfchat/internal/repository/document"
	"github.com/kailas-cloud/pdfchat/internal/repository/embcache"
	"github.com/kailas-cloud/pdfchat/internal/repository/memory"
	"github.com/kailas-cloud/pdfchat/internal/repository/qdrant"
	"github.com/kailas-cloud/pdfchat/internal/repository/sqlite"
	threadrepo "github.com/kailas-cloud/pdfchat/internal/repository/thread"
	"github.com/kailas-cloud/pdfchat/internal/transport/gemini"
	"github.com/kailas-cloud/pdfchat/internal/transport/openai"
	agentuc "github.com/kailas-cloud/pdfchat/internal/usecase/agent"
	documentuc "github.com/kailas-cloud/pdfchat/internal/usecase/document"
	embeddinguc "github.com/kailas-cloud/pdfchat/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/pdfchat/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/pdfchat/internal/usecase/ingest"
	"github.com/kailas-cloud/pdfchat/internal/usecase/retrieval"
	searchuc "github.com/kailas-cloud/pdfchat/internal/usecase/search"
	usageuc "github.com/kailas-cloud/pdfchat/internal/usecase/usage"
)

const (
	budgetDailyTTL   = 48 * time.Hour
	budgetMonthlyTTL = 62 * 24 * time.Hour
)

// VectorIndex is what the pipeline and the search side need from a backend.
type VectorIndex interface {
	Insert(ctx context.Context, chunks []domchunk.Chunk) error
	DeleteDocument(ctx context.Context, documentID string) error
	Search(ctx context.Context, vector []float32, k int, filters filter.Expression) ([]result.Result, error)
}

// DocumentStore is the document metadata backend.
type DocumentStore interface {
	Save(ctx context.Context, doc domdoc.Document) error
	Get(ctx context.Context, id string) (domdoc.Document, error)
	List(ctx context.Context, limit int) ([]domdoc.Document, error)
	Delete(ctx context.Context, id string) error
}

// ChatModel is a chat model that can report its own health.
type ChatModel interface {
	agentuc.Model
	HealthCheck(ctx context.Context) error
}

// App holds the wired use cases.
type App struct {
	Extractor *extract.Auto
	Ingest    *ingestuc.Service
	Agent     *agentuc.Service
	Documents *documentuc.Service
	Health    *healthuc.Service
	Usage     *usageuc.Service

	closers []func() error
}

// Option overrides a component, mostly for tests and embedding callers.
type Option func(*overrides)

type overrides struct {
	embedder domain.Embedder
	model    agentuc.Model
}

// WithEmbedder replaces the configured embedding provider.
func WithEmbedder(e domain.Embedder) Option {
	return func(o *overrides) { o.embedder = e }
}

// WithModel replaces the configured chat model.
func WithModel(m agentuc.Model) Option {
	return func(o *overrides) { o.model = m }
}

// Build connects the configured backends and wires the use cases. On error
// every backend opened so far is closed.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (_ *App, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var ov overrides
	for _, opt := range opts {
		opt(&ov)
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterModelMetrics()
	metrics.RegisterPipelineMetrics()

	a := &App{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	var pingers multiPinger

	var redis *dbRedis.Store
	if cfg.UsesRedis() {
		redis, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		a.closers = append(a.closers, func() error { redis.Close(); return nil })
		timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err = redis.WaitForReady(ctx, timeout); err != nil {
			return nil, fmt.Errorf("redis not ready: %w", err)
		}
		pingers = append(pingers, redis)
		logger.Info("Connected to redis", zap.Strings("addrs", cfg.Database.Addrs))
	}

	var lite *sqlite.Store
	if cfg.UsesSQLite() {
		lite, err = sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, lite.Close)
		pingers = append(pingers, lite)
		logger.Info("Opened sqlite database", zap.String("path", cfg.Storage.SQLitePath))
	}

	var trackers []*usageuc.Tracker
	embBudget := buildTracker(ctx, usageuc.ScopeEmbedding, cfg.Embedding.Budget, redis, logger)
	chatBudget := buildTracker(ctx, usageuc.ScopeChat, cfg.Chat.Budget, redis, logger)
	for _, t := range []*usageuc.Tracker{embBudget, chatBudget} {
		if t != nil {
			trackers = append(trackers, t)
		}
	}

	docEmbedder, queryEmbedder := ov.embedder, ov.embedder
	if docEmbedder == nil {
		docEmbedder, queryEmbedder, err = buildEmbedders(ctx, cfg, redis, embBudget, logger)
		if err != nil {
			return nil, err
		}
	} else if cfg.Embedding.QueryInstruction != "" {
		queryEmbedder = domain.NewInstructionEmbedder(docEmbedder, cfg.Embedding.QueryInstruction)
	}

	model := ov.model
	var chatChecker healthuc.ProviderChecker
	if model == nil {
		chat, err := buildChatModel(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		model, chatChecker = chat, chat
	}
	if chatBudget != nil {
		model = usageuc.NewBudgetedModel(model, chatBudget)
	}

	index, err := a.buildVectorIndex(ctx, cfg, redis, &pingers, logger)
	if err != nil {
		return nil, err
	}
	memoryStore := buildMemory(cfg, redis, lite)
	docs := buildDocumentStore(cfg, redis, lite)

	splitter := chunker.New(chunker.WithChunkSize(cfg.Chunker.Size), chunker.WithOverlap(cfg.Chunker.Overlap))
	search := searchuc.New(index, queryEmbedder)
	tools := retrieval.New(search, retrieval.Config{
		ScopedK:        cfg.Agent.ScopedK,
		DiscoveryK:     cfg.Agent.DiscoveryK,
		DiscoveryLimit: cfg.Agent.DiscoveryLimit,
	})

	a.Extractor = extract.New()
	a.Ingest = ingestuc.New(splitter, docEmbedder, index, docs).WithMaxFileSize(cfg.HTTP.MaxUploadBytes)
	a.Agent = agentuc.New(memoryStore, model, tools, agentuc.Config{
		MaxRounds:   cfg.Agent.MaxRounds,
		Temperature: cfg.Chat.Temperature,
	})
	a.Documents = documentuc.New(docs).WithPagination(cfg.Index.MaxPageSize)
	a.Usage = usageuc.New(trackers...)

	healthOpts := []healthuc.Option{
		healthuc.WithEmbedding(newEmbeddingHealthChecker(docEmbedder)),
		healthuc.WithChat(chatChecker),
	}
	if len(pingers) > 0 {
		healthOpts = append(healthOpts, healthuc.WithDatabase(pingers))
	}
	a.Health = healthuc.New(healthOpts...)

	logger.Info("Components wired",
		zap.String("vector_store", cfg.Storage.Vector),
		zap.String("conversation_store", cfg.Storage.Conversation),
		zap.String("metadata_store", cfg.Storage.Metadata),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("chat_provider", cfg.Chat.Provider),
		zap.Int("budgets", len(trackers)),
	)
	return a, nil
}

// Close releases backends in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) buildVectorIndex(
	ctx context.Context, cfg *config.Config, redis *dbRedis.Store, pingers *multiPinger, logger *zap.Logger,
) (VectorIndex, error) {
	switch cfg.Storage.Vector {
	case config.DriverRedis:
		algo, err := db.ParseVectorAlgorithm(cfg.Index.Algorithm)
		if err != nil {
			return nil, fmt.Errorf("index algorithm: %w", err)
		}
		repo := chunkrepo.New(redis, cfg.Embedding.Dimensions, chunkrepo.IndexConfig{
			Algorithm:   algo,
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		})
		if err := repo.EnsureIndex(ctx); err != nil {
			return nil, fmt.Errorf("ensure chunk index: %w", err)
		}
		return repo, nil
	case config.DriverChromem:
		repo, err := chromem.New(chromem.Config{
			Path:     cfg.Storage.ChromemPath,
			Compress: cfg.Storage.ChromemCompress,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("Opened chromem index", zap.String("path", cfg.Storage.ChromemPath), zap.Int("chunks", repo.Count()))
		return repo, nil
	case config.DriverQdrant:
		q := cfg.Storage.Qdrant
		repo, closeFn, err := qdrant.Dial(qdrant.Config{
			Host:       q.Host,
			Port:       q.Port,
			APIKey:     q.APIKey,
			UseTLS:     q.UseTLS,
			Collection: q.Collection,
			Dimensions: cfg.Embedding.Dimensions,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, closeFn)
		if err := repo.EnsureCollection(ctx); err != nil {
			return nil, fmt.Errorf("ensure qdrant collection: %w", err)
		}
		*pingers = append(*pingers, pingFunc(repo.HealthCheck))
		return repo, nil
	default:
		return memory.NewVectorIndex(), nil
	}
}

func buildMemory(cfg *config.Config, redis *dbRedis.Store, lite *sqlite.Store) agentuc.Memory {
	switch cfg.Storage.Conversation {
	case config.DriverRedis:
		return threadrepo.New(redis, threadrepo.WithTTL(time.Duration(cfg.Storage.ThreadTTLHours)*time.Hour))
	case config.DriverSQLite:
		return lite.Threads()
	default:
		return memory.NewThreadStore()
	}
}

func buildDocumentStore(cfg *config.Config, redis *dbRedis.Store, lite *sqlite.Store) DocumentStore {
	switch cfg.Storage.Metadata {
	case config.DriverRedis:
		return documentrepo.New(redis)
	case config.DriverSQLite:
		return lite.Documents()
	default:
		return memory.NewDocumentStore()
	}
}

// buildTracker returns nil when the budget has no limits. Counters persist in
// redis when it is connected and live in memory otherwise.
func buildTracker(
	ctx context.Context, scope string, bc config.BudgetConfig, redis *dbRedis.Store, logger *zap.Logger,
) *usageuc.Tracker {
	if !bc.Enabled() {
		return nil
	}
	action := usageuc.ActionWarn
	if bc.Action == string(usageuc.ActionReject) {
		action = usageuc.ActionReject
	}
	t := usageuc.NewTracker(scope, bc.DailyTokenLimit, bc.MonthlyTokenLimit, action, logger)
	if redis != nil {
		t.WithStore(ctx, budgetrepo.New(redis, budgetDailyTTL, budgetMonthlyTTL))
	}
	return t
}

// buildEmbedders assembles the decorator chain: provider -> cached -> instrumented.
// The query side adds the instruction prefix outermost, so cache keys include it.
func buildEmbedders(
	ctx context.Context, cfg *config.Config, redis *dbRedis.Store, budget *usageuc.Tracker, logger *zap.Logger,
) (doc, query domain.Embedder, err error) {
	ec := cfg.Embedding

	var base domain.Embedder
	switch ec.Provider {
	case config.ProviderGemini:
		base, err = gemini.NewEmbedder(ctx, &gemini.Config{
			APIKey:     ec.APIKey,
			BaseURL:    ec.BaseURL,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
			Logger:     logger,
		})
		if err != nil {
			return nil, nil, err
		}
	default:
		base = openai.NewEmbedder(&openai.Config{
			APIKey:     ec.APIKey,
			BaseURL:    ec.BaseURL,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
			Provider:   ec.Provider,
			Logger:     logger,
		})
	}

	embedder := base
	if ec.Cache.Enabled && redis != nil {
		embedder = embcache.New(base, redis, metrics.EmbeddingCacheTotal, logger,
			embcache.WithNamespace(ec.Model),
			embcache.WithTTL(time.Duration(ec.Cache.TTLHours)*time.Hour),
		)
	}
	instrumented := embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, ec.Model, logger)
	if budget != nil {
		instrumented.WithBudget(budget)
	}
	embedder = instrumented

	query = embedder
	if ec.QueryInstruction != "" {
		query = domain.NewInstructionEmbedder(embedder, ec.QueryInstruction)
	}
	logger.Info("Embedders created",
		zap.String("provider", ec.Provider),
		zap.String("model", ec.Model),
		zap.Int("dimensions", ec.Dimensions),
		zap.Bool("cache", ec.Cache.Enabled),
	)
	return embedder, query, nil
}

func buildChatModel(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ChatModel, error) {
	cc := cfg.Chat
	if cc.Provider == config.ProviderGemini {
		m, err := gemini.NewChatModel(ctx, &gemini.Config{
			APIKey:  cc.APIKey,
			BaseURL: cc.BaseURL,
			Model:   cc.Model,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return openai.NewChatModel(&openai.Config{
		APIKey:   cc.APIKey,
		BaseURL:  cc.BaseURL,
		Model:    cc.Model,
		Provider: cc.Provider,
		Logger:   logger,
	}), nil
}

// embeddingHealthChecker adapts an embedder that may not report health.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// multiPinger reports the first failing backend.
type multiPinger []healthuc.Pinger

func (m multiPinger) Ping(ctx context.Context) error {
	for _, p := range m {
		if err := p.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}
