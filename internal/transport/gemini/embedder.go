package gemini

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/metrics"
)

// Embedder implements domain.Embedder and domain.BatchEmbedder with EmbedContent.
// The Gemini API does not report token usage for embeddings.
type Embedder struct {
	client     *genai.Client
	model      string
	dimensions int
	logger     *zap.Logger
}

// NewEmbedder creates a Gemini embedder.
func NewEmbedder(ctx context.Context, cfg *Config) (*Embedder, error) {
	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{client: client, model: cfg.Model, dimensions: cfg.Dimensions, logger: logger}, nil
}

// Embed vectorizes one text.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: res.Embeddings[0]}, nil
}

// BatchEmbed vectorizes texts in one request.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	var config *genai.EmbedContentConfig
	if e.dimensions > 0 {
		config = &genai.EmbedContentConfig{OutputDimensionality: genai.Ptr(int32(e.dimensions))} //nolint:gosec // small config value
	}

	start := time.Now()
	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, config)
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(provider, e.model, "api_error").Inc()
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embed content: %w: %w", domain.ErrEmbeddingProviderError, err)
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(provider, e.model, "count_mismatch").Inc()
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embedding count mismatch for %d texts: %w",
			len(texts), domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(provider, e.model).Observe(time.Since(start).Seconds())

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		vectors[i] = emb.Values
	}
	return domain.BatchEmbeddingResult{Embeddings: vectors}, nil
}

// HealthCheck verifies the embedding model is reachable.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	return healthCheck(ctx, e.client, e.model)
}
