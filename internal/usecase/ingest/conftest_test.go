package ingest

import (
	"context"
	"strings"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	domchunk "github.com/kailas-cloud/pdfchat/internal/domain/chunk"
	domdoc "github.com/kailas-cloud/pdfchat/internal/domain/document"
	"github.com/kailas-cloud/pdfchat/internal/repository/memory"
)

// mockEmbedder embeds by keyword and counts batch calls.
type mockEmbedder struct {
	err        error
	batchCalls int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: vectorFor(text), TotalTokens: 1}, nil
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = vectorFor(t)
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: len(texts)}, nil
}

func vectorFor(text string) []float32 {
	if strings.Contains(strings.ToLower(text), "invoice") {
		return []float32{1, 0.01}
	}
	return []float32{0.01, 1}
}

// mockIndex records calls and fails on demand.
type mockIndex struct {
	insertFn  func(ctx context.Context, chunks []domchunk.Chunk) error
	deletedID string
	deleteErr error
}

func (m *mockIndex) Insert(ctx context.Context, chunks []domchunk.Chunk) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, chunks)
	}
	return nil
}

func (m *mockIndex) DeleteDocument(_ context.Context, id string) error {
	m.deletedID = id
	return m.deleteErr
}

// failingDocs fails every lookup, as an unreachable metadata store would.
type failingDocs struct {
	*memory.DocumentStore
	getErr error
}

func (f failingDocs) Get(context.Context, string) (domdoc.Document, error) {
	return domdoc.Document{}, f.getErr
}
