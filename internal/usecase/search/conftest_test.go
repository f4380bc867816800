package search

import (
	"context"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/domain/search/filter"
	"github.com/kailas-cloud/pdfchat/internal/domain/search/result"
)

type mockIndex struct {
	searchFn func(ctx context.Context, vector []float32, k int, filters filter.Expression) ([]result.Result, error)
}

func (m *mockIndex) Search(
	ctx context.Context, vector []float32, k int, filters filter.Expression,
) ([]result.Result, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, vector, k, filters)
	}
	return nil, nil
}

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0}}, nil
}
