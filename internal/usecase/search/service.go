// Package search runs text queries against the vector index.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/domain/search/filter"
	"github.com/kailas-cloud/pdfchat/internal/domain/search/result"
)

// Service embeds a query and returns its nearest chunks.
type Service struct {
	index Index
	embed Embedder
}

// New creates a search service.
func New(index Index, embed Embedder) *Service {
	return &Service{index: index, embed: embed}
}

// Search returns up to k chunks closest to query, closest first. filters is
// applied before ranking; the zero Expression searches the whole corpus.
// No match is an empty result, not an error. Embedding and index failures
// are reported as *domain.RetrievalError.
func (s *Service) Search(
	ctx context.Context, query string, k int, filters filter.Expression,
) ([]result.Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required: %w", domain.ErrInvalidInput)
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive: %w", domain.ErrInvalidInput)
	}

	emb, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, domain.NewRetrievalError(query, fmt.Errorf("embed query: %w", err))
	}

	results, err := s.index.Search(ctx, emb.Embedding, k, filters)
	if err != nil {
		return nil, domain.NewRetrievalError(query, fmt.Errorf("vector search: %w", err))
	}
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}
