package retrieval

import (
	"context"

	"github.com/kailas-cloud/pdfchat/internal/domain/search/filter"
	"github.com/kailas-cloud/pdfchat/internal/domain/search/result"
)

// Searcher runs text queries against the vector index.
type Searcher interface {
	Search(ctx context.Context, query string, k int, filters filter.Expression) ([]result.Result, error)
}
