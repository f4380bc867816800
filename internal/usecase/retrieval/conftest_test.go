package retrieval

import (
	"context"

	"github.com/kailas-cloud/pdfchat/internal/domain/search/filter"
	"github.com/kailas-cloud/pdfchat/internal/domain/search/result"
)

type mockSearcher struct {
	searchFn func(ctx context.Context, query string, k int, filters filter.Expression) ([]result.Result, error)
}

func (m *mockSearcher) Search(
	ctx context.Context, query string, k int, filters filter.Expression,
) ([]result.Result, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, k, filters)
	}
	return nil, nil
}

func hits(docIDs ...string) []result.Result {
	out := make([]result.Result, len(docIDs))
	for i, d := range docIDs {
		out[i] = result.New(d+":0", d, 1-float64(i)/100, "content of "+d, nil)
	}
	return out
}
