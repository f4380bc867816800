// Package retrieval implements the tools the agent calls to read indexed documents.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/domain/search/filter"
)

// Defaults for result sizes.
const (
	DefaultScopedK        = 3
	DefaultDiscoveryK     = 10
	DefaultDiscoveryLimit = 5
)

// Config sizes the tool results. Zero values take the defaults.
type Config struct {
	ScopedK        int
	DiscoveryK     int
	DiscoveryLimit int
}

// Tools executes retrieval tool calls.
type Tools struct {
	search         Searcher
	scopedK        int
	discoveryK     int
	discoveryLimit int
}

// New creates the tool set.
func New(s Searcher, cfg Config) *Tools {
	t := &Tools{
		search:         s,
		scopedK:        cfg.ScopedK,
		discoveryK:     cfg.DiscoveryK,
		discoveryLimit: cfg.DiscoveryLimit,
	}
	if t.scopedK <= 0 {
		t.scopedK = DefaultScopedK
	}
	if t.discoveryK <= 0 {
		t.discoveryK = DefaultDiscoveryK
	}
	if t.discoveryLimit <= 0 {
		t.discoveryLimit = DefaultDiscoveryLimit
	}
	return t
}

// Specs declares both tools with their required arguments.
func (t *Tools) Specs() []domain.ToolSpec {
	return []domain.ToolSpec{
		{
			Name: ToolRetrieve,
			Description: "Retrieve passages relevant to a query from one uploaded document. " +
				"Call this before answering any question about the document's content.",
			Params: []domain.ToolParam{
				{Name: "query", Description: "What to look for in the document.", Required: true},
				{Name: "document_id", Description: "ID of the document to search, from the 'Document ID:' marker.", Required: true},
			},
		},
		{
			Name:        ToolFindSimilarDocuments,
			Description: "Find the IDs of uploaded documents related to a query, across all documents.",
			Params: []domain.ToolParam{
				{Name: "query", Description: "Topic to look for.", Required: true},
			},
		},
	}
}

// Execute runs a validated call and returns the text handed back to the model.
func (t *Tools) Execute(ctx context.Context, call Call) (string, error) {
	switch c := call.(type) {
	case ScopedRetrieval:
		return t.Retrieve(ctx, c.Query, c.DocumentID)
	case Discovery:
		return t.FindSimilarDocuments(ctx, c.Query)
	default:
		return "", fmt.Errorf("%T: %w", call, domain.ErrUnknownTool)
	}
}

// Retrieve returns the top chunks of one document joined by newlines, closest
// first. A document without indexed chunks yields an empty string.
func (t *Tools) Retrieve(ctx context.Context, query, documentID string) (string, error) {
	expr, err := filter.ByDocument(documentID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidToolArguments, err)
	}
	results, err := t.search.Search(ctx, query, t.scopedK, expr)
	if err != nil {
		return "", fmt.Errorf("retrieve from %s: %w", documentID, err)
	}

	parts := make([]string, len(results))
	for i := range results {
		parts[i] = results[i].Content()
	}
	return strings.Join(parts, "\n"), nil
}

// FindSimilarDocuments returns the IDs of documents owning the nearest chunks,
// deduplicated in rank order of first occurrence, newline-joined.
func (t *Tools) FindSimilarDocuments(ctx context.Context, query string) (string, error) {
	results, err := t.search.Search(ctx, query, t.discoveryK, filter.Expression{})
	if err != nil {
		return "", fmt.Errorf("find similar documents: %w", err)
	}

	seen := make(map[string]struct{}, t.discoveryLimit)
	ids := make([]string, 0, t.discoveryLimit)
	for i := range results {
		id := results[i].DocumentID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		if len(ids) == t.discoveryLimit {
			break
		}
	}
	return strings.Join(ids, "\n"), nil
}
