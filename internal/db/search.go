package db

import "github.com/kailas-cloud/pdfchat/internal/domain/search/filter"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string // defaults to "vector"
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single hash hit from a search.
// Score is cosine similarity, higher is closer.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
