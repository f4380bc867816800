package result

import "github.com/kailas-cloud/pdfchat/internal/domain/chunk"

// Result is a single search hit: a chunk and its cosine similarity to the query.
type Result struct {
	id         string
	documentID string
	score      float64
	content    string
	metadata   map[string]string
}

// New creates a search result.
func New(id, documentID string, score float64, content string, metadata map[string]string) Result {
	return Result{id: id, documentID: documentID, score: score, content: content, metadata: metadata}
}

// FromChunk creates a result for an indexed chunk.
func FromChunk(c *chunk.Chunk, score float64) Result {
	return New(c.ID(), c.DocumentID(), score, c.Content(), c.Metadata())
}

// ID returns the chunk identifier.
func (r *Result) ID() string { return r.id }

// DocumentID returns the owning document identifier.
func (r *Result) DocumentID() string { return r.documentID }

// Score returns the similarity, higher is closer.
func (r *Result) Score() float64 { return r.score }

// Content returns the chunk text.
func (r *Result) Content() string { return r.content }

// Metadata returns the chunk metadata.
func (r *Result) Metadata() map[string]string { return r.metadata }
