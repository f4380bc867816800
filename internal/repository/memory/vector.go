// Package memory provides in-process implementations of the vector index,
// conversation memory and document store. State lives for the process lifetime.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	domchunk "github.com/kailas-cloud/pdfchat/internal/domain/chunk"
	"github.com/kailas-cloud/pdfchat/internal/domain/search/filter"
	"github.com/kailas-cloud/pdfchat/internal/domain/search/result"
)

// VectorIndex is a brute-force cosine index. Ties keep insertion order.
type VectorIndex struct {
	mu     sync.RWMutex
	chunks []domchunk.Chunk
}

// NewVectorIndex creates an empty index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{}
}

// Insert appends chunks. Re-inserting a chunk ID adds a duplicate.
func (v *VectorIndex) Insert(_ context.Context, chunks []domchunk.Chunk) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(v.chunks) > 0 {
		dim := len(v.chunks[0].Vector())
		for i := range chunks {
			if n := len(chunks[i].Vector()); n != dim {
				return fmt.Errorf("chunk %s has %d dimensions, index has %d: %w",
					chunks[i].ID(), n, dim, domain.ErrInvalidInput)
			}
		}
	}
	v.chunks = append(v.chunks, chunks...)
	return nil
}

// Search returns up to k chunks matching filters, closest first.
func (v *VectorIndex) Search(
	_ context.Context, vector []float32, k int, filters filter.Expression,
) ([]result.Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive: %w", domain.ErrInvalidInput)
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	type hit struct {
		pos   int
		score float64
	}
	hits := make([]hit, 0, len(v.chunks))
	for i := range v.chunks {
		c := &v.chunks[i]
		if !filters.Matches(c.Metadata()) {
			continue
		}
		if len(c.Vector()) != len(vector) {
			return nil, fmt.Errorf("query has %d dimensions, index has %d: %w",
				len(vector), len(c.Vector()), domain.ErrInvalidInput)
		}
		hits = append(hits, hit{pos: i, score: cosine(vector, c.Vector())})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > k {
		hits = hits[:k]
	}

	out := make([]result.Result, len(hits))
	for i, h := range hits {
		out[i] = result.FromChunk(&v.chunks[h.pos], h.score)
	}
	return out, nil
}

// DeleteDocument drops every chunk of documentID.
func (v *VectorIndex) DeleteDocument(_ context.Context, documentID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	kept := v.chunks[:0]
	for _, c := range v.chunks {
		if c.DocumentID() != documentID {
			kept = append(kept, c)
		}
	}
	clear(v.chunks[len(kept):])
	v.chunks = kept
	return nil
}

// Len returns the number of stored chunks.
func (v *VectorIndex) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.chunks)
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
