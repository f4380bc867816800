// Package chromem implements the vector index on chromem-go, an embedded
// vector database that runs in-process and optionally persists to disk.
package chromem

import (
	"context"
	"errors"
	"fmt"

	"github.com/philippgille/chromem-go"

	domchunk "github.com/kailas-cloud/pdfchat/internal/domain/chunk"
	"github.com/kailas-cloud/pdfchat/internal/domain/search/filter"
	"github.com/kailas-cloud/pdfchat/internal/domain/search/result"
)

// DefaultCollection is the collection holding all chunks.
const DefaultCollection = "pdfchat_chunks"

// errNoEmbedding is returned if chromem ever tries to embed text itself;
// chunks and queries always arrive with precomputed vectors.
var errNoEmbedding = errors.New("chromem: embeddings must be precomputed")

// Config selects in-memory or persistent storage.
type Config struct {
	// Path enables persistence when non-empty.
	Path       string
	Compress   bool
	Collection string
}

// Repo is the chromem-go backed vector index.
type Repo struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// New opens (or creates) the chunk collection.
func New(cfg Config) (*Repo, error) {
	var (
		db  *chromem.DB
		err error
	)
	if cfg.Path != "" {
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("open chromem db at %s: %w", cfg.Path, err)
		}
	} else {
		db = chromem.NewDB()
	}

	name := cfg.Collection
	if name == "" {
		name = DefaultCollection
	}
	col, err := db.GetOrCreateCollection(name, nil, rejectEmbedding)
	if err != nil {
		return nil, fmt.Errorf("get collection %s: %w", name, err)
	}
	return &Repo{db: db, collection: col}, nil
}

// Insert adds chunks with their precomputed vectors.
func (r *Repo) Insert(ctx context.Context, chunks []domchunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		docs[i] = chromem.Document{
			ID:        c.ID(),
			Content:   c.Content(),
			Metadata:  c.Metadata(),
			Embedding: c.Vector(),
		}
	}
	// Concurrency 1: nothing to embed, the vectors are already computed.
	if err := r.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("add %d documents: %w", len(docs), err)
	}
	return nil
}

// Search returns the k chunks closest to vector. The filter is applied by
// chromem as a metadata equality pre-filter.
func (r *Repo) Search(
	ctx context.Context, vector []float32, k int, filters filter.Expression,
) ([]result.Result, error) {
	// chromem requires nResults <= collection size
	n := r.collection.Count()
	if n == 0 {
		return nil, nil
	}
	k = min(k, n)

	hits, err := r.collection.QueryEmbedding(ctx, vector, k, filters.AsMap(), nil)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	out := make([]result.Result, 0, len(hits))
	for _, h := range hits {
		out = append(out, result.New(
			h.ID, h.Metadata[domchunk.MetaDocumentID], float64(h.Similarity), h.Content, h.Metadata,
		))
	}
	return out, nil
}

// DeleteDocument removes every chunk of a document.
func (r *Repo) DeleteDocument(ctx context.Context, documentID string) error {
	where := map[string]string{domchunk.MetaDocumentID: documentID}
	if err := r.collection.Delete(ctx, where, nil); err != nil {
		return fmt.Errorf("delete chunks of %s: %w", documentID, err)
	}
	return nil
}

// Count returns the number of stored chunks.
func (r *Repo) Count() int {
	return r.collection.Count()
}

func rejectEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbedding
}
