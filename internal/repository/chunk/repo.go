// Package chunk stores document chunks as Redis hashes and searches them
// through a Redis Query Engine vector index.
package chunk

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/pdfchat/internal/db"
	"github.com/kailas-cloud/pdfchat/internal/domain"
	domchunk "github.com/kailas-cloud/pdfchat/internal/domain/chunk"
	"github.com/kailas-cloud/pdfchat/internal/domain/search/filter"
	"github.com/kailas-cloud/pdfchat/internal/domain/search/result"
)

const (
	fieldContent = "__content"
	fieldVector  = "__vector"
	vectorAlias  = "vector"
)

var (
	chunkPrefix = domain.KeyPrefix + "chunk:"
	indexName   = domain.KeyPrefix + "idx:chunks"
)

var returnFields = []string{
	fieldContent,
	domchunk.MetaDocumentID,
	domchunk.MetaFilename,
	domchunk.MetaFileSize,
	domchunk.MetaUploadDate,
	domchunk.MetaFileType,
	domchunk.MetaChunkIndex,
}

// store is the consumer interface for chunk storage (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	Del(ctx context.Context, keys ...string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// IndexConfig selects the vector algorithm and its HNSW tuning.
type IndexConfig struct {
	Algorithm   db.VectorAlgorithm
	M           int
	EFConstruct int
}

// Repo is the Redis-backed vector index.
type Repo struct {
	store      store
	dimensions int
	index      IndexConfig
}

// New creates a chunk repository for vectors of the given dimensionality.
func New(s store, dimensions int, index IndexConfig) *Repo {
	return &Repo{store: s, dimensions: dimensions, index: index}
}

// EnsureIndex creates the FT index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, indexName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", indexName, err)
	}
	if exists {
		return nil
	}

	def, err := buildIndex(r.dimensions, r.index)
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", indexName, err)
	}
	return nil
}

// Insert stores chunks in one pipelined round-trip. Existing keys are overwritten.
func (r *Repo) Insert(ctx context.Context, chunks []domchunk.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		if len(c.Vector()) != r.dimensions {
			return fmt.Errorf("chunk %s has %d dimensions, index expects %d: %w",
				c.ID(), len(c.Vector()), r.dimensions, domain.ErrInvalidInput)
		}
		items[i] = db.HashSetItem{Key: chunkKey(c.ID()), Fields: buildHashFields(c)}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset %d chunks: %w", len(items), err)
	}
	return nil
}

// Search returns the k chunks closest to vector, restricted by filters.
func (r *Repo) Search(
	ctx context.Context, vector []float32, k int, filters filter.Expression,
) ([]result.Result, error) {
	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName,
		VectorField:  vectorAlias,
		Filters:      filters,
		Vector:       vector,
		K:            k,
		ReturnFields: returnFields,
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("search knn: %w", err)
	}

	out := make([]result.Result, 0, len(res.Entries))
	for _, e := range res.Entries {
		content := e.Fields[fieldContent]
		delete(e.Fields, fieldContent)
		out = append(out, result.New(
			strings.TrimPrefix(e.Key, chunkPrefix),
			e.Fields[domchunk.MetaDocumentID],
			e.Score,
			content,
			e.Fields,
		))
	}
	return out, nil
}

// DeleteDocument removes every chunk of a document.
func (r *Repo) DeleteDocument(ctx context.Context, documentID string) error {
	keys, err := r.store.Scan(ctx, chunkPrefix+documentID+":*")
	if err != nil {
		return fmt.Errorf("scan chunks of %s: %w", documentID, err)
	}
	if err := r.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("delete %d chunks of %s: %w", len(keys), documentID, err)
	}
	return nil
}

func buildIndex(dimensions int, cfg IndexConfig) (*db.IndexDefinition, error) {
	return db.NewIndex(indexName).
		Prefix(chunkPrefix).
		Tag(domchunk.MetaDocumentID).
		Tag(domchunk.MetaFileType).
		Numeric(domchunk.MetaChunkIndex).
		Vector(fieldVector, db.VectorParams{
			Algorithm:      cfg.Algorithm,
			Dim:            dimensions,
			Distance:       db.DistanceCosine,
			M:              cfg.M,
			EFConstruction: cfg.EFConstruct,
		}).As(vectorAlias).
		Build()
}

func chunkKey(id string) string {
	return chunkPrefix + id
}

func buildHashFields(c *domchunk.Chunk) map[string]string {
	m := make(map[string]string, len(c.Metadata())+3)
	for k, v := range c.Metadata() {
		m[k] = v
	}
	m[domchunk.MetaChunkIndex] = strconv.Itoa(c.Index())
	m[fieldContent] = c.Content()
	m[fieldVector] = vectorToBytes(c.Vector())
	return m
}
