// Package document stores document metadata rows as Redis hashes.
package document

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	domdoc "github.com/kailas-cloud/pdfchat/internal/domain/document"
)

const keyPrefix = domain.KeyPrefix + "doc:"

// store is the consumer interface for document rows (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements the document metadata store.
type Repo struct {
	store store
}

// New creates a document repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Save writes the metadata row, replacing any previous one.
func (r *Repo) Save(ctx context.Context, doc domdoc.Document) error {
	key := docKey(doc.ID())
	if err := r.store.HSet(ctx, key, buildHashFields(&doc)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Get returns a document by ID.
func (r *Repo) Get(ctx context.Context, id string) (domdoc.Document, error) {
	key := docKey(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domdoc.Document{}, domain.NewDocumentNotFound(id)
	}
	return parseHashFields(id, m)
}

// List returns documents ordered by upload date descending. limit <= 0 means all.
func (r *Repo) List(ctx context.Context, limit int) ([]domdoc.Document, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	rows, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	docs := make([]domdoc.Document, 0, len(rows))
	for i, m := range rows {
		// deleted between SCAN and HGETALL
		if len(m) == 0 {
			continue
		}
		id := strings.TrimPrefix(keys[i], keyPrefix)
		doc, err := parseHashFields(id, m)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	sort.Slice(docs, func(i, j int) bool { return domdoc.Newer(docs[i], docs[j]) })
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

// Delete removes a document row. A missing row is not an error.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := docKey(id)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func docKey(id string) string {
	return keyPrefix + id
}
