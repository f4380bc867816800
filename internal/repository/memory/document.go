package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/domain/document"
)

// DocumentStore holds document metadata rows keyed by ID.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]document.Document
}

// NewDocumentStore creates an empty store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]document.Document)}
}

// Save inserts or replaces the row for doc.
func (s *DocumentStore) Save(_ context.Context, doc document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID()] = doc
	return nil
}

// Get returns one document or a NotFoundError.
func (s *DocumentStore) Get(_ context.Context, id string) (document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return document.Document{}, domain.NewDocumentNotFound(id)
	}
	return doc, nil
}

// List returns documents newest first. limit <= 0 means all.
func (s *DocumentStore) List(_ context.Context, limit int) ([]document.Document, error) {
	s.mu.RLock()
	out := make([]document.Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, d)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return document.Newer(out[i], out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes a row. Deleting an unknown ID is a no-op.
func (s *DocumentStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	return nil
}
