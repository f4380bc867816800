// Package document serves document metadata listings and lookups.
package document

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	domdoc "github.com/kailas-cloud/pdfchat/internal/domain/document"
)

// Service reads ingested document metadata.
type Service struct {
	repo        Repository
	maxPageSize int
}

// New creates a document service.
func New(repo Repository) *Service {
	return &Service{repo: repo, maxPageSize: 1000}
}

// WithPagination caps how many documents one List call returns.
func (s *Service) WithPagination(maxPageSize int) *Service {
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// List returns documents newest first. A zero limit returns all of them up to
// the page cap.
func (s *Service) List(ctx context.Context, limit int) ([]domdoc.Document, error) {
	if limit < 0 {
		return nil, fmt.Errorf("limit must not be negative: %w", domain.ErrInvalidInput)
	}
	if limit == 0 || limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	docs, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Get returns one document's metadata.
func (s *Service) Get(ctx context.Context, id string) (domdoc.Document, error) {
	if err := domdoc.ValidateID(id); err != nil {
		return domdoc.Document{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}
