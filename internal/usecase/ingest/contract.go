package ingest

import (
	"context"

	domchunk "github.com/kailas-cloud/pdfchat/internal/domain/chunk"
	domdoc "github.com/kailas-cloud/pdfchat/internal/domain/document"
)

// Splitter segments extracted text.
type Splitter interface {
	Split(text string) ([]string, error)
}

// VectorIndex is the write side of the vector index.
type VectorIndex interface {
	Insert(ctx context.Context, chunks []domchunk.Chunk) error
	DeleteDocument(ctx context.Context, documentID string) error
}

// DocumentStore persists document metadata rows.
type DocumentStore interface {
	Get(ctx context.Context, id string) (domdoc.Document, error)
	Save(ctx context.Context, doc domdoc.Document) error
	Delete(ctx context.Context, id string) error
}
