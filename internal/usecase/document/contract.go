package document

import (
	"context"

	domdoc "github.com/kailas-cloud/pdfchat/internal/domain/document"
)

// Repository is the read side of the document metadata store.
type Repository interface {
	Get(ctx context.Context, id string) (domdoc.Document, error)
	List(ctx context.Context, limit int) ([]domdoc.Document, error)
}
