package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	domdoc "github.com/kailas-cloud/pdfchat/internal/domain/document"
)

const documentColumns = `id, filename, file_size, file_type, upload_date, chunks`

// DocumentStore implements the document metadata store on the documents table.
type DocumentStore struct {
	db *sql.DB
}

// Save inserts or replaces a row.
func (s *DocumentStore) Save(ctx context.Context, doc domdoc.Document) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID(), doc.Filename(), doc.FileSize(), doc.FileType(), doc.UploadedAt().UnixNano(), doc.Chunks(),
	)
	if err != nil {
		return fmt.Errorf("save document %s: %w", doc.ID(), err)
	}
	return nil
}

// Get returns one row or a NotFoundError.
func (s *DocumentStore) Get(ctx context.Context, id string) (domdoc.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domdoc.Document{}, domain.NewDocumentNotFound(id)
	}
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	return doc, nil
}

// List returns rows newest first. limit <= 0 means all.
func (s *DocumentStore) List(ctx context.Context, limit int) ([]domdoc.Document, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY upload_date DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []domdoc.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// Delete removes a row. A missing row is not an error.
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(sc scanner) (domdoc.Document, error) {
	var (
		id, filename, fileType string
		size, uploaded         int64
		chunks                 int
	)
	if err := sc.Scan(&id, &filename, &size, &fileType, &uploaded, &chunks); err != nil {
		return domdoc.Document{}, fmt.Errorf("scan document: %w", err)
	}
	return domdoc.Reconstruct(id, filename, size, fileType, time.Unix(0, uploaded), chunks), nil
}
