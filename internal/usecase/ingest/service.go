// Package ingest turns extracted document text into indexed chunks.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	domchunk "github.com/kailas-cloud/pdfchat/internal/domain/chunk"
	domdoc "github.com/kailas-cloud/pdfchat/internal/domain/document"
	"github.com/kailas-cloud/pdfchat/internal/logger"
	"github.com/kailas-cloud/pdfchat/internal/metrics"
)

// DefaultMaxFileSize is the largest accepted upload: 10 MiB.
const DefaultMaxFileSize int64 = 10 << 20

// Pipeline stages reported in domain.IngestionError.
const (
	StageValidate = "validate"
	StageChunk    = "chunk"
	StageEmbed    = "embed"
	StageMetadata = "metadata"
	StageStore    = "store"
)

// Request is one extracted upload. DocumentID is generated when empty; an
// explicit one must not name a document that already exists.
type Request struct {
	DocumentID  string
	Filename    string
	FileSize    int64
	ContentType string
	Text        string
}

// Summary describes a completed ingestion.
type Summary struct {
	DocumentID    string
	ChunksCreated int
	Filename      string
}

// Service is the ingestion pipeline: chunk, embed, store.
type Service struct {
	splitter    Splitter
	embed       domain.Embedder
	index       VectorIndex
	docs        DocumentStore
	maxFileSize int64
	now         func() time.Time
}

// New creates the ingestion pipeline.
func New(splitter Splitter, embed domain.Embedder, index VectorIndex, docs DocumentStore) *Service {
	return &Service{
		splitter:    splitter,
		embed:       embed,
		index:       index,
		docs:        docs,
		maxFileSize: DefaultMaxFileSize,
		now:         time.Now,
	}
}

// WithMaxFileSize overrides the upload size limit.
func (s *Service) WithMaxFileSize(n int64) *Service {
	if n > 0 {
		s.maxFileSize = n
	}
	return s
}

// Ingest indexes one document. Either every chunk lands and the metadata row
// exists, or the call fails with a *domain.IngestionError and nothing of the
// document stays visible.
func (s *Service) Ingest(ctx context.Context, req Request) (Summary, error) {
	start := time.Now()

	sum, err := s.ingest(ctx, req)
	if err != nil {
		metrics.IngestDocumentsTotal.WithLabelValues("failed").Inc()
		logger.FromContext(ctx).Warn("ingestion failed",
			zap.String("document_id", req.DocumentID),
			zap.String("filename", req.Filename),
			zap.Error(err),
		)
		return Summary{}, err
	}

	metrics.IngestDocumentsTotal.WithLabelValues("ok").Inc()
	metrics.IngestChunksTotal.Add(float64(sum.ChunksCreated))
	logger.FromContext(ctx).Info("document ingested",
		zap.String("document_id", sum.DocumentID),
		zap.String("filename", sum.Filename),
		zap.Int("chunks", sum.ChunksCreated),
		zap.Duration("duration", time.Since(start)),
	)
	return sum, nil
}

func (s *Service) ingest(ctx context.Context, req Request) (Summary, error) {
	explicitID := req.DocumentID != ""
	if !explicitID {
		req.DocumentID = uuid.NewString()
	}
	id := req.DocumentID

	if req.FileSize > s.maxFileSize {
		return Summary{}, domain.NewIngestionError(id, StageValidate,
			fmt.Errorf("%d bytes exceeds %d: %w", req.FileSize, s.maxFileSize, domain.ErrFileTooLarge))
	}
	if strings.TrimSpace(req.Text) == "" {
		return Summary{}, domain.NewIngestionError(id, StageValidate, domain.ErrEmptyText)
	}
	doc, err := domdoc.New(id, req.Filename, req.FileSize, fileType(req.ContentType), s.now())
	if err != nil {
		return Summary{}, domain.NewIngestionError(id, StageValidate, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
	}

	if explicitID {
		if err := s.ensureNew(ctx, id); err != nil {
			return Summary{}, err
		}
	}

	texts, err := s.splitter.Split(req.Text)
	if err != nil {
		return Summary{}, domain.NewIngestionError(id, StageChunk, err)
	}

	emb, err := domain.EmbedAll(ctx, s.embed, texts)
	if err != nil {
		return Summary{}, domain.NewIngestionError(id, StageEmbed, err)
	}

	meta := domchunk.MetadataFor(&doc)
	chunks := make([]domchunk.Chunk, len(texts))
	for i, text := range texts {
		c, err := domchunk.New(id, i, text, emb.Embeddings[i], meta)
		if err != nil {
			return Summary{}, domain.NewIngestionError(id, StageEmbed, fmt.Errorf("chunk %d: %w", i, err))
		}
		chunks[i] = c
	}

	doc = doc.WithChunks(len(chunks))
	if err := s.docs.Save(ctx, doc); err != nil {
		return Summary{}, domain.NewIngestionError(id, StageMetadata, err)
	}
	if err := s.index.Insert(ctx, chunks); err != nil {
		return Summary{}, domain.NewIngestionError(id, StageStore, s.rollback(ctx, id, err))
	}

	return Summary{DocumentID: id, ChunksCreated: len(chunks), Filename: doc.Filename()}, nil
}

// ensureNew rejects an ID that already has a metadata row. Documents are
// never replaced, and a later rollback must not touch someone else's chunks.
func (s *Service) ensureNew(ctx context.Context, id string) error {
	_, err := s.docs.Get(ctx, id)
	switch {
	case err == nil:
		return domain.NewIngestionError(id, StageValidate, domain.ErrDocumentExists)
	case errors.Is(err, domain.ErrDocumentNotFound):
		return nil
	default:
		return domain.NewIngestionError(id, StageMetadata, fmt.Errorf("check existing: %w", err))
	}
}

// rollback removes the metadata row and any chunks that did land. It runs on
// a context detached from cancellation so an aborted request still cleans up.
func (s *Service) rollback(ctx context.Context, id string, cause error) error {
	ctx = context.WithoutCancel(ctx)
	errs := []error{cause}
	if err := s.index.DeleteDocument(ctx, id); err != nil {
		errs = append(errs, fmt.Errorf("rollback chunks: %w", err))
	}
	if err := s.docs.Delete(ctx, id); err != nil {
		errs = append(errs, fmt.Errorf("rollback metadata: %w", err))
	}
	return errors.Join(errs...)
}

// fileType turns a media type into the short label stored with the document:
// "application/pdf" becomes "pdf". Empty stays empty and takes the default.
func fileType(contentType string) string {
	kind, _, _ := strings.Cut(contentType, ";")
	kind = strings.ToLower(strings.TrimSpace(kind))
	if _, sub, ok := strings.Cut(kind, "/"); ok {
		return sub
	}
	return kind
}
