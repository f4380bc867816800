package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/pdfchat/internal/chunker"
	"github.com/kailas-cloud/pdfchat/internal/domain"
	domchunk "github.com/kailas-cloud/pdfchat/internal/domain/chunk"
	"github.com/kailas-cloud/pdfchat/internal/repository/memory"
	"github.com/kailas-cloud/pdfchat/internal/usecase/retrieval"
	"github.com/kailas-cloud/pdfchat/internal/usecase/search"
)

func newService(idx VectorIndex, docs DocumentStore, emb domain.Embedder) *Service {
	svc := New(chunker.New(), emb, idx, docs)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestIngest_InvoiceRoundTrip(t *testing.T) {
	idx := memory.NewVectorIndex()
	docs := memory.NewDocumentStore()
	emb := &mockEmbedder{}
	ctx := context.Background()

	sum, err := newService(idx, docs, emb).Ingest(ctx, Request{
		DocumentID: "d1", Filename: "a.pdf", FileSize: 26, Text: "The invoice total is $450.",
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if sum != (Summary{DocumentID: "d1", ChunksCreated: 1, Filename: "a.pdf"}) {
		t.Errorf("summary = %+v", sum)
	}
	if emb.batchCalls != 1 {
		t.Errorf("batch calls = %d, want 1", emb.batchCalls)
	}

	doc, err := docs.Get(ctx, "d1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.Chunks() != 1 || doc.FileType() != "pdf" {
		t.Errorf("stored doc = chunks %d type %q", doc.Chunks(), doc.FileType())
	}

	tools := retrieval.New(search.New(idx, emb), retrieval.Config{})
	out, err := tools.Retrieve(ctx, "invoice total", "d1")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if !strings.Contains(out, "$450") {
		t.Errorf("Retrieve() = %q", out)
	}
}

func TestIngest_ChunkMetadata(t *testing.T) {
	var got []domchunk.Chunk
	idx := &mockIndex{insertFn: func(_ context.Context, chunks []domchunk.Chunk) error {
		got = chunks
		return nil
	}}

	text := strings.Repeat("A sentence about invoices. ", 100)
	sum, err := newService(idx, memory.NewDocumentStore(), &mockEmbedder{}).Ingest(context.Background(), Request{
		DocumentID: "d2", Filename: "notes.txt", FileSize: int64(len(text)),
		ContentType: "text/plain; charset=utf-8", Text: text,
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if sum.ChunksCreated != len(got) || len(got) < 2 {
		t.Fatalf("chunks created = %d, inserted = %d", sum.ChunksCreated, len(got))
	}
	for i := range got {
		m := got[i].Metadata()
		if m[domchunk.MetaDocumentID] != "d2" || m[domchunk.MetaFilename] != "notes.txt" ||
			m[domchunk.MetaFileType] != "plain" || m[domchunk.MetaUploadDate] != "2026-03-01T12:00:00Z" {
			t.Errorf("chunk %d metadata = %v", i, m)
		}
		if got[i].Index() != i {
			t.Errorf("chunk %d has index %d", i, got[i].Index())
		}
	}
}

func TestIngest_GeneratesID(t *testing.T) {
	sum, err := newService(memory.NewVectorIndex(), memory.NewDocumentStore(), &mockEmbedder{}).
		Ingest(context.Background(), Request{Filename: "a.pdf", Text: "hello"})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if _, err := uuid.Parse(sum.DocumentID); err != nil {
		t.Errorf("generated id %q is not a UUID", sum.DocumentID)
	}
}

func TestIngest_ExistingIDLeavesOriginalIntact(t *testing.T) {
	ctx := context.Background()
	idx := memory.NewVectorIndex()
	docs := memory.NewDocumentStore()
	emb := &mockEmbedder{}

	if _, err := newService(idx, docs, emb).Ingest(ctx, Request{
		DocumentID: "d1", Filename: "a.pdf", FileSize: 26, Text: "The invoice total is $450.",
	}); err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	batches := emb.batchCalls

	_, err := newService(idx, docs, emb).Ingest(ctx, Request{
		DocumentID: "d1", Filename: "b.pdf", Text: "Something else entirely.",
	})
	var ie *domain.IngestionError
	if !errors.Is(err, domain.ErrDocumentExists) || !errors.As(err, &ie) || ie.Stage != StageValidate {
		t.Fatalf("re-upload error = %v", err)
	}

	failing := &mockIndex{insertFn: func(context.Context, []domchunk.Chunk) error {
		return errors.New("store down")
	}}
	if _, err := newService(failing, docs, emb).Ingest(ctx, Request{
		DocumentID: "d1", Filename: "c.pdf", Text: "Third try.",
	}); !errors.Is(err, domain.ErrDocumentExists) {
		t.Fatalf("re-upload with failing index error = %v", err)
	}
	if failing.deletedID != "" {
		t.Errorf("rollback ran against existing document %q", failing.deletedID)
	}
	if emb.batchCalls != batches {
		t.Error("embedder called for a rejected re-upload")
	}

	doc, err := docs.Get(ctx, "d1")
	if err != nil || doc.Filename() != "a.pdf" || doc.Chunks() != 1 {
		t.Fatalf("original row = %+v, %v", doc, err)
	}
	if idx.Len() != 1 {
		t.Errorf("index holds %d chunks, want the original 1", idx.Len())
	}
}

func TestIngest_ExistenceCheckFailure(t *testing.T) {
	docs := failingDocs{DocumentStore: memory.NewDocumentStore(), getErr: errors.New("metadata unavailable")}
	emb := &mockEmbedder{}

	_, err := newService(memory.NewVectorIndex(), docs, emb).Ingest(context.Background(), Request{
		DocumentID: "d1", Filename: "a.pdf", Text: "hello",
	})
	var ie *domain.IngestionError
	if !errors.As(err, &ie) || ie.Stage != StageMetadata || errors.Is(err, domain.ErrDocumentExists) {
		t.Fatalf("error = %v", err)
	}
	if emb.batchCalls != 0 {
		t.Error("embedder called after a failed existence check")
	}
}

func TestIngest_RejectsBeforeWork(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"empty text", Request{DocumentID: "d1", Filename: "a.pdf", Text: "  \n "}, domain.ErrEmptyText},
		{"too large", Request{DocumentID: "d1", Filename: "a.pdf", FileSize: DefaultMaxFileSize + 1, Text: "x"}, domain.ErrFileTooLarge},
		{"no filename", Request{DocumentID: "d1", Text: "x"}, domain.ErrInvalidInput},
		{"bad id", Request{DocumentID: "a b", Filename: "a.pdf", Text: "x"}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb := &mockEmbedder{}
			docs := memory.NewDocumentStore()
			_, err := newService(memory.NewVectorIndex(), docs, emb).Ingest(context.Background(), tt.req)

			if !errors.Is(err, tt.want) || !errors.Is(err, domain.ErrIngestion) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
			var ie *domain.IngestionError
			if !errors.As(err, &ie) || ie.Stage != StageValidate {
				t.Errorf("stage = %+v", ie)
			}
			if emb.batchCalls != 0 {
				t.Error("embedder called for rejected input")
			}
		})
	}
}

func TestIngest_EmbedFailureStoresNothing(t *testing.T) {
	docs := memory.NewDocumentStore()
	idx := memory.NewVectorIndex()
	emb := &mockEmbedder{err: domain.ErrEmbeddingProviderError}

	_, err := newService(idx, docs, emb).Ingest(context.Background(), Request{
		DocumentID: "d1", Filename: "a.pdf", Text: "hello",
	})
	var ie *domain.IngestionError
	if !errors.As(err, &ie) || ie.Stage != StageEmbed || !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("error = %v", err)
	}
	if list, _ := docs.List(context.Background(), 0); len(list) != 0 || idx.Len() != 0 {
		t.Errorf("partial state left: %d docs, %d chunks", len(list), idx.Len())
	}
}

func TestIngest_InsertFailureRollsBack(t *testing.T) {
	docs := memory.NewDocumentStore()
	idx := &mockIndex{insertFn: func(context.Context, []domchunk.Chunk) error {
		return errors.New("index unavailable")
	}}

	_, err := newService(idx, docs, &mockEmbedder{}).Ingest(context.Background(), Request{
		DocumentID: "d1", Filename: "a.pdf", Text: "hello",
	})
	var ie *domain.IngestionError
	if !errors.As(err, &ie) || ie.Stage != StageStore {
		t.Fatalf("error = %v", err)
	}
	if idx.deletedID != "d1" {
		t.Errorf("chunks not rolled back, deleted %q", idx.deletedID)
	}
	if _, err := docs.Get(context.Background(), "d1"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("metadata row survived rollback: %v", err)
	}
}

func TestIngest_RollbackErrorsAreJoined(t *testing.T) {
	idx := &mockIndex{
		insertFn:  func(context.Context, []domchunk.Chunk) error { return errors.New("insert failed") },
		deleteErr: errors.New("delete failed"),
	}
	_, err := newService(idx, memory.NewDocumentStore(), &mockEmbedder{}).Ingest(context.Background(), Request{
		DocumentID: "d1", Filename: "a.pdf", Text: "hello",
	})
	if err == nil || !strings.Contains(err.Error(), "insert failed") || !strings.Contains(err.Error(), "delete failed") {
		t.Errorf("error = %v", err)
	}
}

func TestFileType(t *testing.T) {
	tests := map[string]string{
		"":                          "",
		"application/pdf":           "pdf",
		"text/markdown; charset=x":  "markdown",
		"PDF":                       "pdf",
	}
	for in, want := range tests {
		if got := fileType(in); got != want {
			t.Errorf("fileType(%q) = %q, want %q", in, got, want)
		}
	}
}
