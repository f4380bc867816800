package result

import (
	"testing"

	"github.com/kailas-cloud/pdfchat/internal/domain/chunk"
)

func TestNew(t *testing.T) {
	meta := map[string]string{"filename": "a.pdf"}
	r := New("d1:0", "d1", 0.95, "hello", meta)

	if r.ID() != "d1:0" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.DocumentID() != "d1" {
		t.Errorf("DocumentID() = %q", r.DocumentID())
	}
	if r.Score() != 0.95 {
		t.Errorf("Score() = %f", r.Score())
	}
	if r.Content() != "hello" {
		t.Errorf("Content() = %q", r.Content())
	}
	if r.Metadata()["filename"] != "a.pdf" {
		t.Errorf("Metadata() = %v", r.Metadata())
	}
}

func TestFromChunk(t *testing.T) {
	c, err := chunk.New("d1", 3, "text", []float32{1}, nil)
	if err != nil {
		t.Fatalf("chunk.New: %v", err)
	}
	r := FromChunk(&c, 0.5)
	if r.ID() != "d1:3" || r.DocumentID() != "d1" || r.Content() != "text" {
		t.Errorf("unexpected result: %+v", r)
	}
}
