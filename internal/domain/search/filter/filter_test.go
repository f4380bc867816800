package filter

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/pdfchat/internal/domain/chunk"
)

func TestNewMatch_Validation(t *testing.T) {
	if _, err := NewMatch("", "v"); err == nil {
		t.Error("expected error for empty key")
	}
	_, err := NewMatch("document_id", "")
	if err == nil || !strings.Contains(err.Error(), "document_id") {
		t.Errorf("expected error naming the key, got %v", err)
	}
}

func TestByDocument(t *testing.T) {
	expr, err := ByDocument("d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expr.IsEmpty() {
		t.Fatal("expression should not be empty")
	}
	c := expr.Must()[0]
	if c.Key() != chunk.MetaDocumentID || c.Value() != "d1" {
		t.Errorf("condition = %s=%s", c.Key(), c.Value())
	}

	if _, err := ByDocument(""); err == nil {
		t.Error("expected error for empty document id")
	}
}

func TestExpression_Matches(t *testing.T) {
	expr, _ := ByDocument("d1")

	tests := []struct {
		name string
		meta map[string]string
		want bool
	}{
		{"same document", map[string]string{"document_id": "d1", "filename": "a.pdf"}, true},
		{"other document", map[string]string{"document_id": "d2"}, false},
		{"missing key", map[string]string{"filename": "a.pdf"}, false},
		{"nil metadata", nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := expr.Matches(tc.meta); got != tc.want {
				t.Errorf("Matches() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestExpression_ZeroValueMatchesAll(t *testing.T) {
	var expr Expression
	if !expr.IsEmpty() {
		t.Error("zero value should be empty")
	}
	if !expr.Matches(nil) {
		t.Error("empty expression should match anything")
	}
	if expr.AsMap() != nil {
		t.Error("AsMap() of empty expression should be nil")
	}
}

func TestNewExpression_Limits(t *testing.T) {
	conds := make([]Condition, MaxConditions+1)
	for i := range conds {
		conds[i], _ = NewMatch("k"+string(rune('a'+i)), "v")
	}
	if _, err := NewExpression(conds...); err == nil {
		t.Error("expected error for too many conditions")
	}
}

func TestNewExpression_Conflict(t *testing.T) {
	a, _ := NewMatch("document_id", "d1")
	b, _ := NewMatch("document_id", "d2")
	if _, err := NewExpression(a, b); err == nil {
		t.Error("expected error for conflicting values")
	}
}

func TestExpression_AsMap(t *testing.T) {
	a, _ := NewMatch("document_id", "d1")
	b, _ := NewMatch("file_type", "pdf")
	expr, err := NewExpression(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := expr.AsMap()
	if len(m) != 2 || m["document_id"] != "d1" || m["file_type"] != "pdf" {
		t.Errorf("AsMap() = %v", m)
	}
}
