package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/domain/message"
	"github.com/kailas-cloud/pdfchat/internal/domain/search/filter"
	"github.com/kailas-cloud/pdfchat/internal/domain/search/result"
)

func TestRetrieve_JoinsTopChunksInRankOrder(t *testing.T) {
	s := &mockSearcher{searchFn: func(_ context.Context, q string, k int, f filter.Expression) ([]result.Result, error) {
		if q != "invoice total" || k != 3 {
			t.Errorf("query=%q k=%d", q, k)
		}
		if f.AsMap()["document_id"] != "d1" || len(f.Must()) != 1 {
			t.Errorf("filter = %v", f.AsMap())
		}
		return []result.Result{
			result.New("d1:0", "d1", 0.9, "The invoice total is $450.", nil),
			result.New("d1:1", "d1", 0.5, "Payment due in 30 days.", nil),
		}, nil
	}}

	out, err := New(s, Config{}).Retrieve(context.Background(), "invoice total", "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "The invoice total is $450.\nPayment due in 30 days." {
		t.Errorf("Retrieve() = %q", out)
	}
}

func TestRetrieve_EmptyDocumentIsEmptyString(t *testing.T) {
	out, err := New(&mockSearcher{}, Config{}).Retrieve(context.Background(), "anything", "missing")
	if err != nil || out != "" {
		t.Fatalf("Retrieve() = %q, %v", out, err)
	}
}

func TestRetrieve_SearchErrorPropagates(t *testing.T) {
	s := &mockSearcher{searchFn: func(context.Context, string, int, filter.Expression) ([]result.Result, error) {
		return nil, domain.NewRetrievalError("q", domain.ErrEmbeddingProviderError)
	}}
	_, err := New(s, Config{}).Retrieve(context.Background(), "q", "d1")
	if !errors.Is(err, domain.ErrRetrieval) {
		t.Fatalf("expected ErrRetrieval, got %v", err)
	}
}

func TestFindSimilarDocuments_DedupAndLimit(t *testing.T) {
	s := &mockSearcher{searchFn: func(_ context.Context, _ string, k int, f filter.Expression) ([]result.Result, error) {
		if k != 10 || !f.IsEmpty() {
			t.Errorf("k=%d filter=%v", k, f.AsMap())
		}
		return hits("a", "b", "a", "c", "b", "d", "e", "f", "g", "a"), nil
	}}

	out, err := New(s, Config{}).FindSimilarDocuments(context.Background(), "contracts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := strings.Split(out, "\n")
	want := []string{"a", "b", "c", "d", "e"}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Errorf("ids = %v, want %v", ids, want)
	}
}

func TestFindSimilarDocuments_FewerThanLimit(t *testing.T) {
	s := &mockSearcher{searchFn: func(context.Context, string, int, filter.Expression) ([]result.Result, error) {
		return hits("x", "x", "y"), nil
	}}
	out, _ := New(s, Config{}).FindSimilarDocuments(context.Background(), "q")
	if out != "x\ny" {
		t.Errorf("FindSimilarDocuments() = %q", out)
	}
}

func TestConfig_Overrides(t *testing.T) {
	var gotK int
	s := &mockSearcher{searchFn: func(_ context.Context, _ string, k int, _ filter.Expression) ([]result.Result, error) {
		gotK = k
		return hits("a", "b", "c"), nil
	}}
	tools := New(s, Config{ScopedK: 7, DiscoveryK: 20, DiscoveryLimit: 2})

	_, _ = tools.Retrieve(context.Background(), "q", "d1")
	if gotK != 7 {
		t.Errorf("scoped k = %d", gotK)
	}
	out, _ := tools.FindSimilarDocuments(context.Background(), "q")
	if gotK != 20 || out != "a\nb" {
		t.Errorf("discovery k = %d, out = %q", gotK, out)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		call    message.ToolCall
		want    Call
		wantErr error
	}{
		{
			name: "scoped",
			call: message.ToolCall{Name: "retrieve", Arguments: `{"query":"total","document_id":"d1"}`},
			want: ScopedRetrieval{Query: "total", DocumentID: "d1"},
		},
		{
			name: "discovery",
			call: message.ToolCall{Name: "findSimilarDocuments", Arguments: `{"query":"warranty"}`},
			want: Discovery{Query: "warranty"},
		},
		{
			name:    "missing document id",
			call:    message.ToolCall{Name: "retrieve", Arguments: `{"query":"total"}`},
			wantErr: domain.ErrInvalidToolArguments,
		},
		{
			name:    "blank query",
			call:    message.ToolCall{Name: "findSimilarDocuments", Arguments: `{"query":"  "}`},
			wantErr: domain.ErrInvalidToolArguments,
		},
		{
			name:    "malformed json",
			call:    message.ToolCall{Name: "retrieve", Arguments: `{"query":`},
			wantErr: domain.ErrInvalidToolArguments,
		},
		{
			name:    "unknown tool",
			call:    message.ToolCall{Name: "deleteEverything", Arguments: `{}`},
			wantErr: domain.ErrUnknownTool,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.call)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Parse() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestExecute_Dispatch(t *testing.T) {
	var filtered bool
	s := &mockSearcher{searchFn: func(_ context.Context, _ string, _ int, f filter.Expression) ([]result.Result, error) {
		filtered = !f.IsEmpty()
		return hits("d1"), nil
	}}
	tools := New(s, Config{})

	out, err := tools.Execute(context.Background(), ScopedRetrieval{Query: "q", DocumentID: "d1"})
	if err != nil || out != "content of d1" || !filtered {
		t.Errorf("scoped: %q, %v, filtered=%v", out, err, filtered)
	}
	out, err = tools.Execute(context.Background(), Discovery{Query: "q"})
	if err != nil || out != "d1" || filtered {
		t.Errorf("discovery: %q, %v, filtered=%v", out, err, filtered)
	}
}

func TestSpecs_DeclareRequiredArguments(t *testing.T) {
	specs := New(&mockSearcher{}, Config{}).Specs()
	if len(specs) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(specs))
	}
	for _, s := range specs {
		for _, p := range s.Params {
			if !p.Required {
				t.Errorf("%s.%s should be required", s.Name, p.Name)
			}
		}
	}
	if specs[0].Name != ToolRetrieve || len(specs[0].Params) != 2 {
		t.Errorf("retrieve tool = %+v", specs[0])
	}
}
