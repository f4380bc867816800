package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	domchunk "github.com/kailas-cloud/pdfchat/internal/domain/chunk"
	"github.com/kailas-cloud/pdfchat/internal/domain/message"
	"github.com/kailas-cloud/pdfchat/internal/repository/memory"
	"github.com/kailas-cloud/pdfchat/internal/usecase/retrieval"
	"github.com/kailas-cloud/pdfchat/internal/usecase/search"
)

// step is one scripted model response.
type step func(req domain.ChatRequest) (domain.ChatResponse, error)

// scriptedModel replays steps in order and records every request.
type scriptedModel struct {
	mu       sync.Mutex
	steps    []step
	requests []domain.ChatRequest
}

func (m *scriptedModel) Complete(_ context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	i := len(m.requests) - 1
	if i >= len(m.steps) {
		return domain.ChatResponse{}, errors.New("script exhausted")
	}
	return m.steps[i](req)
}

func (m *scriptedModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func answer(text string) step {
	return func(domain.ChatRequest) (domain.ChatResponse, error) {
		return domain.ChatResponse{Content: text, PromptTokens: 10, CompletionTokens: 5}, nil
	}
}

func callTool(id, name, args string) step {
	return func(domain.ChatRequest) (domain.ChatResponse, error) {
		return domain.ChatResponse{
			ToolCalls:    []message.ToolCall{{ID: id, Name: name, Arguments: args}},
			PromptTokens: 20, CompletionTokens: 3,
		}, nil
	}
}

// keywordEmbedder maps text onto three axes: invoices, warranties, other.
type keywordEmbedder struct{}

func (keywordEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: keywordVector(text)}, nil
}

func keywordVector(text string) []float32 {
	t := strings.ToLower(text)
	v := []float32{0.01, 0.01, 0.01}
	switch {
	case strings.Contains(t, "invoice") || strings.Contains(t, "total"):
		v[0] = 1
	case strings.Contains(t, "warranty"):
		v[1] = 1
	default:
		v[2] = 1
	}
	return v
}

// faultyMemory fails History or Append on demand.
type faultyMemory struct {
	historyErr error
	appendErr  error
}

func (f *faultyMemory) History(context.Context, string) ([]message.Message, error) {
	return nil, f.historyErr
}

func (f *faultyMemory) Append(context.Context, string, ...message.Message) error {
	return f.appendErr
}

type fixture struct {
	memory *memory.ThreadStore
	index  *memory.VectorIndex
	tools  *retrieval.Tools
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	idx := memory.NewVectorIndex()
	return &fixture{
		memory: memory.NewThreadStore(),
		index:  idx,
		tools:  retrieval.New(search.New(idx, keywordEmbedder{}), retrieval.Config{}),
	}
}

func (f *fixture) load(t *testing.T, docID string, passages ...string) {
	t.Helper()
	chunks := make([]domchunk.Chunk, 0, len(passages))
	for i, p := range passages {
		c, err := domchunk.New(docID, i, p, keywordVector(p), nil)
		if err != nil {
			t.Fatalf("chunk.New: %v", err)
		}
		chunks = append(chunks, c)
	}
	if err := f.index.Insert(context.Background(), chunks); err != nil {
		t.Fatalf("Insert: %v", err)
	}
}

func (f *fixture) agent(model Model, cfg Config) *Service {
	return New(f.memory, model, f.tools, cfg)
}

func (f *fixture) history(t *testing.T, threadID string) []message.Message {
	t.Helper()
	h, err := f.memory.History(context.Background(), threadID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	return h
}

func lastMessage(req domain.ChatRequest) message.Message {
	return req.Messages[len(req.Messages)-1]
}
