package gemini

import (
	"errors"
	"testing"
	"time"

	"google.golang.org/genai"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/domain/message"
)

func TestToContents_Roles(t *testing.T) {
	now := time.Now()
	user, _ := message.NewUser("Document ID: d1\nUser Query: warranty?", now)
	c1 := message.ToolCall{ID: "a", Name: "retrieve", Arguments: `{"query":"warranty","document_id":"d1"}`}
	c2 := message.ToolCall{ID: "b", Name: "findSimilarDocuments", Arguments: `{"query":"warranty"}`}
	calls, _ := message.NewToolCalls("", []message.ToolCall{c1, c2}, now)

	contents, err := toContents([]message.Message{
		user,
		calls,
		message.NewToolResult(c1, "The warranty is 2 years.", now),
		message.NewToolResult(c2, "d1", now),
		message.NewAssistant("2 years.", now),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 4 {
		t.Fatalf("expected 4 contents, got %d", len(contents))
	}
	if contents[0].Role != genai.RoleUser || contents[0].Parts[0].Text == "" {
		t.Errorf("user turn = %+v", contents[0])
	}

	model := contents[1]
	if model.Role != genai.RoleModel || len(model.Parts) != 2 {
		t.Fatalf("model turn = %+v", model)
	}
	fc := model.Parts[0].FunctionCall
	if fc == nil || fc.Name != "retrieve" || fc.Args["document_id"] != "d1" {
		t.Errorf("function call = %+v", fc)
	}

	responses := contents[2]
	if responses.Role != genai.RoleUser || len(responses.Parts) != 2 {
		t.Fatalf("tool results should fold into one turn: %+v", responses)
	}
	fr := responses.Parts[0].FunctionResponse
	if fr.ID != "a" || fr.Name != "retrieve" || fr.Response["output"] != "The warranty is 2 years." {
		t.Errorf("function response = %+v", fr)
	}

	if contents[3].Role != genai.RoleModel || contents[3].Parts[0].Text != "2 years." {
		t.Errorf("answer = %+v", contents[3])
	}
}

func TestToContents_BadArguments(t *testing.T) {
	calls, _ := message.NewToolCalls("", []message.ToolCall{{ID: "a", Name: "retrieve", Arguments: "{oops"}}, time.Now())
	if _, err := toContents([]message.Message{calls}); err == nil {
		t.Fatal("expected error for malformed arguments")
	}
}

func TestToTools_Schema(t *testing.T) {
	tools := toTools([]domain.ToolSpec{{
		Name: "retrieve",
		Params: []domain.ToolParam{
			{Name: "query", Required: true},
			{Name: "document_id", Required: true},
		},
	}})
	if len(tools) != 1 || len(tools[0].FunctionDeclarations) != 1 {
		t.Fatalf("tools = %+v", tools)
	}
	schema := tools[0].FunctionDeclarations[0].Parameters
	if schema.Type != genai.TypeObject || len(schema.Properties) != 2 || len(schema.Required) != 2 {
		t.Errorf("schema = %+v", schema)
	}
	if toTools(nil) != nil {
		t.Error("no specs should produce no tools")
	}
}

func TestFromResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{
				{Text: "Looking it up."},
				{FunctionCall: &genai.FunctionCall{Name: "retrieve", Args: map[string]any{"query": "total", "document_id": "d1"}}},
			}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 30, CandidatesTokenCount: 7},
	}

	out, err := fromResponse(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Content != "Looking it up." || len(out.ToolCalls) != 1 {
		t.Fatalf("response = %+v", out)
	}
	tc := out.ToolCalls[0]
	if tc.ID == "" || tc.Name != "retrieve" || tc.Arguments != `{"document_id":"d1","query":"total"}` {
		t.Errorf("tool call = %+v", tc)
	}
	if out.PromptTokens != 30 || out.CompletionTokens != 7 {
		t.Errorf("usage = %d/%d", out.PromptTokens, out.CompletionTokens)
	}
}

func TestFromResponse_Empty(t *testing.T) {
	_, err := fromResponse(&genai.GenerateContentResponse{})
	if !errors.Is(err, domain.ErrModelProviderError) {
		t.Fatalf("expected ErrModelProviderError, got %v", err)
	}
}
