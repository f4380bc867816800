package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/domain/message"
)

// chatRequest captures the fields of a chat completion request the tests inspect.
type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role       string `json:"role"`
		Content    string `json:"content"`
		ToolCallID string `json:"tool_call_id"`
		ToolCalls  []struct {
			ID       string `json:"id"`
			Function struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	} `json:"messages"`
	Tools []struct {
		Type     string `json:"type"`
		Function struct {
			Name       string `json:"name"`
			Parameters struct {
				Type       string                     `json:"type"`
				Properties map[string]json.RawMessage `json:"properties"`
				Required   []string                   `json:"required"`
			} `json:"parameters"`
		} `json:"function"`
	} `json:"tools"`
}

func chatServer(t *testing.T, reply map[string]any, inspect func(chatRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if inspect != nil {
			inspect(req)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(reply)
	}))
}

func newTestChat(url string) *ChatModel {
	return NewChatModel(&Config{APIKey: "test-key", BaseURL: url, Model: "test-chat", Provider: "test"})
}

var retrieveSpec = domain.ToolSpec{
	Name:        "retrieve",
	Description: "search a document",
	Params: []domain.ToolParam{
		{Name: "query", Description: "search text", Required: true},
		{Name: "document_id", Description: "document", Required: true},
	},
}

func TestChatModel_ToolCallResponse(t *testing.T) {
	reply := map[string]any{
		"id": "cmpl-1",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "tool_calls",
			"message": map[string]any{
				"role": "assistant",
				"tool_calls": []map[string]any{{
					"id":   "call_1",
					"type": "function",
					"function": map[string]any{
						"name":      "retrieve",
						"arguments": `{"query":"invoice total","document_id":"d1"}`,
					},
				}},
			},
		}},
		"usage": map[string]any{"prompt_tokens": 50, "completion_tokens": 12, "total_tokens": 62},
	}

	server := chatServer(t, reply, func(req chatRequest) {
		if req.Model != "test-chat" {
			t.Errorf("model = %s", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("messages = %+v", req.Messages)
		}
		if len(req.Tools) != 1 || req.Tools[0].Function.Name != "retrieve" {
			t.Fatalf("tools = %+v", req.Tools)
		}
		params := req.Tools[0].Function.Parameters
		if params.Type != "object" || len(params.Properties) != 2 || len(params.Required) != 2 {
			t.Errorf("parameters = %+v", params)
		}
	})
	defer server.Close()

	user, _ := message.NewUser("Document ID: d1\nUser Query: what is the total?", time.Now())
	resp, err := newTestChat(server.URL).Complete(context.Background(), domain.ChatRequest{
		System:   "you answer questions about documents",
		Messages: []message.Message{user},
		Tools:    []domain.ToolSpec{retrieveSpec},
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if len(resp.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(resp.ToolCalls))
	}
	tc := resp.ToolCalls[0]
	if tc.ID != "call_1" || tc.Name != "retrieve" || tc.Arguments != `{"query":"invoice total","document_id":"d1"}` {
		t.Errorf("tool call = %+v", tc)
	}
	if resp.PromptTokens != 50 || resp.CompletionTokens != 12 {
		t.Errorf("usage = %d/%d", resp.PromptTokens, resp.CompletionTokens)
	}
}

func TestChatModel_ReplaysToolTurns(t *testing.T) {
	reply := map[string]any{
		"choices": []map[string]any{{
			"message":       map[string]any{"role": "assistant", "content": "The total is $450."},
			"finish_reason": "stop",
		}},
	}
	server := chatServer(t, reply, func(req chatRequest) {
		if len(req.Messages) != 3 {
			t.Fatalf("expected 3 messages, got %d", len(req.Messages))
		}
		assistant := req.Messages[1]
		if assistant.Role != "assistant" || len(assistant.ToolCalls) != 1 || assistant.ToolCalls[0].ID != "call_1" {
			t.Errorf("assistant turn = %+v", assistant)
		}
		tool := req.Messages[2]
		if tool.Role != "tool" || tool.ToolCallID != "call_1" || tool.Content != "The invoice total is $450." {
			t.Errorf("tool turn = %+v", tool)
		}
	})
	defer server.Close()

	now := time.Now()
	user, _ := message.NewUser("what is the total?", now)
	call := message.ToolCall{ID: "call_1", Name: "retrieve", Arguments: `{"query":"total","document_id":"d1"}`}
	calls, _ := message.NewToolCalls("", []message.ToolCall{call}, now)
	result := message.NewToolResult(call, "The invoice total is $450.", now)

	resp, err := newTestChat(server.URL).Complete(context.Background(), domain.ChatRequest{
		Messages: []message.Message{user, calls, result},
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Content != "The total is $450." || len(resp.ToolCalls) != 0 {
		t.Errorf("response = %+v", resp)
	}
}

func TestChatModel_NoChoices(t *testing.T) {
	server := chatServer(t, map[string]any{"choices": []any{}}, nil)
	defer server.Close()

	_, err := newTestChat(server.URL).Complete(context.Background(), domain.ChatRequest{})
	if !errors.Is(err, domain.ErrModelProviderError) {
		t.Fatalf("expected ErrModelProviderError, got %v", err)
	}
}

func TestChatModel_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "upstream failure", "type": "server_error"},
		})
	}))
	defer server.Close()

	_, err := newTestChat(server.URL).Complete(context.Background(), domain.ChatRequest{})
	if !errors.Is(err, domain.ErrModelProviderError) {
		t.Fatalf("expected ErrModelProviderError, got %v", err)
	}
	if errors.Is(err, domain.ErrRateLimited) {
		t.Error("500 must not be reported as rate limited")
	}
}
