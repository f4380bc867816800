package domain

import (
	"context"

	"github.com/kailas-cloud/pdfchat/internal/domain/message"
)

// ChatModel is the language model contract used by the agent loop.
type ChatModel interface {
	Complete(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// ToolParam is one string argument of a tool.
type ToolParam struct {
	Name        string
	Description string
	Required    bool
}

// ToolSpec declares a tool the model may call.
type ToolSpec struct {
	Name        string
	Description string
	Params      []ToolParam
}

// ChatRequest is one model round: the system directive, the conversation so
// far and the tools the model may call.
type ChatRequest struct {
	System      string
	Messages    []message.Message
	Tools       []ToolSpec
	Temperature float32
}

// ChatResponse is either a final answer (ToolCalls empty) or a set of tool calls.
type ChatResponse struct {
	Content          string
	ToolCalls        []message.ToolCall
	PromptTokens     int
	CompletionTokens int
}
