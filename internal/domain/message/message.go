package message

import (
	"fmt"
	"time"
)

// Role identifies the author of a message.
type Role string

const (
	// RoleUser is a human turn.
	RoleUser Role = "user"
	// RoleAssistant is a model turn: a final answer or a tool-call request.
	RoleAssistant Role = "assistant"
	// RoleTool carries the output of one tool invocation back to the model.
	RoleTool Role = "tool"
)

// ToolCall is a model request to invoke one tool. Arguments is the raw JSON
// object exactly as the model produced it.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolResult is the text a tool returned for the call with CallID.
type ToolResult struct {
	CallID  string
	Name    string
	Content string
}

// Message is one append-only entry of a conversation thread.
type Message struct {
	role       Role
	content    string
	toolCalls  []ToolCall
	toolResult *ToolResult
	createdAt  time.Time
}

// NewUser creates a user turn.
func NewUser(content string, at time.Time) (Message, error) {
	if content == "" {
		return Message{}, fmt.Errorf("user message content is required")
	}
	return Message{role: RoleUser, content: content, createdAt: at.UTC()}, nil
}

// NewAssistant creates a final assistant answer.
func NewAssistant(content string, at time.Time) Message {
	return Message{role: RoleAssistant, content: content, createdAt: at.UTC()}
}

// NewToolCalls creates an assistant turn requesting tool invocations.
// content is whatever text the model emitted alongside the calls, often empty.
func NewToolCalls(content string, calls []ToolCall, at time.Time) (Message, error) {
	if len(calls) == 0 {
		return Message{}, fmt.Errorf("at least one tool call is required")
	}
	for i, c := range calls {
		if c.Name == "" {
			return Message{}, fmt.Errorf("tool call %d has no name", i)
		}
	}
	cp := make([]ToolCall, len(calls))
	copy(cp, calls)
	return Message{role: RoleAssistant, content: content, toolCalls: cp, createdAt: at.UTC()}, nil
}

// NewToolResult creates a tool-result turn answering one call.
func NewToolResult(call ToolCall, content string, at time.Time) Message {
	return Message{
		role:       RoleTool,
		content:    content,
		toolResult: &ToolResult{CallID: call.ID, Name: call.Name, Content: content},
		createdAt:  at.UTC(),
	}
}

// Reconstruct creates a Message without validation (storage hydration).
func Reconstruct(role Role, content string, calls []ToolCall, result *ToolResult, at time.Time) Message {
	return Message{role: role, content: content, toolCalls: calls, toolResult: result, createdAt: at.UTC()}
}

// Role returns the author role.
func (m *Message) Role() Role { return m.role }

// Content returns the message text.
func (m *Message) Content() string { return m.content }

// ToolCalls returns the requested tool calls, if any.
func (m *Message) ToolCalls() []ToolCall { return m.toolCalls }

// ToolResult returns the tool output record, if this is a tool turn.
func (m *Message) ToolResult() *ToolResult { return m.toolResult }

// CreatedAt returns the append timestamp in UTC.
func (m *Message) CreatedAt() time.Time { return m.createdAt }

// HasToolCalls reports whether the model asked for tools in this turn.
func (m *Message) HasToolCalls() bool { return len(m.toolCalls) > 0 }
