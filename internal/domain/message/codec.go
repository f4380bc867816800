package message

import (
	"encoding/json"
	"fmt"
	"time"
)

// record is the persisted shape of a Message, shared by durable thread stores.
type record struct {
	Role       Role         `json:"role"`
	Content    string       `json:"content"`
	ToolCalls  []callRecord `json:"tool_calls,omitempty"`
	ToolResult *callResult  `json:"tool_result,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

type callRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type callResult struct {
	CallID  string `json:"call_id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Marshal encodes m for storage.
func Marshal(m Message) ([]byte, error) {
	r := record{Role: m.role, Content: m.content, CreatedAt: m.createdAt}
	for _, c := range m.toolCalls {
		r.ToolCalls = append(r.ToolCalls, callRecord(c))
	}
	if m.toolResult != nil {
		res := callResult(*m.toolResult)
		r.ToolResult = &res
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a stored message.
func Unmarshal(data []byte) (Message, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return Message{}, fmt.Errorf("unmarshal message: %w", err)
	}
	switch r.Role {
	case RoleUser, RoleAssistant, RoleTool:
	default:
		return Message{}, fmt.Errorf("unmarshal message: unknown role %q", r.Role)
	}

	var calls []ToolCall
	for _, c := range r.ToolCalls {
		calls = append(calls, ToolCall(c))
	}
	var result *ToolResult
	if r.ToolResult != nil {
		res := ToolResult(*r.ToolResult)
		result = &res
	}
	return Reconstruct(r.Role, r.Content, calls, result, r.CreatedAt), nil
}
