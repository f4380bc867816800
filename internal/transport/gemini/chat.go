package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/domain/message"
	"github.com/kailas-cloud/pdfchat/internal/metrics"
)

// ChatModel implements domain.ChatModel with Gemini function calling.
type ChatModel struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewChatModel creates a Gemini chat model.
func NewChatModel(ctx context.Context, cfg *Config) (*ChatModel, error) {
	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatModel{client: client, model: cfg.Model, logger: logger}, nil
}

// Complete runs one GenerateContent round.
func (m *ChatModel) Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	contents, err := toContents(req.Messages)
	if err != nil {
		return domain.ChatResponse{}, err
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
		Tools:       toTools(req.Tools),
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	start := time.Now()
	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, config)
	duration := time.Since(start)
	if err != nil {
		metrics.ModelRequestsTotal.WithLabelValues(provider, m.model, "error").Inc()
		return domain.ChatResponse{}, fmt.Errorf("generate content: %w: %w", domain.ErrModelProviderError, err)
	}

	out, err := fromResponse(resp)
	if err != nil {
		metrics.ModelRequestsTotal.WithLabelValues(provider, m.model, "error").Inc()
		return domain.ChatResponse{}, err
	}

	metrics.ModelRequestsTotal.WithLabelValues(provider, m.model, "success").Inc()
	metrics.ModelRequestDuration.WithLabelValues(provider, m.model).Observe(duration.Seconds())
	metrics.ModelTokensTotal.WithLabelValues(provider, m.model, "prompt").Add(float64(out.PromptTokens))
	metrics.ModelTokensTotal.WithLabelValues(provider, m.model, "completion").Add(float64(out.CompletionTokens))

	m.logger.Debug("gemini completion",
		zap.Int("tool_calls", len(out.ToolCalls)),
		zap.Int("prompt_tokens", out.PromptTokens),
		zap.Duration("duration", duration),
	)
	return out, nil
}

// HealthCheck verifies the configured model is reachable.
func (m *ChatModel) HealthCheck(ctx context.Context) error {
	return healthCheck(ctx, m.client, m.model)
}

// toContents maps the conversation onto Gemini turns. Consecutive tool
// results are folded into one user turn, as Gemini expects all responses to a
// parallel call together.
func toContents(history []message.Message) ([]*genai.Content, error) {
	var out []*genai.Content
	for i := range history {
		m := &history[i]
		switch m.Role() {
		case message.RoleUser:
			out = append(out, genai.NewContentFromText(m.Content(), genai.RoleUser))

		case message.RoleAssistant:
			var parts []*genai.Part
			if m.Content() != "" {
				parts = append(parts, genai.NewPartFromText(m.Content()))
			}
			for _, tc := range m.ToolCalls() {
				args := map[string]any{}
				if tc.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
						return nil, fmt.Errorf("tool call %s arguments: %w", tc.ID, err)
					}
				}
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: args}})
			}
			if len(parts) > 0 {
				out = append(out, &genai.Content{Role: genai.RoleModel, Parts: parts})
			}

		case message.RoleTool:
			r := m.ToolResult()
			if r == nil {
				continue
			}
			part := genai.NewPartFromFunctionResponse(r.Name, map[string]any{"output": r.Content})
			part.FunctionResponse.ID = r.CallID

			if n := len(out); n > 0 && out[n-1].Role == genai.RoleUser && isFunctionResponse(out[n-1]) {
				out[n-1].Parts = append(out[n-1].Parts, part)
				continue
			}
			out = append(out, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{part}})
		}
	}
	return out, nil
}

func isFunctionResponse(c *genai.Content) bool {
	return len(c.Parts) > 0 && c.Parts[0].FunctionResponse != nil
}

func toTools(specs []domain.ToolSpec) []*genai.Tool {
	if len(specs) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, len(specs))
	for i, s := range specs {
		schema := &genai.Schema{
			Type:       genai.TypeObject,
			Properties: make(map[string]*genai.Schema, len(s.Params)),
		}
		for _, p := range s.Params {
			schema.Properties[p.Name] = &genai.Schema{Type: genai.TypeString, Description: p.Description}
			if p.Required {
				schema.Required = append(schema.Required, p.Name)
			}
		}
		decls[i] = &genai.FunctionDeclaration{Name: s.Name, Description: s.Description, Parameters: schema}
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func fromResponse(resp *genai.GenerateContentResponse) (domain.ChatResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return domain.ChatResponse{}, fmt.Errorf("gemini returned no candidates: %w", domain.ErrModelProviderError)
	}

	var out domain.ChatResponse
	for _, part := range resp.Candidates[0].Content.Parts {
		switch {
		case part.FunctionCall != nil:
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				return domain.ChatResponse{}, fmt.Errorf("encode function args: %w", err)
			}
			id := part.FunctionCall.ID
			if id == "" {
				id = "call_" + uuid.NewString()
			}
			out.ToolCalls = append(out.ToolCalls, message.ToolCall{
				ID: id, Name: part.FunctionCall.Name, Arguments: string(args),
			})
		case part.Text != "" && !part.Thought:
			out.Content += part.Text
		}
	}

	if u := resp.UsageMetadata; u != nil {
		out.PromptTokens = int(u.PromptTokenCount)
		out.CompletionTokens = int(u.CandidatesTokenCount)
	}
	return out, nil
}
