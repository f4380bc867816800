package openai

import (
	"context"
	"fmt"
	"math"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/domain/message"
	"github.com/kailas-cloud/pdfchat/internal/metrics"
)

// ChatModel implements domain.ChatModel over chat completions with tool calling.
type ChatModel struct {
	client   *openai.Client
	model    string
	provider string
	logger   *zap.Logger
}

// NewChatModel creates an OpenAI-compatible chat model.
func NewChatModel(cfg *Config) *ChatModel {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &ChatModel{
		client:   newClient(cfg),
		model:    cfg.Model,
		provider: cfg.Provider,
		logger:   cfg.Logger,
	}
}

// Complete runs one chat completion round.
func (m *ChatModel) Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	creq := openai.ChatCompletionRequest{
		Model:       m.model,
		Messages:    toMessages(req.System, req.Messages),
		Tools:       toTools(req.Tools),
		Temperature: req.Temperature,
	}
	// the client drops a zero temperature from the payload
	if creq.Temperature == 0 {
		creq.Temperature = math.SmallestNonzeroFloat32
	}

	start := time.Now()
	resp, err := m.client.CreateChatCompletion(ctx, creq)
	duration := time.Since(start)

	if err != nil {
		metrics.ModelRequestsTotal.WithLabelValues(m.provider, m.model, "error").Inc()
		return domain.ChatResponse{}, parseAPIError("chat", err, domain.ErrModelProviderError)
	}
	if len(resp.Choices) == 0 {
		metrics.ModelRequestsTotal.WithLabelValues(m.provider, m.model, "error").Inc()
		return domain.ChatResponse{}, fmt.Errorf("chat response has no choices: %w", domain.ErrModelProviderError)
	}

	metrics.ModelRequestsTotal.WithLabelValues(m.provider, m.model, "success").Inc()
	metrics.ModelRequestDuration.WithLabelValues(m.provider, m.model).Observe(duration.Seconds())
	metrics.ModelTokensTotal.WithLabelValues(m.provider, m.model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.ModelTokensTotal.WithLabelValues(m.provider, m.model, "completion").Add(float64(resp.Usage.CompletionTokens))

	msg := resp.Choices[0].Message
	out := domain.ChatResponse{
		Content:          msg.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, message.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	m.logger.Debug("chat completion",
		zap.String("provider", m.provider),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("tool_calls", len(out.ToolCalls)),
		zap.Int("prompt_tokens", out.PromptTokens),
		zap.Duration("duration", duration),
	)
	return out, nil
}

// HealthCheck verifies API availability via ListModels.
func (m *ChatModel) HealthCheck(ctx context.Context) error {
	if _, err := m.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func toMessages(system string, history []message.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	for i := range history {
		m := &history[i]
		switch m.Role() {
		case message.RoleUser:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Content()})
		case message.RoleAssistant:
			cm := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Content()}
			for _, tc := range m.ToolCalls() {
				cm.ToolCalls = append(cm.ToolCalls, openai.ToolCall{
					ID:       tc.ID,
					Type:     openai.ToolTypeFunction,
					Function: openai.FunctionCall{Name: tc.Name, Arguments: tc.Arguments},
				})
			}
			out = append(out, cm)
		case message.RoleTool:
			cm := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleTool, Content: m.Content()}
			if r := m.ToolResult(); r != nil {
				cm.ToolCallID = r.CallID
				cm.Name = r.Name
			}
			out = append(out, cm)
		}
	}
	return out
}

func toTools(specs []domain.ToolSpec) []openai.Tool {
	if len(specs) == 0 {
		return nil
	}
	tools := make([]openai.Tool, len(specs))
	for i, s := range specs {
		params := jsonschema.Definition{
			Type:       jsonschema.Object,
			Properties: make(map[string]jsonschema.Definition, len(s.Params)),
		}
		for _, p := range s.Params {
			params.Properties[p.Name] = jsonschema.Definition{Type: jsonschema.String, Description: p.Description}
			if p.Required {
				params.Required = append(params.Required, p.Name)
			}
		}
		tools[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  params,
			},
		}
	}
	return tools
}
