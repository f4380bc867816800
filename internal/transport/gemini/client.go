// Package gemini adapts the Google Gen AI SDK to the chat model and embedding contracts.
package gemini

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Config holds the Gemini provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	Logger     *zap.Logger
}

const provider = "gemini"

func newClient(ctx context.Context, cfg *Config) (*genai.Client, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("init genai client: %w", err)
	}
	return client, nil
}

func healthCheck(ctx context.Context, client *genai.Client, model string) error {
	if _, err := client.Models.Get(ctx, model, nil); err != nil {
		return fmt.Errorf("get model %s: %w", model, err)
	}
	return nil
}
