package agent

import (
	"context"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/domain/message"
	"github.com/kailas-cloud/pdfchat/internal/usecase/retrieval"
)

// Memory is the per-thread conversation history.
type Memory interface {
	History(ctx context.Context, threadID string) ([]message.Message, error)
	Append(ctx context.Context, threadID string, msgs ...message.Message) error
}

// Model produces the next assistant step.
type Model interface {
	Complete(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error)
}

// Toolbox declares and executes the retrieval tools.
type Toolbox interface {
	Specs() []domain.ToolSpec
	Execute(ctx context.Context, call retrieval.Call) (string, error)
}
