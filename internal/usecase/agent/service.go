// Package agent runs conversation turns: the model decides when to call the
// retrieval tools, tool output is fed back, and every step is recorded in the
// thread's memory.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/domain/message"
	"github.com/kailas-cloud/pdfchat/internal/logger"
	"github.com/kailas-cloud/pdfchat/internal/metrics"
	"github.com/kailas-cloud/pdfchat/internal/usecase/retrieval"
)

// DefaultMaxRounds caps tool-call rounds per turn. The model gets one more
// call after the last round to answer from the results.
const DefaultMaxRounds = 5

// Config tunes the loop.
type Config struct {
	MaxRounds   int
	Temperature float32
}

// Reply is the outcome of one turn. Cause holds the error behind a failed
// turn for logging; it is never shown to the user.
type Reply struct {
	Text      string
	Failed    bool
	Rounds    int
	ToolCalls int
	Cause     error
}

// Service is the agent loop.
type Service struct {
	memory    Memory
	model     Model
	tools     Toolbox
	maxRounds int
	temp      float32
	locks     *threadLocks
	now       func() time.Time
}

// New creates the agent loop.
func New(memory Memory, model Model, tools Toolbox, cfg Config) *Service {
	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Service{
		memory:    memory,
		model:     model,
		tools:     tools,
		maxRounds: maxRounds,
		temp:      cfg.Temperature,
		locks:     newThreadLocks(),
		now:       time.Now,
	}
}

// turn is the state carried through one RunTurn.
type turn struct {
	threadID  string
	history   []message.Message
	state     State
	round     int
	toolCalls int
	log       *zap.Logger
}

// RunTurn answers userText on threadID. documentID, when set, is embedded in
// the user message as a "Document ID:" marker.
//
// Model and tool failures do not surface as errors: the turn ends with
// FallbackMessage, which is also appended to the thread, and Reply.Failed set.
// An error is returned only for invalid input, when ctx ends while the turn
// waits behind another turn on the same thread, or when the thread memory
// itself cannot be read or written.
func (s *Service) RunTurn(ctx context.Context, threadID, documentID, userText string) (Reply, error) {
	if strings.TrimSpace(userText) == "" {
		return Reply{}, fmt.Errorf("query is required: %w", domain.ErrInvalidInput)
	}
	if threadID == "" {
		threadID = DefaultThreadID
	}

	release, err := s.locks.lock(ctx, threadID)
	if err != nil {
		return Reply{}, domain.NewAgentError(threadID, 0, fmt.Errorf("wait for thread: %w", err))
	}
	defer release()

	history, err := s.memory.History(ctx, threadID)
	if err != nil {
		return Reply{}, domain.NewAgentError(threadID, 0, fmt.Errorf("load history: %w", err))
	}

	userMsg, err := message.NewUser(frameUserText(documentID, userText), s.now())
	if err != nil {
		return Reply{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if err := s.memory.Append(ctx, threadID, userMsg); err != nil {
		return Reply{}, domain.NewAgentError(threadID, 0, fmt.Errorf("append user message: %w", err))
	}

	t := &turn{
		threadID: threadID,
		history:  append(history, userMsg),
		state:    StateAwaitingModel,
		log: logger.FromContext(ctx).With(
			zap.String("thread_id", threadID),
			zap.String("document_id", documentID),
		),
	}

	reply, err := s.loop(ctx, t)
	if err != nil {
		return s.fail(ctx, t, err)
	}

	metrics.AgentTurnsTotal.WithLabelValues("answered").Inc()
	metrics.AgentRounds.Observe(float64(reply.Rounds))
	return reply, nil
}

// loop drives the state machine until DONE or an error.
func (s *Service) loop(ctx context.Context, t *turn) (Reply, error) {
	specs := s.tools.Specs()

	for {
		t.round++
		t.log.Debug("agent state", zap.Int("round", t.round), zap.Stringer("state", t.state))

		resp, err := s.model.Complete(ctx, domain.ChatRequest{
			System:      SystemPrompt,
			Messages:    t.history,
			Tools:       specs,
			Temperature: s.temp,
		})
		if err != nil {
			return Reply{}, fmt.Errorf("model call: %w", err)
		}
		domain.UsageFromContext(ctx).AddModelTokens(resp.PromptTokens + resp.CompletionTokens)

		if len(resp.ToolCalls) == 0 {
			return s.finish(ctx, t, resp.Content)
		}
		if t.round > s.maxRounds {
			return Reply{}, fmt.Errorf("%d rounds: %w", t.round, domain.ErrMaxRoundsExceeded)
		}

		t.state = StateExecutingTools
		if err := s.executeTools(ctx, t, resp); err != nil {
			return Reply{}, err
		}
		t.state = StateAwaitingModel
	}
}

// executeTools runs every requested call in order. The tool-call message and
// its results are appended together, so the thread never holds calls without
// their results.
func (s *Service) executeTools(ctx context.Context, t *turn, resp domain.ChatResponse) error {
	calls := make([]message.ToolCall, len(resp.ToolCalls))
	copy(calls, resp.ToolCalls)
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = fmt.Sprintf("call_%d_%d", t.round, i)
		}
	}

	now := s.now()
	callMsg, err := message.NewToolCalls(resp.Content, calls, now)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidToolArguments, err)
	}

	batch := make([]message.Message, 0, len(calls)+1)
	batch = append(batch, callMsg)

	for _, tc := range calls {
		t.log.Debug("agent tool call",
			zap.Int("round", t.round),
			zap.Stringer("state", t.state),
			zap.String("tool", tc.Name),
		)

		out, err := s.runTool(ctx, tc)
		if err != nil {
			metrics.AgentToolCallsTotal.WithLabelValues(toolLabel(tc.Name), "error").Inc()
			return fmt.Errorf("tool %s: %w", tc.Name, err)
		}
		metrics.AgentToolCallsTotal.WithLabelValues(toolLabel(tc.Name), "ok").Inc()
		t.toolCalls++
		batch = append(batch, message.NewToolResult(tc, out, now))
	}

	if err := s.memory.Append(ctx, t.threadID, batch...); err != nil {
		return fmt.Errorf("append tool results: %w", err)
	}
	t.history = append(t.history, batch...)
	return nil
}

func (s *Service) runTool(ctx context.Context, tc message.ToolCall) (string, error) {
	call, err := retrieval.Parse(tc)
	if err != nil {
		return "", fmt.Errorf("parse arguments: %w", err)
	}
	out, err := s.tools.Execute(ctx, call)
	if err != nil {
		return "", fmt.Errorf("execute: %w", err)
	}
	if strings.TrimSpace(out) != "" {
		return out, nil
	}
	if _, ok := call.(retrieval.Discovery); ok {
		return NoDocumentsNotice, nil
	}
	return NoContentNotice, nil
}

func (s *Service) finish(ctx context.Context, t *turn, content string) (Reply, error) {
	text := strings.TrimSpace(content)
	if text == "" {
		return Reply{}, domain.ErrEmptyAnswer
	}

	if err := s.memory.Append(ctx, t.threadID, message.NewAssistant(text, s.now())); err != nil {
		return Reply{}, fmt.Errorf("append answer: %w", err)
	}
	t.state = StateDone
	t.log.Debug("agent state",
		zap.Int("round", t.round),
		zap.Stringer("state", t.state),
		zap.Int("tool_calls", t.toolCalls),
	)
	return Reply{Text: text, Rounds: t.round, ToolCalls: t.toolCalls}, nil
}

// fail records the fallback reply. If even that append fails the memory is
// unusable and the error is returned.
func (s *Service) fail(ctx context.Context, t *turn, cause error) (Reply, error) {
	agentErr := domain.NewAgentError(t.threadID, t.round, cause)
	t.log.Error("agent turn failed",
		zap.Int("round", t.round),
		zap.Stringer("state", t.state),
		zap.Error(cause),
	)
	metrics.AgentTurnsTotal.WithLabelValues("failed").Inc()
	metrics.AgentRounds.Observe(float64(t.round))

	if err := s.memory.Append(ctx, t.threadID, message.NewAssistant(FallbackMessage, s.now())); err != nil {
		return Reply{}, errors.Join(agentErr, fmt.Errorf("append fallback: %w", err))
	}
	return Reply{
		Text:      FallbackMessage,
		Failed:    true,
		Rounds:    t.round,
		ToolCalls: t.toolCalls,
		Cause:     agentErr,
	}, nil
}

// toolLabel bounds metric label cardinality to the declared tools.
func toolLabel(name string) string {
	switch name {
	case retrieval.ToolRetrieve, retrieval.ToolFindSimilarDocuments:
		return name
	default:
		return "unknown"
	}
}
