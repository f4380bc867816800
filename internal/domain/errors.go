package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrDocumentExists signals an ingestion that names an already indexed document.
	ErrDocumentExists = errors.New("document already exists")
	// ErrInvalidInput signals a malformed caller request.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIngestion is the root of every ingestion failure.
	ErrIngestion = errors.New("ingestion failed")
	// ErrEmptyText signals an extraction that produced no readable text.
	ErrEmptyText = errors.New("document contains no readable text")
	// ErrFileTooLarge signals an upload above the configured size limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrUnsupportedContent signals an upload the extractor cannot read.
	ErrUnsupportedContent = errors.New("unsupported content type")

	// ErrRetrieval is the root of every search-time failure.
	ErrRetrieval = errors.New("retrieval failed")

	// ErrAgent is the root of every turn failure.
	ErrAgent = errors.New("agent turn failed")
	// ErrMaxRoundsExceeded signals that the model kept requesting tools past the round cap.
	ErrMaxRoundsExceeded = errors.New("tool-call round limit exceeded")
	// ErrUnknownTool signals a tool call naming a tool outside the declared set.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidToolArguments signals a tool call with missing or malformed arguments.
	ErrInvalidToolArguments = errors.New("invalid tool arguments")
	// ErrEmptyAnswer signals a model reply with neither text nor tool calls.
	ErrEmptyAnswer = errors.New("model returned an empty answer")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrQuotaExceeded signals a spent provider token budget.
	ErrQuotaExceeded = errors.New("token quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrModelProviderError signals a chat model provider failure.
	ErrModelProviderError = errors.New("model provider error")
)

// IngestionError reports which pipeline stage failed for a document.
type IngestionError struct {
	DocumentID string
	Stage      string
	Err        error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("%s: document %s: %s: %v", ErrIngestion, e.DocumentID, e.Stage, e.Err)
}

func (e *IngestionError) Unwrap() []error { return []error{ErrIngestion, e.Err} }

// NewIngestionError wraps err with the failing stage.
func NewIngestionError(documentID, stage string, err error) error {
	return &IngestionError{DocumentID: documentID, Stage: stage, Err: err}
}

// RetrievalError wraps an embedding or index failure during search.
type RetrievalError struct {
	Query string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("%s: %v", ErrRetrieval, e.Err)
}

func (e *RetrievalError) Unwrap() []error { return []error{ErrRetrieval, e.Err} }

// NewRetrievalError wraps err as a search failure for query.
func NewRetrievalError(query string, err error) error {
	return &RetrievalError{Query: query, Err: err}
}

// AgentError wraps a tool or model failure inside one turn.
type AgentError struct {
	ThreadID string
	Round    int
	Err      error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("%s: thread %s round %d: %v", ErrAgent, e.ThreadID, e.Round, e.Err)
}

func (e *AgentError) Unwrap() []error { return []error{ErrAgent, e.Err} }

// NewAgentError wraps err with the thread and round it happened in.
func NewAgentError(threadID string, round int, err error) error {
	return &AgentError{ThreadID: threadID, Round: round, Err: err}
}

// NotFoundError reports an unknown identifier on lookup.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() []error {
	if e.Resource == "document" {
		return []error{ErrNotFound, ErrDocumentNotFound}
	}
	return []error{ErrNotFound}
}

// NewDocumentNotFound reports an unknown document identifier.
func NewDocumentNotFound(id string) error {
	return &NotFoundError{Resource: "document", ID: id}
}
