package retrieval

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	"github.com/kailas-cloud/pdfchat/internal/domain/message"
)

// Tool names as declared to the model.
const (
	ToolRetrieve             = "retrieve"
	ToolFindSimilarDocuments = "findSimilarDocuments"
)

// Call is a validated tool invocation: ScopedRetrieval or Discovery.
type Call interface {
	ToolName() string
}

// ScopedRetrieval searches one document.
type ScopedRetrieval struct {
	Query      string
	DocumentID string
}

// ToolName implements Call.
func (ScopedRetrieval) ToolName() string { return ToolRetrieve }

// Discovery searches the whole corpus for documents related to a query.
type Discovery struct {
	Query string
}

// ToolName implements Call.
func (Discovery) ToolName() string { return ToolFindSimilarDocuments }

type rawArgs struct {
	Query      *string `json:"query"`
	DocumentID *string `json:"document_id"`
}

// Parse validates a model tool call into one of the closed set of calls.
// Unknown names fail with domain.ErrUnknownTool, missing or blank required
// arguments with domain.ErrInvalidToolArguments.
func Parse(tc message.ToolCall) (Call, error) {
	switch tc.Name {
	case ToolRetrieve, ToolFindSimilarDocuments:
	default:
		return nil, fmt.Errorf("%q: %w", tc.Name, domain.ErrUnknownTool)
	}

	var args rawArgs
	if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", tc.Name, domain.ErrInvalidToolArguments, err)
	}

	query, err := required(tc.Name, "query", args.Query)
	if err != nil {
		return nil, err
	}
	if tc.Name == ToolFindSimilarDocuments {
		return Discovery{Query: query}, nil
	}

	docID, err := required(tc.Name, "document_id", args.DocumentID)
	if err != nil {
		return nil, err
	}
	return ScopedRetrieval{Query: query, DocumentID: docID}, nil
}

func required(tool, name string, v *string) (string, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return "", fmt.Errorf("%s: %s is required: %w", tool, name, domain.ErrInvalidToolArguments)
	}
	return strings.TrimSpace(*v), nil
}
