package chi

import "time"

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	ErrorCodeBadRequest             ErrorCode = "bad_request"
	ErrorCodeValidationFailed       ErrorCode = "validation_failed"
	ErrorCodeUnauthorized           ErrorCode = "unauthorized"
	ErrorCodeDocumentNotFound       ErrorCode = "document_not_found"
	ErrorCodeDocumentExists         ErrorCode = "document_exists"
	ErrorCodeEmptyDocument          ErrorCode = "empty_document"
	ErrorCodeUnsupportedContent     ErrorCode = "unsupported_content"
	ErrorCodeFileTooLarge           ErrorCode = "file_too_large"
	ErrorCodeRateLimited            ErrorCode = "rate_limited"
	ErrorCodeQuotaExceeded          ErrorCode = "quota_exceeded"
	ErrorCodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	ErrorCodeModelProviderError     ErrorCode = "model_provider_error"
	ErrorCodeTimeout                ErrorCode = "timeout"
	ErrorCodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// UploadResponse is returned by POST /upload.
type UploadResponse struct {
	Message       string `json:"message"`
	DocumentID    string `json:"document_id"`
	ChunksCreated int    `json:"chunks_created"`
	Filename      string `json:"filename"`
}

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	Query      string `json:"query"`
	DocumentID string `json:"document_id"`
	ThreadID   string `json:"thread_id,omitempty"`
}

// GenerateResponse is returned by POST /generate.
type GenerateResponse struct {
	Response   string `json:"response"`
	DocumentID string `json:"document_id"`
	ThreadID   string `json:"thread_id"`
}

// DocumentResponse is one document's metadata.
type DocumentResponse struct {
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename"`
	FileSize   int64     `json:"file_size"`
	FileType   string    `json:"file_type"`
	UploadDate time.Time `json:"upload_date"`
	Chunks     int       `json:"chunks"`
}

// DocumentListResponse is returned by GET /documents.
type DocumentListResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Total     int                `json:"total"`
}

// ListDocumentsParams holds the query parameters of GET /documents.
type ListDocumentsParams struct {
	Limit *int `form:"limit,omitempty" json:"limit,omitempty"`
}

// GetUsageParams holds the query parameters of GET /usage.
type GetUsageParams struct {
	Period *string `form:"period,omitempty" json:"period,omitempty"`
}

// BudgetResponse is one scope's token budget. TokensLimit and
// TokensRemaining are null when the scope is unlimited.
type BudgetResponse struct {
	Scope           string    `json:"scope"`
	TokensUsed      int64     `json:"tokens_used"`
	TokensLimit     *int64    `json:"tokens_limit"`
	TokensRemaining *int64    `json:"tokens_remaining"`
	IsExhausted     bool      `json:"is_exhausted"`
	ResetsAt        time.Time `json:"resets_at"`
}

// UsageResponse is returned by GET /usage.
type UsageResponse struct {
	Period      string           `json:"period"`
	PeriodStart time.Time        `json:"period_start"`
	PeriodEnd   time.Time        `json:"period_end"`
	Budgets     []BudgetResponse `json:"budgets"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}
