package pdfchat

import "github.com/kailas-cloud/pdfchat/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrDocumentNotFound       = domain.ErrDocumentNotFound
	ErrDocumentExists         = domain.ErrDocumentExists
	ErrInvalidInput           = domain.ErrInvalidInput
	ErrEmptyText              = domain.ErrEmptyText
	ErrFileTooLarge           = domain.ErrFileTooLarge
	ErrUnsupportedContent     = domain.ErrUnsupportedContent
	ErrIngestion              = domain.ErrIngestion
	ErrAgent                  = domain.ErrAgent
	ErrRateLimited            = domain.ErrRateLimited
	ErrQuotaExceeded          = domain.ErrQuotaExceeded
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrModelProviderError     = domain.ErrModelProviderError
)
