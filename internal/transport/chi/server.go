package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pdfchat/internal/domain"
	domdoc "github.com/kailas-cloud/pdfchat/internal/domain/document"
	domusage "github.com/kailas-cloud/pdfchat/internal/domain/usage"
	"github.com/kailas-cloud/pdfchat/internal/logger"
	agentuc "github.com/kailas-cloud/pdfchat/internal/usecase/agent"
	healthuc "github.com/kailas-cloud/pdfchat/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/pdfchat/internal/usecase/ingest"
	"github.com/kailas-cloud/pdfchat/internal/version"
)

// Multipart field names accepted by POST /upload.
const (
	uploadField       = "file"
	legacyUploadField = "pdf"
)

const (
	defaultTurnTimeout = 90 * time.Second
	maxGenerateBody    = 1 << 20
	multipartMemory    = 8 << 20
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface.
type Server struct {
	extractor     Extractor
	ingest        Ingester
	agent         Agent
	documents     Documents
	health        HealthChecker
	usage         UsageReporter
	logger        *zap.Logger
	maxUpload     int64
	turnTimeout   time.Duration
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// Option configures the server.
type Option func(*Server)

// WithMaxUploadBytes caps the upload body size.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUpload = n
		}
	}
}

// WithTurnTimeout bounds one agent turn.
func WithTurnTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.turnTimeout = d
		}
	}
}

// NewServer creates an HTTP API server.
func NewServer(
	extractor Extractor,
	ingest Ingester,
	agent Agent,
	documents Documents,
	health HealthChecker,
	usage UsageReporter,
	log *zap.Logger,
	opts ...Option,
) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		extractor:   extractor,
		ingest:      ingest,
		agent:       agent,
		documents:   documents,
		health:      health,
		usage:       usage,
		logger:      log,
		maxUpload:   ingestuc.DefaultMaxFileSize,
		turnTimeout: defaultTurnTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, ErrorCodeDocumentNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeDocumentNotFound),
		sentinelHandler(domain.ErrDocumentExists, http.StatusConflict, ErrorCodeDocumentExists),
		sentinelHandler(domain.ErrEmptyText, http.StatusBadRequest, ErrorCodeEmptyDocument),
		sentinelHandler(domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, ErrorCodeFileTooLarge),
		sentinelHandler(domain.ErrUnsupportedContent,
			http.StatusUnsupportedMediaType, ErrorCodeUnsupportedContent),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorCodeRateLimited),
		sentinelHandler(domain.ErrQuotaExceeded, http.StatusTooManyRequests, ErrorCodeQuotaExceeded),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, ErrorCodeEmbeddingProviderError),
		sentinelHandler(domain.ErrModelProviderError, http.StatusBadGateway, ErrorCodeModelProviderError),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, ErrorCodeTimeout),
	}
	return s
}

// UploadDocument handles POST /upload.
func (s *Server) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorCodeFileTooLarge, domain.ErrFileTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "expected a multipart/form-data body")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(uploadField)
	if errors.Is(err, http.ErrMissingFile) {
		file, header, err = r.FormFile(legacyUploadField)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "no file uploaded")
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > s.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, ErrorCodeFileTooLarge, domain.ErrFileTooLarge.Error())
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "failed to read upload")
		return
	}

	contentType := header.Header.Get("Content-Type")
	text, err := s.extractor.Extract(r.Context(), contentType, data)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	summary, err := s.ingest.Ingest(ctx, ingestuc.Request{
		Filename:    filepath.Base(header.Filename),
		FileSize:    int64(len(data)),
		ContentType: contentType,
		Text:        text,
	})
	setUsageHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Message:       "File processed successfully",
		DocumentID:    summary.DocumentID,
		ChunksCreated: summary.ChunksCreated,
		Filename:      summary.Filename,
	})
}

// Generate handles POST /generate. A failed turn still answers 200 with the
// apology text; only malformed requests and infrastructure faults are errors.
func (s *Server) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxGenerateBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Query) == "" || strings.TrimSpace(req.DocumentID) == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "query and document_id are required")
		return
	}
	threadID := req.ThreadID
	if threadID == "" {
		threadID = agentuc.DefaultThreadID
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.turnTimeout)
	defer cancel()
	ctx = logger.With(ctx, zap.String("thread_id", threadID), zap.String("document_id", req.DocumentID))
	ctx, usage := domain.NewContextWithUsage(ctx)

	reply, err := s.agent.RunTurn(ctx, threadID, req.DocumentID, req.Query)
	setUsageHeaders(w, usage)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{
		Response:   reply.Text,
		DocumentID: req.DocumentID,
		ThreadID:   threadID,
	})
}

// ListDocuments handles GET /documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request, params ListDocumentsParams) {
	limit := 0
	if params.Limit != nil {
		limit = *params.Limit
	}
	docs, err := s.documents.List(r.Context(), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]DocumentResponse, len(docs))
	for i := range docs {
		items[i] = documentToResponse(&docs[i])
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: len(items)})
}

// GetDocument handles GET /documents/{document_id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request, documentID string) {
	doc, err := s.documents.Get(r.Context(), documentID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToResponse(&doc))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Version: version.Version,
		Checks:  checks,
	})
}

// GetUsage handles GET /usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request, params GetUsageParams) {
	var raw string
	if params.Period != nil {
		raw = *params.Period
	}
	period, err := domusage.ParsePeriod(raw)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	report := s.usage.GetReport(r.Context(), period)
	budgets := make([]BudgetResponse, 0, len(report.Budgets()))
	for _, b := range report.Budgets() {
		br := BudgetResponse{
			Scope:       b.Scope(),
			TokensUsed:  b.TokensUsed(),
			IsExhausted: b.IsExhausted(),
			ResetsAt:    b.ResetsAt().UTC(),
		}
		if b.TokensLimit() > 0 {
			limit, remaining := b.TokensLimit(), b.TokensRemaining()
			br.TokensLimit, br.TokensRemaining = &limit, &remaining
		}
		budgets = append(budgets, br)
	}
	writeJSON(w, http.StatusOK, UsageResponse{
		Period:      string(report.Period()),
		PeriodStart: report.PeriodStart().UTC(),
		PeriodEnd:   report.PeriodEnd().UTC(),
		Budgets:     budgets,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// BindErrorHandler answers parameter binding failures.
func (s *Server) BindErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Debug("bad request parameters", zap.Error(err))
	writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.Usage) {
	if usage == nil {
		return
	}
	if usage.Embedded() {
		w.Header().Set("X-Embedding-Tokens", strconv.FormatInt(usage.EmbeddingTokens(), 10))
	}
	if n := usage.ModelTokens(); n > 0 {
		w.Header().Set("X-Model-Tokens", strconv.FormatInt(n, 10))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrDocumentNotFound,
		domain.ErrNotFound,
		domain.ErrDocumentExists,
		domain.ErrEmptyText,
		domain.ErrFileTooLarge,
		domain.ErrUnsupportedContent,
		domain.ErrInvalidInput,
		domain.ErrRateLimited,
		domain.ErrQuotaExceeded,
		domain.ErrEmbeddingProviderError,
		domain.ErrModelProviderError,
		context.DeadlineExceeded,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

func documentToResponse(doc *domdoc.Document) DocumentResponse {
	return DocumentResponse{
		DocumentID: doc.ID(),
		Filename:   doc.Filename(),
		FileSize:   doc.FileSize(),
		FileType:   doc.FileType(),
		UploadDate: doc.UploadedAt().UTC(),
		Chunks:     doc.Chunks(),
	}
}
