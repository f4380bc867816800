package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface is the set of HTTP operations.
type ServerInterface interface {
	// (POST /upload)
	UploadDocument(w http.ResponseWriter, r *http.Request)
	// (POST /generate)
	Generate(w http.ResponseWriter, r *http.Request)
	// (GET /documents)
	ListDocuments(w http.ResponseWriter, r *http.Request, params ListDocumentsParams)
	// (GET /documents/{document_id})
	GetDocument(w http.ResponseWriter, r *http.Request, documentID string)
	// (GET /usage)
	GetUsage(w http.ResponseWriter, r *http.Request, params GetUsageParams)
	// (GET /health)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
}

// InvalidParamFormatError reports a path or query parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions mounts si on the router, binding parameters before the
// handler runs. Bind failures go to ErrorHandlerFunc.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	errorHandler := options.ErrorHandlerFunc
	if errorHandler == nil {
		errorHandler = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		}
	}
	w := &wrapper{handler: si, errorHandler: errorHandler}

	r.Post("/upload", si.UploadDocument)
	r.Post("/generate", si.Generate)
	r.Get("/documents", w.listDocuments)
	r.Get("/documents/{document_id}", w.getDocument)
	r.Get("/usage", w.getUsage)
	r.Get("/health", si.HealthCheck)
	r.Get("/metrics", si.Metrics)
	return r
}

type wrapper struct {
	handler      ServerInterface
	errorHandler func(w http.ResponseWriter, r *http.Request, err error)
}

func (sw *wrapper) listDocuments(w http.ResponseWriter, r *http.Request) {
	var params ListDocumentsParams
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit); err != nil {
		sw.errorHandler(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}
	sw.handler.ListDocuments(w, r, params)
}

func (sw *wrapper) getDocument(w http.ResponseWriter, r *http.Request) {
	var documentID string
	err := runtime.BindStyledParameterWithOptions("simple", "document_id", chi.URLParam(r, "document_id"),
		&documentID, runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true,
		})
	if err != nil {
		sw.errorHandler(w, r, &InvalidParamFormatError{ParamName: "document_id", Err: err})
		return
	}
	sw.handler.GetDocument(w, r, documentID)
}

func (sw *wrapper) getUsage(w http.ResponseWriter, r *http.Request) {
	var params GetUsageParams
	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &params.Period); err != nil {
		sw.errorHandler(w, r, &InvalidParamFormatError{ParamName: "period", Err: err})
		return
	}
	sw.handler.GetUsage(w, r, params)
}
