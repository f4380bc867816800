package chi

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	domdoc "github.com/kailas-cloud/pdfchat/internal/domain/document"
	domusage "github.com/kailas-cloud/pdfchat/internal/domain/usage"
	agentuc "github.com/kailas-cloud/pdfchat/internal/usecase/agent"
	healthuc "github.com/kailas-cloud/pdfchat/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/pdfchat/internal/usecase/ingest"
)

type mockExtractor struct {
	extractFn func(ctx context.Context, contentType string, data []byte) (string, error)
}

func (m *mockExtractor) Extract(ctx context.Context, contentType string, data []byte) (string, error) {
	if m.extractFn != nil {
		return m.extractFn(ctx, contentType, data)
	}
	return string(data), nil
}

type mockIngester struct {
	ingestFn func(ctx context.Context, req ingestuc.Request) (ingestuc.Summary, error)
	last     ingestuc.Request
}

func (m *mockIngester) Ingest(ctx context.Context, req ingestuc.Request) (ingestuc.Summary, error) {
	m.last = req
	if m.ingestFn != nil {
		return m.ingestFn(ctx, req)
	}
	id := req.DocumentID
	if id == "" {
		id = "generated-id"
	}
	return ingestuc.Summary{DocumentID: id, ChunksCreated: 2, Filename: req.Filename}, nil
}

type mockAgent struct {
	runFn  func(ctx context.Context, threadID, documentID, text string) (agentuc.Reply, error)
	thread string
}

func (m *mockAgent) RunTurn(ctx context.Context, threadID, documentID, text string) (agentuc.Reply, error) {
	m.thread = threadID
	if m.runFn != nil {
		return m.runFn(ctx, threadID, documentID, text)
	}
	return agentuc.Reply{Text: "ok"}, nil
}

type mockDocuments struct {
	listFn func(ctx context.Context, limit int) ([]domdoc.Document, error)
	getFn  func(ctx context.Context, id string) (domdoc.Document, error)
}

func (m *mockDocuments) List(ctx context.Context, limit int) ([]domdoc.Document, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockDocuments) Get(ctx context.Context, id string) (domdoc.Document, error) {
	return m.getFn(ctx, id)
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(context.Context) healthuc.Report { return m.report }

type mockUsage struct {
	report domusage.Report
	period domusage.Period
}

func (m *mockUsage) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	m.period = period
	return m.report
}

// testServer bundles the mocks behind a routed handler.
type testServer struct {
	extractor *mockExtractor
	ingest    *mockIngester
	agent     *mockAgent
	documents *mockDocuments
	health    *mockHealth
	usage     *mockUsage
	handler   http.Handler
}

func newTestServer(t *testing.T, opts ...Option) *testServer {
	t.Helper()
	ts := &testServer{
		extractor: &mockExtractor{},
		ingest:    &mockIngester{},
		agent:     &mockAgent{},
		documents: &mockDocuments{},
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{healthuc.CheckDatabase: healthuc.CheckOK},
		}},
		usage: &mockUsage{},
	}
	srv := NewServer(ts.extractor, ts.ingest, ts.agent, ts.documents, ts.health, ts.usage, nil, opts...)
	ts.handler = HandlerWithOptions(srv, ChiServerOptions{ErrorHandlerFunc: srv.BindErrorHandler})
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

// uploadRequest builds a multipart POST /upload with one file part.
func uploadRequest(t *testing.T, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
