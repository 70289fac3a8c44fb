package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pagestack/pkg/errors"
	"github.com/matzehuels/pagestack/pkg/pipeline"
	"github.com/matzehuels/pagestack/pkg/render/sink"
)

func newTestServer(cfg Config) *Server {
	logger := log.New(&bytes.Buffer{})
	cfg.Logger = logger
	return New(pipeline.NewRunner(nil, nil, logger), cfg)
}

type upload struct {
	name string
	data []byte
}

func multipartRequest(t *testing.T, path string, files []upload, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := mw.CreateFormFile("file", f.name)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(f.data)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

var notes = []upload{{"notes.txt", []byte("one\ftwo\fthree\ffour\ffive")}}

func TestMerge(t *testing.T) {
	s := newTestServer(Config{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, multipartRequest(t, "/v1/merge", notes, map[string]string{
		"rows":  "2",
		"cols":  "2",
		"label": "Page {n}",
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	h := rec.Header()
	if got := h.Get("Content-Type"); got != "application/pdf" {
		t.Errorf("Content-Type = %q", got)
	}
	if got, want := h.Get("Content-Disposition"), `attachment; filename="notes_merged.pdf"`; got != want {
		t.Errorf("Content-Disposition = %q, want %q", got, want)
	}
	if h.Get(PagesHeader) != "5" || h.Get(SheetsHeader) != "2" {
		t.Errorf("pages/sheets headers = %s/%s", h.Get(PagesHeader), h.Get(SheetsHeader))
	}
	if h.Get(RequestIDHeader) == "" {
		t.Error("response should carry a request ID")
	}
	if n, err := sink.PageCount(rec.Body.Bytes()); err != nil || n != 2 {
		t.Errorf("merged PDF has %d pages (err %v), want 2", n, err)
	}
}

func TestMergeDefaults(t *testing.T) {
	s := newTestServer(Config{Defaults: func(o *pipeline.Options) {
		if o.Cols == 0 {
			o.Cols = 5
		}
		o.Formats = append(o.Formats, "json", "pdf")
	}})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, multipartRequest(t, "/v1/merge", notes, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want the first configured format", got)
	}
	var plan sink.Plan
	if err := json.Unmarshal(rec.Body.Bytes(), &plan); err != nil {
		t.Fatal(err)
	}
	if plan.Cols != 5 || plan.Sheets != 1 {
		t.Errorf("plan = %d cols, %d sheets; want 5, 1", plan.Cols, plan.Sheets)
	}
}

func TestPlan(t *testing.T) {
	s := newTestServer(Config{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, multipartRequest(t, "/v1/plan", notes, map[string]string{"anchor": "bottom-right", "format": "pdf"}))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var plan sink.Plan
	if err := json.Unmarshal(rec.Body.Bytes(), &plan); err != nil {
		t.Fatalf("plan is not JSON: %v", err)
	}
	if len(plan.Placements) != 5 || plan.Placements[0].Label.Align.String() != "right" {
		t.Errorf("plan placements = %+v", plan.Placements)
	}
}

func TestMergeErrors(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		files  []upload
		fields map[string]string
		status int
		code   errors.Code
	}{
		{"missing file", Config{}, nil, map[string]string{"rows": "2"}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad rows", Config{}, notes, map[string]string{"rows": "two"}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"zero-size grid", Config{}, notes, map[string]string{"cols": "-2"}, http.StatusBadRequest, errors.ErrCodeInvalidGeometry},
		{"bad anchor", Config{}, notes, map[string]string{"anchor": "centre"}, http.StatusBadRequest, errors.ErrCodeInvalidAnchor},
		{"bad color", Config{}, notes, map[string]string{"color": "#12"}, http.StatusBadRequest, errors.ErrCodeInvalidColor},
		{"two formats", Config{}, notes, map[string]string{"format": "pdf,png"}, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"unsupported input", Config{}, []upload{{"movie.mp4", []byte("x")}}, nil, http.StatusUnsupportedMediaType, errors.ErrCodeUnsupportedFormat},
		{"bad filename", Config{}, []upload{{".txt", []byte("x")}}, nil, http.StatusBadRequest, errors.ErrCodeInvalidFilename},
		{"corrupt pdf", Config{}, []upload{{"bad.pdf", []byte("not a pdf")}}, nil, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"corrupt image", Config{}, []upload{{"bad.png", []byte("not a png")}}, nil, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"non-latin label", Config{}, notes, map[string]string{"label": "Страница {n}"}, http.StatusBadRequest, errors.ErrCodeInvalidLabel},
		{"too large", Config{MaxUploadBytes: 64}, []upload{{"big.txt", bytes.Repeat([]byte("x"), 4096)}}, nil, http.StatusRequestEntityTooLarge, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(tt.cfg)
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, multipartRequest(t, "/v1/merge", tt.files, tt.fields))

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("error body is not JSON: %v", err)
			}
			if body.Error.Code != tt.code {
				t.Errorf("code = %s, want %s", body.Error.Code, tt.code)
			}
			if body.Error.RequestID == "" {
				t.Error("error body should carry the request ID")
			}
		})
	}
}

func TestMergeNotMultipart(t *testing.T) {
	s := newTestServer(Config{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/merge", bytes.NewReader([]byte(`{"rows":2}`)))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHealthAndFormats(t *testing.T) {
	s := newTestServer(Config{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/healthz status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/formats", nil))
	var formats map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &formats); err != nil {
		t.Fatal(err)
	}
	if len(formats["inputs"]) == 0 || len(formats["outputs"]) != 3 {
		t.Errorf("formats = %v", formats)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(Config{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/v1/merge", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("preflight should allow any origin")
	}
}

func TestRequestIDPropagation(t *testing.T) {
	s := newTestServer(Config{})
	const id = "0b6f1c2e-6d1a-4f8e-9a43-3d1c1f6f2a10"

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != id {
		t.Errorf("request ID = %q, want the client's %q", got, id)
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid\r\nX-Evil: 1")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got == "" || got == req.Header.Get(RequestIDHeader) {
		t.Errorf("malformed client ID should be replaced, got %q", got)
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidGeometry, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeUnsupportedFormat, "x"), http.StatusUnsupportedMediaType},
		{errors.New(errors.ErrCodeNonUniformPageSize, "x"), http.StatusUnprocessableEntity},
		{errors.New(errors.ErrCodeWrongPassword, "x"), http.StatusForbidden},
		{errors.New(errors.ErrCodeConversion, "x"), http.StatusInternalServerError},
		{errors.Wrap(errors.ErrCodeInvalidInput, &http.MaxBytesError{Limit: 1}, "x"), http.StatusRequestEntityTooLarge},
		{fmt.Errorf("render: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusCode(tt.err); got != tt.want {
			t.Errorf("StatusCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestServeShutdown(t *testing.T) {
	s := newTestServer(Config{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()
	cancel()
	if err := <-done; err != nil {
		t.Errorf("ListenAndServe after cancel = %v, want nil", err)
	}
}
