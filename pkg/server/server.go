// Package server exposes the merge pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz      liveness and version
//	GET  /v1/formats   accepted input extensions and output formats
//	POST /v1/merge     multipart upload, responds with the merged document
//	POST /v1/plan      multipart upload, responds with the JSON placement plan
//
// /v1/merge takes one "file" part (several are allowed for images) and
// optional form fields rows, cols, anchor, label, font, font_size, color,
// format, title, scale, optimize, password and refresh. The response is
// sent as an attachment named "<input stem>_merged.<ext>".
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pagestack/pkg/pipeline"
)

// Defaults for [Config].
const (
	DefaultAddr           = ":8080"
	DefaultMaxUploadBytes = 64 << 20
	DefaultRequestTimeout = 5 * time.Minute
)

// Config configures a [Server].
type Config struct {
	// Addr is the listen address. Defaults to DefaultAddr.
	Addr string

	// MaxUploadBytes caps the request body. Defaults to DefaultMaxUploadBytes.
	MaxUploadBytes int64

	// RequestTimeout bounds one merge. Defaults to DefaultRequestTimeout.
	RequestTimeout time.Duration

	// Defaults fills form fields the client leaves out (rows, cols, label,
	// ...), typically loaded from the config file.
	Defaults func(*pipeline.Options)

	Logger *log.Logger
}

// Server serves merge requests through a shared [pipeline.Runner].
type Server struct {
	runner *pipeline.Runner
	cfg    Config
	logger *log.Logger
	router chi.Router
}

// New returns a server running merges on runner.
func New(runner *pipeline.Runner, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := &Server{runner: runner, cfg: cfg, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/formats", s.handleFormats)
		r.With(middleware.Timeout(s.cfg.RequestTimeout)).Post("/merge", s.handleMerge)
		r.With(middleware.Timeout(s.cfg.RequestTimeout)).Post("/plan", s.handlePlan)
	})
	return r
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully, waiting up to 30 seconds for in-flight merges.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
