// Package server exposes the admin HTTP API and the gRPC health endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/joseph-ayodele/file-ingestor/internal/async"
	"github.com/joseph-ayodele/file-ingestor/internal/entity"
	"github.com/joseph-ayodele/file-ingestor/internal/repository"
)

// AttemptReader is the read side of the attempt log.
type AttemptReader interface {
	Get(ctx context.Context, id string) (*entity.Attempt, error)
	List(ctx context.Context, f repository.ListAttemptsFilter) ([]entity.Attempt, error)
}

// RuleStore lists and replaces the active rule set.
type RuleStore interface {
	Rules(ctx context.Context) ([]entity.Rule, error)
	Replace(ctx context.Context, rules []entity.Rule) error
}

// Exporter renders attempts as an XLSX workbook.
type Exporter interface {
	ExportAttemptsXLSX(ctx context.Context, f repository.ListAttemptsFilter) ([]byte, error)
}

type Deps struct {
	Attempts AttemptReader
	// Rules is nil when rules come from a file; PUT /rules is then refused.
	Rules    RuleStore
	Queue    async.Queue
	Exporter Exporter
	Health   func(ctx context.Context) error
}

// Server is the admin HTTP API.
type Server struct {
	deps   Deps
	router *chi.Mux
	server *http.Server
	logger *slog.Logger
}

func NewServer(deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{deps: deps, router: chi.NewRouter(), logger: logger}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/attempts", func(r chi.Router) {
		r.Get("/", s.handleListAttempts)
		r.Get("/export.xlsx", s.handleExportAttempts)
		r.Get("/{id}", s.handleGetAttempt)
	})

	s.router.Post("/process", s.handleProcess)

	s.router.Get("/rules", s.handleGetRules)
	s.router.Put("/rules", s.handlePutRules)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.server.Addr = addr
	s.logger.Info("admin http listening", "addr", addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

// writeJSON encodes v as JSON and writes it to w.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("json encode error", "error", err)
	}
}
