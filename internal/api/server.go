// Package api exposes stored imputation results over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"goimpute/internal"
	"goimpute/ports"
)

// Server serves read-only access to the artifact ledger.
type Server struct {
	reader ports.LedgerReaderPort
	logger *internal.Logger
	http   *http.Server
}

// NewServer creates the server on the given port.
func NewServer(reader ports.LedgerReaderPort, logger *internal.Logger, port string) *Server {
	s := &Server{
		reader: reader,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/runs", s.handleListRuns)
		r.Route("/runs/{runID}", func(r chi.Router) {
			r.Get("/artifacts", s.handleRunArtifacts)
			r.Get("/manifest", s.handleRunManifest)
			r.Get("/report", s.handleRunReport)
		})
	})

	s.http = &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the router, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("api listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
