// Package http exposes the job's operational surface when it runs in
// interval mode: liveness, readiness enriched with run progress, the
// currently persisted artifact, and Prometheus metrics. One-shot cron runs
// have no listener.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tidewatch/currentpoint/internal/domain"
	"github.com/tidewatch/currentpoint/internal/pipeline"
)

// RunReporter reports whether an artifact has been persisted yet and how the
// job's runs have been going.
type RunReporter interface {
	CheckReadiness(ctx context.Context) error
	Status() pipeline.Status
}

// ArtifactSource reads back the persisted artifact. Absence is reported via
// the boolean, not an error.
type ArtifactSource interface {
	Load() (domain.Artifact, bool, error)
}

// Server serves /healthz, /readyz, /artifact, and /metrics.
type Server struct {
	httpServer *http.Server
	runs       RunReporter
	artifacts  ArtifactSource
	logger     *slog.Logger
}

// NewServer wires the ops routes against the pipeline and the artifact store.
func NewServer(addr string, runs RunReporter, artifacts ArtifactSource, logger *slog.Logger) *Server {
	s := &Server{
		runs:      runs,
		artifacts: artifacts,
		logger:    logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /artifact", s.handleArtifact)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// readyResponse flattens the pipeline run state into the readiness body so
// probes and operators see run counts and the latest outcome in one place.
type readyResponse struct {
	State string `json:"status"`
	Error string `json:"error,omitempty"`
	pipeline.Status
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := readyResponse{State: "ready", Status: s.runs.Status()}
	code := http.StatusOK
	if err := s.runs.CheckReadiness(ctx); err != nil {
		resp.State = "not ready"
		resp.Error = err.Error()
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// handleArtifact serves the latest persisted artifact verbatim, letting
// operators inspect the current-point estimate without shelling into the
// output volume.
func (s *Server) handleArtifact(w http.ResponseWriter, _ *http.Request) {
	art, found, err := s.artifacts.Load()
	switch {
	case err != nil:
		s.logger.Error("artifact read failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "artifact unreadable"})
	case !found:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no artifact persisted yet"})
	default:
		writeJSON(w, http.StatusOK, art)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort ops response
}
