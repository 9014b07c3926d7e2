// Package api exposes the HTTP surface: the authenticated ingest trigger,
// the status read model, health and metrics.
package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/statuswatch/internal/core/config"
	"github.com/vietddude/statuswatch/internal/monitoring/aggregate"
	"github.com/vietddude/statuswatch/internal/monitoring/ingest"
)

// Runner runs one ingestion cycle.
type Runner interface {
	Run(ctx context.Context) (*ingest.CycleResult, error)
}

// StatusReader builds the status read model.
type StatusReader interface {
	GetSystemStatus(ctx context.Context) (*aggregate.SystemStatus, error)
}

// HealthChecker reports whether storage and coordination backends are reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server serves the HTTP API.
type Server struct {
	runner  Runner
	status  StatusReader
	health  HealthChecker
	ingest  config.IngestConfig
	logger  *slog.Logger
	handler http.Handler
	server  *http.Server
}

// NewServer creates the API server.
func NewServer(
	cfg config.ServerConfig,
	ingestCfg config.IngestConfig,
	runner Runner,
	status StatusReader,
	health HealthChecker,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	s := &Server{
		runner:  runner,
		status:  status,
		health:  health,
		ingest:  ingestCfg,
		logger:  logger.With("component", "api"),
		handler: mux,
	}
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	mux.HandleFunc("GET /ingest", s.handleIngest)
	mux.Handle("GET /api/status", gziphandler.GzipHandler(http.HandlerFunc(s.handleStatus)))
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server. It returns http.ErrServerClosed after Stop.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type ingestResponse struct {
	Success   bool                 `json:"success"`
	CycleID   string               `json:"cycleId"`
	Processed int                  `json:"processed"`
	Upstream  ingest.UpstreamState `json:"upstream"`
	Failures  []ingest.Failure     `json:"failures"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if s.ingest.Secret == "" {
		writeError(w, http.StatusInternalServerError, config.ErrMissingSecret.Error())
		return
	}
	if !authorized(r, s.ingest.Secret) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if s.ingest.UpstreamURL == "" {
		writeError(w, http.StatusInternalServerError, "Upstream URL not configured")
		return
	}

	// A client hanging up must not abort a cycle halfway.
	result, err := s.runner.Run(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, ingest.ErrCycleInProgress):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.logger.Error("Ingest error", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		Success:   true,
		CycleID:   result.CycleID,
		Processed: result.Processed,
		Upstream:  result.Upstream,
		Failures:  result.Failures,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	view, err := s.status.GetSystemStatus(r.Context())
	if err != nil {
		s.logger.Error("Failed to build status", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load status")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := s.health.Health(ctx); err != nil {
		s.logger.Warn("Health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func authorized(r *http.Request, secret string) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
