// Package api provides the operational HTTP surface of meetbridge.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/meetbridge/pkg/observability"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in and out of the server.
const RequestIDHeader = "X-Request-ID"

// Server is the operational HTTP server.
type Server struct {
	mux       *http.ServeMux
	server    *http.Server
	logger    *slog.Logger
	deps      Dependencies
	opsToken  string
	startedAt time.Time
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// OpsToken is the bearer token required for /metrics and /meetings.
	// Those routes are not served without one.
	OpsToken     string
}

// Dependencies are the components the routes read from. Nil members
// disable their routes.
type Dependencies struct {
	Health   *observability.HealthRegistry
	Metrics  *observability.InMemoryMetrics
	Meetings *MeetingsHandler
	// SlackEvents serves the Events API endpoint when events arrive over HTTP.
	SlackEvents http.Handler
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         ":3000",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, deps Dependencies, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		deps:      deps,
		opsToken:  cfg.OpsToken,
		startedAt: time.Now(),
	}
	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /readyz", s.handleReady)

	if s.opsToken == "" {
		if s.deps.Metrics != nil || s.deps.Meetings != nil {
			s.logger.Warn("ops auth token not set; /metrics and /meetings are disabled")
		}
	} else {
		if s.deps.Metrics != nil {
			s.mux.Handle("GET /metrics", s.requireOpsToken(http.HandlerFunc(s.handleMetrics)))
		}
		if s.deps.Meetings != nil {
			s.mux.Handle("GET /meetings", s.requireOpsToken(http.HandlerFunc(s.deps.Meetings.ListMeetings)))
		}
	}
	if s.deps.SlackEvents != nil {
		s.mux.Handle("POST /slack/events", s.deps.SlackEvents)
	}
}

// Handler returns the routed handler wrapped in request middleware.
func (s *Server) Handler() http.Handler {
	return withRequestID(s.mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(s.startedAt).Round(time.Second).String(),
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": string(observability.HealthStatusHealthy)})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	health := s.deps.Health.GetOverallHealth(ctx)
	status := http.StatusOK
	if health.Status == observability.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Metrics.Snapshot())
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("starting http server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// requireOpsToken rejects requests without the configured bearer token.
func (s *Server) requireOpsToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.opsToken)) != 1 {
			w.Header().Set("WWW-Authenticate", `Bearer realm="meetbridge"`)
			writeError(w, http.StatusUnauthorized, "Missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRequestID propagates or assigns a request id.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(observability.WithRequestID(r.Context(), id)))
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}
