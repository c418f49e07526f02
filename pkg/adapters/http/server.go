// Package http serves a built dialog tree over a JSON API. The handler
// is read-only: it exposes the artifact produced by a build, never
// mutates it.
package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/domain"
)

// Server exposes one dialog tree artifact.
type Server struct {
	tree    *domain.Node
	name    string
	logger  *slog.Logger
	metrics http.Handler
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithName labels the served artifact in the info endpoint.
func WithName(name string) Option {
	return func(s *Server) {
		s.name = name
	}
}

// WithMetricsHandler mounts a handler at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates the HTTP handler serving the given tree.
func NewHandler(tree *domain.Node, opts ...Option) http.Handler {
	s := &Server{
		tree:   tree,
		name:   "tree",
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(s.logRequests)

	r.Get("/healthz", s.GetHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/info", s.GetInfo)
		r.Get("/tree", s.GetTree)
		r.Get("/tree/walk", s.WalkTree)
		r.Get("/intents", s.GetIntents)
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	return enableCORS(r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /api/v1/info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]any{
		"app":     "espalier-http",
		"version": strings.TrimSpace(espalier.Version),
		"name":    s.name,
		"tree":    s.tree.Stats(),
	})
}

// GetTree handles the GET /api/v1/tree request.
func (s *Server) GetTree(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, s.tree)
}

// WalkTree handles the GET /api/v1/tree/walk request. The path query
// parameter is a comma-separated list of intent labels followed from the
// root; an empty segment follows the agent reply. Without the parameter
// the root itself is returned.
func (s *Server) WalkTree(w http.ResponseWriter, r *http.Request) {
	node := s.tree
	if r.URL.Query().Has("path") {
		for _, intent := range strings.Split(r.URL.Query().Get("path"), ",") {
			child, ok := node.Reply(intent)
			if !ok {
				writeError(w, s.logger, http.StatusNotFound, "no reply under intent %q", intent)
				return
			}
			node = child
		}
	}
	writeJSON(w, s.logger, node)
}

// GetIntents handles the GET /api/v1/intents request.
func (s *Server) GetIntents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, s.tree.Intents())
}

// -- Helpers --

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": fmt.Sprintf(format, args...)}); err != nil {
		logger.Error("error response encode failed", "error", err)
	}
}
