// Package server exposes the chat client over HTTP: chat completions,
// streaming, rate-limit introspection, health probes, and version info.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sonarlens/sonarlens/internal/config"
	apperrors "github.com/sonarlens/sonarlens/internal/errors"
	"github.com/sonarlens/sonarlens/internal/history"
	"github.com/sonarlens/sonarlens/internal/observability"
	"github.com/sonarlens/sonarlens/internal/pplx"
	"github.com/sonarlens/sonarlens/internal/prompt"
	"github.com/sonarlens/sonarlens/internal/server/handlers"
	servermw "github.com/sonarlens/sonarlens/internal/server/middleware"
)

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	cfg    config.ServerConfig

	client  *pplx.Client
	history *history.Store
	presets prompt.Registry
	health  *handlers.HealthManager
}

// Option adjusts server construction.
type Option func(*Server)

// WithHistory attaches a history store; exchanges served over HTTP are
// recorded and the store joins the readiness probe.
func WithHistory(store *history.Store) Option {
	return func(s *Server) { s.history = store }
}

// WithPresets attaches a prompt preset registry.
func WithPresets(presets prompt.Registry) Option {
	return func(s *Server) { s.presets = presets }
}

// New creates a new HTTP server instance
func New(cfg config.ServerConfig, client *pplx.Client, version string, opts ...Option) *Server {
	r := chi.NewRouter()

	// Standard chi middleware
	r.Use(middleware.RealIP)

	// Custom middleware in order: request ID first for correlation, then
	// panic recovery.
	r.Use(servermw.RequestID)
	r.Use(servermw.Recovery)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewNotFoundError("The requested resource was not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		HandleError(w, req, apperrors.NewMethodNotAllowedError("The requested method is not allowed for this resource"))
	})

	s := &Server{
		router: r,
		cfg:    cfg,
		client: client,
		health: handlers.NewHealthManager(version),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Ensure handlers use the centralized error responder
	handlers.SetHTTPErrorResponder(HandleError)

	s.registerRoutes()

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	observability.ServerLogger.Info("Starting HTTP server",
		zap.String("host", s.cfg.Host),
		zap.Int("port", s.cfg.Port),
		zap.String("addr", addr))

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	observability.ServerLogger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the configured server port
func (s *Server) Port() int {
	return s.cfg.Port
}
