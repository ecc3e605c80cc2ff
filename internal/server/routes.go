package server

import (
	"context"

	"github.com/sonarlens/sonarlens/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	if s.history != nil {
		s.health.RegisterChecker("history", handlers.HealthCheckerFunc(func(ctx context.Context) error {
			return s.history.DB.PingContext(ctx)
		}))
	}

	// Health endpoints
	s.router.Get("/health", s.health.HealthHandler)
	s.router.Get("/health/live", s.health.LivenessHandler)
	s.router.Get("/health/ready", s.health.ReadinessHandler)

	// Version endpoint
	s.router.Get("/version", handlers.VersionHandler)

	// Chat API
	chat := handlers.NewChatHandler(s.client, s.history, s.presets)
	s.router.Post("/v1/chat", chat.Complete)
	s.router.Post("/v1/chat/stream", chat.Stream)

	// Rate limit introspection
	rl := handlers.NewRateLimitHandler(s.client.RateLimiter())
	s.router.Get("/v1/ratelimit", rl.Status)
	s.router.Post("/v1/ratelimit/reset", rl.Reset)
}
