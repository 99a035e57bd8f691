package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ladla-backend/internal/config"
	"ladla-backend/internal/middleware"
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

// Server serves the endpoints that belong to no business domain: health
// and the public booking configuration.
type Server struct {
	Cfg    *config.Config
	Log    *slog.Logger
	Checks map[string]Check
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.Health)
	r.Get("/config", s.PublicConfig)
}

func (s *Server) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return s.Log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return s.Log.With(slog.String("request_id", id))
	}
	return s.Log
}
