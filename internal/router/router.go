// Package router mounts the API handlers on a ServeMux and wraps them with
// access logging.
package router

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/radioepoka/showcaster/internal/api"
	"github.com/radioepoka/showcaster/internal/config"
)

type Router struct {
	config   *config.Config
	handlers *api.Handlers
	logger   zerolog.Logger
}

func New(cfg *config.Config, h *api.Handlers, logger zerolog.Logger) http.Handler {
	r := &Router{
		config:   cfg,
		handlers: h,
		logger:   logger,
	}
	return r.setupRoutes()
}

func (r *Router) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /events", r.handlers.ListEvents)
	mux.HandleFunc("POST /events", r.handlers.CreateEvent)
	mux.HandleFunc("GET /events/{id}", r.handlers.GetEvent)
	mux.HandleFunc("PATCH /events/{id}", r.handlers.PatchEvent)
	mux.HandleFunc("DELETE /events/{id}", r.handlers.DeleteEvent)

	mux.HandleFunc("GET /shows", r.handlers.ListShows)
	mux.HandleFunc("POST /shows", r.handlers.CreateShow)
	mux.HandleFunc("GET /shows/{id}", r.handlers.GetShow)
	mux.HandleFunc("PATCH /shows/{id}", r.handlers.PatchShow)
	mux.HandleFunc("DELETE /shows/{id}", r.handlers.DeleteShow)

	mux.HandleFunc("GET /schedule", r.handlers.GetSchedule)
	mux.HandleFunc("GET /sse", r.handlers.StreamChanges)
	mux.HandleFunc("GET /ping", r.handlers.Ping)

	var handler http.Handler = mux
	if base := r.getBasePath(); base != "" {
		handler = http.StripPrefix(base, handler)
	}
	return r.logRequests(handler)
}

// getBasePath normalizes the configured base path to either "" (serve at
// root) or "/prefix" with no trailing slash.
func (r *Router) getBasePath() string {
	base := strings.TrimSuffix(r.config.HTTP.BasePath, "/")
	if base == "" || base[0] != '/' {
		return ""
	}
	return base
}
