// Package httpserver assembles the stores, coordinators and HTTP handlers
// into a runnable server.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/radioepoka/showcaster/internal/api"
	"github.com/radioepoka/showcaster/internal/bus"
	"github.com/radioepoka/showcaster/internal/calstore"
	"github.com/radioepoka/showcaster/internal/config"
	"github.com/radioepoka/showcaster/internal/coordinator"
	"github.com/radioepoka/showcaster/internal/relstore"
	"github.com/radioepoka/showcaster/internal/relstore/memory"
	"github.com/radioepoka/showcaster/internal/relstore/postgres"
	"github.com/radioepoka/showcaster/internal/relstore/sqlite"
	"github.com/radioepoka/showcaster/internal/router"
)

type Server struct {
	http   *http.Server
	logger zerolog.Logger
}

func NewServer(cfg *config.Config, logger zerolog.Logger) (*Server, func(), error) {
	var store relstore.Store
	var err error

	switch cfg.Storage.Type {
	case "postgres":
		store, err = postgres.New(cfg.Storage.PostgresURL, logger)
	case "sqlite":
		store, err = sqlite.New(cfg.Storage.SQLitePath, logger)
	case "memory":
		store = memory.New()
	default:
		err = errors.New("unknown storage type: " + cfg.Storage.Type)
	}
	if err != nil {
		return nil, nil, err
	}

	cal, err := calstore.New(calstore.Config{
		BaseURL:  cfg.CalDAV.URL,
		Username: cfg.CalDAV.Username,
		Password: cfg.CalDAV.Password,
	}, logger)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	// One shared cache keeps the two coordinators coherent.
	cachedCal := coordinator.NewCachedCalendar(cal, time.Minute)

	broker := bus.NewBroker(cfg.Bus.Buffer, logger)
	events := coordinator.NewEvents(store, cachedCal, broker, logger)
	shows := coordinator.NewShows(store, cachedCal, broker, logger)
	handlers := api.NewHandlers(events, shows, broker, logger)
	mux := router.New(cfg, handlers, logger)

	srv := &Server{
		http: &http.Server{
			Addr:        cfg.HTTP.Addr,
			Handler:     mux,
			ReadTimeout: 30 * time.Second,
			IdleTimeout: 120 * time.Second,
		},
		logger: logger,
	}
	cleanup := func() {
		store.Close()
	}
	logger.Info().Msgf("listening on %s (storage=%s)", cfg.HTTP.Addr, cfg.Storage.Type)
	return srv, cleanup, nil
}

func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
