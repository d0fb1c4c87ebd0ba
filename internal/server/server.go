// Package server exposes canvasql over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/canvasql/internal/engine"
	"github.com/leapstack-labs/canvasql/internal/overrides"
	"github.com/leapstack-labs/canvasql/internal/state"
)

// Server is the HTTP API server.
type Server struct {
	engine    *engine.Engine
	store     *state.SQLiteStore
	overrides *overrides.Source
	addr      string
	shutdown  time.Duration
	logger    *slog.Logger
}

// Config holds configuration for the HTTP server.
type Config struct {
	Engine *engine.Engine
	Store  *state.SQLiteStore
	// Overrides is watched for changes while serving. Optional.
	Overrides *overrides.Source
	Addr      string
	// ShutdownTimeout bounds graceful shutdown. Defaults to 5s.
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
}

// New creates a new server instance.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	shutdown := cfg.ShutdownTimeout
	if shutdown <= 0 {
		shutdown = 5 * time.Second
	}
	return &Server{
		engine:    cfg.Engine,
		store:     cfg.Store,
		overrides: cfg.Overrides,
		addr:      cfg.Addr,
		shutdown:  shutdown,
		logger:    logger,
	}
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting server", "addr", s.addr)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.overrides != nil && s.overrides.Path() != "" {
		if err := s.overrides.Load(); err != nil {
			s.logger.Warn("failed to load column overrides", "path", s.overrides.Path(), "error", err)
		}
		eg.Go(func() error {
			return s.overrides.Watch(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
		defer cancel()

		s.logger.Debug("shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
