// Package api serves the tables of a database over a read-only HTTP API.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/solverstats/pkg/config"
	"github.com/ethpandaops/solverstats/pkg/database"
	"github.com/ethpandaops/solverstats/pkg/store"
)

// Server exposes the API HTTP server lifecycle.
type Server interface {
	Start(ctx context.Context) error
	Stop() error
}

// Compile-time interface check.
var _ Server = (*server)(nil)

type server struct {
	log        logrus.FieldLogger
	cfg        *config.APIConfig
	db         *database.Database
	datasets   store.Store
	httpServer *http.Server
	wg         sync.WaitGroup
	done       chan struct{}
	stopOnce   sync.Once
}

// NewServer creates a new API server for db. When datasets is non-nil the
// saved datasets are served as well; the server starts and stops it.
func NewServer(
	log logrus.FieldLogger,
	cfg *config.APIConfig,
	db *database.Database,
	datasets store.Store,
) Server {
	return &server{
		log:      log.WithField("component", "api"),
		cfg:      cfg,
		db:       db,
		datasets: datasets,
		done:     make(chan struct{}),
	}
}

// Start starts the dataset store, if any, and the HTTP server.
func (s *server) Start(ctx context.Context) error {
	if s.datasets != nil {
		if err := s.datasets.Start(ctx); err != nil {
			return fmt.Errorf("starting store: %w", err)
		}
	}

	s.httpServer = &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.buildRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Bind the listener synchronously so we fail fast on port conflicts.
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		if s.datasets != nil {
			if stopErr := s.datasets.Stop(); stopErr != nil {
				s.log.WithError(stopErr).Warn("Failed to stop store")
			}
		}

		return fmt.Errorf("listening on %s: %w", s.cfg.Listen, err)
	}

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		s.log.WithField("listen", s.cfg.Listen).
			Info("API server starting")

		if err := s.httpServer.Serve(ln); err != nil &&
			err != http.ErrServerClosed {
			s.log.WithError(err).Error("HTTP server error")
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server and closes the store. Calls
// after the first are no-ops.
func (s *server) Stop() error {
	var err error

	s.stopOnce.Do(func() {
		err = s.stop()
	})

	return err
}

func (s *server) stop() error {
	close(s.done)

	if s.httpServer != nil {
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = config.DefaultShutdownTimeout
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.log.WithError(err).Warn("HTTP server shutdown error")
		}
	}

	s.wg.Wait()

	if s.datasets != nil {
		if err := s.datasets.Stop(); err != nil {
			return fmt.Errorf("stopping store: %w", err)
		}
	}

	s.log.Info("API server stopped")

	return nil
}
