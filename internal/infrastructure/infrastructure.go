// Package infrastructure assembles the long-lived systems every domain needs:
// logging, metrics, the selected record store connection, object storage,
// the message bus, and the background worker pool.
package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JaimeStill/intake/internal/config"
	"github.com/JaimeStill/intake/pkg/bus"
	"github.com/JaimeStill/intake/pkg/database"
	"github.com/JaimeStill/intake/pkg/lifecycle"
	"github.com/JaimeStill/intake/pkg/mongodb"
	"github.com/JaimeStill/intake/pkg/storage"
	"github.com/JaimeStill/intake/pkg/worker"
)

// Infrastructure holds the core systems required by all domain modules.
// Exactly one of Database and Mongo is non-nil, matching cfg.Ingest.Store.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Metrics   *prometheus.Registry
	Database  database.System
	Mongo     mongodb.System
	Storage   storage.System
	Bus       bus.Publisher
	Pool      *worker.Pool
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter behaves like New but writes logs to w.
func NewWithWriter(cfg *config.Config, w io.Writer) (*Infrastructure, error) {
	logger := NewLogger(&cfg.Logging, w)

	infra := &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Metrics:   NewRegistry(),
		Bus:       bus.New(&cfg.Bus, logger),
		Pool:      worker.New(&cfg.Ingest.Worker, logger),
	}

	switch cfg.Ingest.Store {
	case config.StoreMongo:
		m, err := mongodb.New(&cfg.Mongo, logger)
		if err != nil {
			return nil, fmt.Errorf("mongodb init failed: %w", err)
		}
		infra.Mongo = m
	default:
		db, err := database.New(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}
	infra.Storage = store

	return infra, nil
}

// NewLogger builds the service logger from cfg.
func NewLogger(cfg *config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewRegistry creates a metrics registry carrying the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Start registers all infrastructure systems with the lifecycle coordinator.
// The worker pool drains before any connection closes.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
	}
	if i.Mongo != nil {
		if err := i.Mongo.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("mongodb start failed: %w", err)
		}
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if err := i.Bus.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("bus start failed: %w", err)
	}

	// Registered before the HTTP server starts, so it runs after the
	// listener has finished every accepted upload.
	i.Lifecycle.OnDrain(func(ctx context.Context) {
		i.Pool.Close()
		i.Logger.Info("draining transfers", "in_flight", i.Pool.InFlight())

		if err := i.Pool.Wait(ctx); err != nil {
			i.Logger.Error("transfers abandoned at shutdown", "error", err)
			return
		}
		i.Logger.Info("transfers drained")
	})

	return nil
}
