package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/intake/pkg/worker"
)

// Record store backends.
const (
	StorePostgres = "postgres"
	StoreMongo    = "mongo"
)

const EnvIngestStore = "INTAKE_INGEST_STORE"

var workerEnv = &worker.Env{
	Concurrency: "INTAKE_INGEST_CONCURRENCY",
	MaxInFlight: "INTAKE_INGEST_MAX_IN_FLIGHT",
}

// IngestConfig selects the record store backend and bounds background transfers.
type IngestConfig struct {
	Store  string        `toml:"store"`
	Worker worker.Config `toml:"worker"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *IngestConfig) Finalize() error {
	if c.Store == "" {
		c.Store = StorePostgres
	}
	if v := os.Getenv(EnvIngestStore); v != "" {
		c.Store = v
	}

	switch c.Store {
	case StorePostgres, StoreMongo:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}

	if err := c.Worker.Finalize(workerEnv); err != nil {
		return fmt.Errorf("worker: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *IngestConfig) Merge(overlay *IngestConfig) {
	if overlay.Store != "" {
		c.Store = overlay.Store
	}
	c.Worker.Merge(&overlay.Worker)
}
