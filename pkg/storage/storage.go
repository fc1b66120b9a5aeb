// Package storage provides durable blob writes with Azure Blob Storage and
// S3-compatible (AWS, MinIO) implementations.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/JaimeStill/intake/pkg/lifecycle"
)

// System manages object store writes and lifecycle coordination.
type System interface {
	// Start registers a startup hook that ensures the container or bucket exists.
	Start(lc *lifecycle.Coordinator) error
	// Put writes size bytes from reader under key, tagged with contentType.
	// Timeouts, if any, come from ctx and the provider client.
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
}

// New creates the storage system selected by cfg.Provider.
// Clients are constructed eagerly; no network traffic happens until Start or Put.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	logger = logger.With("system", "storage", "provider", cfg.Provider)

	var (
		sys System
		err error
	)

	switch cfg.Provider {
	case ProviderAzure:
		sys, err = newAzure(cfg, logger)
	case ProviderS3:
		sys, err = newS3(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}

	if err != nil {
		return nil, err
	}
	return sys, nil
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}
