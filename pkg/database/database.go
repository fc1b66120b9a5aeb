// Package database manages the PostgreSQL connection behind the record store.
//
// The pool is database/sql over the pgx driver, configured from a parsed
// pgx.ConnConfig so sessions carry an application_name and a connect timeout.
// At startup the server is pinged until it answers or the connect window
// closes, and tables registered with Require are checked for existence so a
// missing migration is reported before the first upload fails.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/JaimeStill/intake/pkg/lifecycle"
)

const pingInterval = 500 * time.Millisecond

// System manages a pooled PostgreSQL connection and lifecycle coordination.
type System interface {
	// Connection returns the underlying database connection pool.
	Connection() *sql.DB
	// Require registers tables that must exist once the server is reachable.
	// It must be called before Start.
	Require(tables ...string)
	// Start registers the startup readiness check and the shutdown close hook.
	Start(lc *lifecycle.Coordinator) error
}

type database struct {
	conn        *sql.DB
	logger      *slog.Logger
	connTimeout time.Duration

	mu       sync.Mutex
	required []string
}

// New opens a pgx-backed pool for cfg. No connection is made until the
// startup check or the first query.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	connCfg, err := connConfig(cfg)
	if err != nil {
		return nil, err
	}

	db := stdlib.OpenDB(*connCfg)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &database{
		conn:        db,
		logger:      logger.With("system", "database", "host", connCfg.Host, "db", connCfg.Database),
		connTimeout: cfg.ConnTimeoutDuration(),
	}, nil
}

func connConfig(cfg *Config) (*pgx.ConnConfig, error) {
	connCfg, err := pgx.ParseConfig(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	connCfg.ConnectTimeout = cfg.ConnTimeoutDuration()
	if cfg.ApplicationName != "" {
		connCfg.RuntimeParams["application_name"] = cfg.ApplicationName
	}
	return connCfg, nil
}

func (d *database) Connection() *sql.DB {
	return d.conn
}

func (d *database) Require(tables ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, t := range tables {
		if !slices.Contains(d.required, t) {
			d.required = append(d.required, t)
		}
	}
}

func (d *database) Start(lc *lifecycle.Coordinator) error {
	d.logger.Info("starting database connection")

	lc.OnStartup(func() {
		if err := d.waitForServer(lc.Context()); err != nil {
			d.logger.Error("database unavailable", "error", err)
			return
		}
		d.logger.Info("database connection established")

		missing, err := d.missingTables(lc.Context())
		if err != nil {
			d.logger.Error("schema check failed", "error", err)
			return
		}
		if len(missing) > 0 {
			d.logger.Error(
				"database schema incomplete, run migrations",
				"missing", strings.Join(missing, ","),
			)
		}
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()

		if err := d.conn.Close(); err != nil {
			d.logger.Error("database close failed", "error", err)
			return
		}

		d.logger.Info("database connection closed")
	})

	return nil
}

func (d *database) waitForServer(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.connTimeout)
	defer cancel()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		err := d.conn.PingContext(ctx)
		if err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("no answer within %v: %w", d.connTimeout, err)
		case <-ticker.C:
		}
	}
}

func (d *database) missingTables(ctx context.Context) ([]string, error) {
	d.mu.Lock()
	tables := slices.Clone(d.required)
	d.mu.Unlock()

	var missing []string
	for _, t := range tables {
		var exists bool
		err := d.conn.QueryRowContext(ctx, `SELECT to_regclass($1) IS NOT NULL`, t).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("check table %s: %w", t, err)
		}
		if !exists {
			missing = append(missing, t)
		}
	}
	return missing, nil
}
