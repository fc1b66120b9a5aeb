package worker

import (
	"fmt"
	"os"
	"strconv"
)

// Config bounds background execution. Zero means unbounded.
type Config struct {
	Concurrency int `toml:"concurrency"`
	MaxInFlight int `toml:"max_in_flight"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Concurrency string
	MaxInFlight string
}

// Finalize applies environment variable overrides and validation.
// Both limits default to zero (unbounded).
func (c *Config) Finalize(env *Env) error {
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Concurrency != 0 {
		c.Concurrency = overlay.Concurrency
	}
	if overlay.MaxInFlight != 0 {
		c.MaxInFlight = overlay.MaxInFlight
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Concurrency != "" {
		if v := os.Getenv(env.Concurrency); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Concurrency = n
			}
		}
	}
	if env.MaxInFlight != "" {
		if v := os.Getenv(env.MaxInFlight); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxInFlight = n
			}
		}
	}
}

func (c *Config) validate() error {
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative")
	}
	if c.MaxInFlight < 0 {
		return fmt.Errorf("max_in_flight must not be negative")
	}
	if c.Concurrency > 0 && c.MaxInFlight > 0 && c.MaxInFlight < c.Concurrency {
		return fmt.Errorf("max_in_flight (%d) cannot be less than concurrency (%d)", c.MaxInFlight, c.Concurrency)
	}
	return nil
}
