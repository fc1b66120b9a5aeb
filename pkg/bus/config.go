package bus

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds message bus connection parameters.
type Config struct {
	Brokers          []string `toml:"brokers"`
	ClientID         string   `toml:"client_id"`
	Topic            string   `toml:"topic"`
	WriteTimeout     string   `toml:"write_timeout"`
	AutoCreateTopics bool     `toml:"auto_create_topics"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Brokers          string
	ClientID         string
	Topic            string
	WriteTimeout     string
	AutoCreateTopics string
}

// WriteTimeoutDuration returns WriteTimeout as a time.Duration.
func (c *Config) WriteTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.WriteTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Brokers != nil {
		c.Brokers = overlay.Brokers
	}
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
	if overlay.Topic != "" {
		c.Topic = overlay.Topic
	}
	if overlay.WriteTimeout != "" {
		c.WriteTimeout = overlay.WriteTimeout
	}
	if overlay.AutoCreateTopics {
		c.AutoCreateTopics = true
	}
}

func (c *Config) loadDefaults() {
	if len(c.Brokers) == 0 {
		c.Brokers = []string{"localhost:9092"}
	}
	if c.ClientID == "" {
		c.ClientID = "intake"
	}
	if c.Topic == "" {
		c.Topic = "data_classification"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "10s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Brokers != "" {
		if v := os.Getenv(env.Brokers); v != "" {
			brokers := strings.Split(v, ",")
			c.Brokers = make([]string, 0, len(brokers))
			for _, b := range brokers {
				if trimmed := strings.TrimSpace(b); trimmed != "" {
					c.Brokers = append(c.Brokers, trimmed)
				}
			}
		}
	}
	if env.ClientID != "" {
		if v := os.Getenv(env.ClientID); v != "" {
			c.ClientID = v
		}
	}
	if env.Topic != "" {
		if v := os.Getenv(env.Topic); v != "" {
			c.Topic = v
		}
	}
	if env.WriteTimeout != "" {
		if v := os.Getenv(env.WriteTimeout); v != "" {
			c.WriteTimeout = v
		}
	}
	if env.AutoCreateTopics != "" {
		if v := os.Getenv(env.AutoCreateTopics); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				c.AutoCreateTopics = b
			}
		}
	}
}

func (c *Config) validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("brokers required")
	}
	if c.Topic == "" {
		return fmt.Errorf("topic required")
	}
	if _, err := time.ParseDuration(c.WriteTimeout); err != nil {
		return fmt.Errorf("invalid write_timeout: %w", err)
	}
	return nil
}
