package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/intake/internal/config"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3000", cfg.Server.Addr())
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeoutDuration())
	assert.Equal(t, config.StorePostgres, cfg.Ingest.Store)
	assert.Zero(t, cfg.Ingest.Worker.Concurrency)
	assert.Zero(t, cfg.Ingest.Worker.MaxInFlight)
	assert.Equal(t, "uploads", cfg.Storage.ContainerName)
	assert.Equal(t, "data_classification", cfg.Bus.Topic)
	assert.Equal(t, "/api", cfg.API.BasePath)
	assert.Equal(t, int64(50<<20), cfg.API.MaxUploadSizeBytes())
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFileOverlayAndEnv(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "config.toml", `
shutdown_timeout = "45s"

[server]
port = 8080

[ingest]
store = "mongo"

[ingest.worker]
concurrency = 4
max_in_flight = 16

[mongo]
database = "uploads_db"

[api]
base_path = "/v1/"
max_upload_size = "10MB"
`)
	writeFile(t, dir, "config.staging.toml", `
[server]
port = 9090

[bus]
brokers = ["kafka-1:9092", "kafka-2:9092"]
`)

	t.Setenv(config.EnvIntakeEnv, "staging")
	t.Setenv("INTAKE_INGEST_MAX_IN_FLIGHT", "32")
	t.Setenv(config.EnvLogLevel, "DEBUG")

	cfg, err := config.LoadFrom(base)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 45*time.Second, cfg.ShutdownTimeoutDuration())
	assert.Equal(t, config.StoreMongo, cfg.Ingest.Store)
	assert.Equal(t, 4, cfg.Ingest.Worker.Concurrency)
	assert.Equal(t, 32, cfg.Ingest.Worker.MaxInFlight)
	assert.Equal(t, "uploads_db", cfg.Mongo.Database)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Bus.Brokers)
	assert.Equal(t, "/v1", cfg.API.BasePath)
	assert.Equal(t, int64(10<<20), cfg.API.MaxUploadSizeBytes())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown store", "[ingest]\nstore = \"redis\"\n"},
		{"bad upload size", "[api]\nmax_upload_size = \"lots\"\n"},
		{"bad worker bounds", "[ingest.worker]\nconcurrency = 8\nmax_in_flight = 2\n"},
		{"bad log format", "[logging]\nformat = \"xml\"\n"},
		{"bad storage provider", "[storage]\nprovider = \"ftp\"\n"},
		{"malformed toml", "[server\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := writeFile(t, t.TempDir(), "config.toml", tt.body)
			_, err := config.LoadFrom(base)
			assert.Error(t, err)
		})
	}
}

func TestServerConfigEnv(t *testing.T) {
	t.Setenv(config.EnvServerPort, "4000")
	t.Setenv(config.EnvServerWriteTimeout, "5m")

	var c config.ServerConfig
	require.NoError(t, c.Finalize())

	assert.Equal(t, 4000, c.Port)
	assert.Equal(t, 5*time.Minute, c.WriteTimeoutDuration())
	assert.Equal(t, 10*time.Second, c.ReadHeaderTimeoutDuration())
}
