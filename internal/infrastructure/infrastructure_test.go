package infrastructure_test

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/intake/internal/config"
	"github.com/JaimeStill/intake/internal/infrastructure"
)

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	return cfg
}

func TestNewSelectsPostgres(t *testing.T) {
	cfg := loadConfig(t)

	infra, err := infrastructure.NewWithWriter(cfg, &bytes.Buffer{})
	require.NoError(t, err)

	assert.NotNil(t, infra.Database)
	assert.Nil(t, infra.Mongo)
	assert.NotNil(t, infra.Storage)
	assert.NotNil(t, infra.Bus)
	assert.NotNil(t, infra.Pool)
	assert.False(t, infra.Lifecycle.Ready())
}

func TestNewSelectsMongo(t *testing.T) {
	t.Setenv(config.EnvIngestStore, config.StoreMongo)
	cfg := loadConfig(t)

	infra, err := infrastructure.NewWithWriter(cfg, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Nil(t, infra.Database)
	assert.NotNil(t, infra.Mongo)
	assert.Equal(t, "fileupload", infra.Mongo.Database().Name())
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := infrastructure.NewLogger(&config.LoggingConfig{Level: "warn", Format: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "file_id", "f-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "f-1", entry["file_id"])
}
