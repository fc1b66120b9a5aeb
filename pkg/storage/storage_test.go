package storage_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/intake/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFinalizeDefaults(t *testing.T) {
	cfg := storage.Config{}
	require.NoError(t, cfg.Finalize(nil))

	assert.Equal(t, storage.ProviderS3, cfg.Provider)
	assert.Equal(t, "uploads", cfg.ContainerName)
	assert.Equal(t, "us-east-1", cfg.Region)
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_PROVIDER", "azure")
	t.Setenv("TEST_CONTAINER", "inbox")
	t.Setenv("TEST_CONN", azuriteConnString)
	t.Setenv("TEST_PATH_STYLE", "true")

	env := &storage.Env{
		Provider:         "TEST_PROVIDER",
		ContainerName:    "TEST_CONTAINER",
		ConnectionString: "TEST_CONN",
		UsePathStyle:     "TEST_PATH_STYLE",
	}

	cfg := storage.Config{}
	require.NoError(t, cfg.Finalize(env))

	assert.Equal(t, storage.ProviderAzure, cfg.Provider)
	assert.Equal(t, "inbox", cfg.ContainerName)
	assert.Equal(t, azuriteConnString, cfg.ConnectionString)
	assert.True(t, cfg.UsePathStyle)
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr string
	}{
		{
			name:    "azure without credentials",
			cfg:     storage.Config{Provider: storage.ProviderAzure},
			wantErr: "connection_string or account_url required",
		},
		{
			name: "azure with account url",
			cfg:  storage.Config{Provider: storage.ProviderAzure, AccountURL: "https://acct.blob.core.windows.net"},
		},
		{
			name:    "s3 with half a key pair",
			cfg:     storage.Config{Provider: storage.ProviderS3, AccessKey: "minio"},
			wantErr: "access_key and secret_key must be set together",
		},
		{
			name:    "unknown provider",
			cfg:     storage.Config{Provider: "ftp"},
			wantErr: "unknown storage provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMerge(t *testing.T) {
	base := storage.Config{Provider: storage.ProviderS3, ContainerName: "uploads", Endpoint: "http://minio:9000"}
	base.Merge(&storage.Config{ContainerName: "staging", UsePathStyle: true})

	assert.Equal(t, storage.ProviderS3, base.Provider)
	assert.Equal(t, "staging", base.ContainerName)
	assert.Equal(t, "http://minio:9000", base.Endpoint)
	assert.True(t, base.UsePathStyle)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := storage.New(&storage.Config{Provider: "ftp"}, discardLogger())
	assert.ErrorIs(t, err, storage.ErrUnknownProvider)
}

func TestPutValidatesKey(t *testing.T) {
	configs := map[string]*storage.Config{
		"s3": {
			Provider:      storage.ProviderS3,
			ContainerName: "uploads",
			Region:        "us-east-1",
			Endpoint:      "http://127.0.0.1:9000",
			AccessKey:     "minioadmin",
			SecretKey:     "minioadmin",
			UsePathStyle:  true,
		},
		"azure": {
			Provider:         storage.ProviderAzure,
			ContainerName:    "uploads",
			ConnectionString: azuriteConnString,
		},
	}

	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			sys, err := storage.New(cfg, discardLogger())
			require.NoError(t, err)

			err = sys.Put(context.Background(), "", bytes.NewReader(nil), 0, "text/plain")
			assert.ErrorIs(t, err, storage.ErrEmptyKey)

			err = sys.Put(context.Background(), "a/../b.csv", bytes.NewReader(nil), 0, "text/plain")
			assert.ErrorIs(t, err, storage.ErrInvalidKey)
		})
	}
}
