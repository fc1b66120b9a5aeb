package api_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/intake/internal/api"
	"github.com/JaimeStill/intake/internal/config"
	"github.com/JaimeStill/intake/internal/infrastructure"
)

func newHandler(t *testing.T) http.Handler {
	t.Helper()
	t.Setenv(config.EnvAPIBasePath, "/v1/")

	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)

	infra, err := infrastructure.NewWithWriter(cfg, &bytes.Buffer{})
	require.NoError(t, err)

	return api.NewHandler(cfg, infra)
}

func TestHandlerMountsUnderBasePath(t *testing.T) {
	h := newHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/file/upload", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "text/plain")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/file/upload", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerRejectsWrongMethod(t *testing.T) {
	h := newHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/file/status/abc", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
