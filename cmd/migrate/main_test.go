package main

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgx5URL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@h:5432/db", pgx5URL("postgres://u:p@h:5432/db"))
	assert.Equal(t, "pgx5://u@h/db", pgx5URL("postgresql://u@h/db"))
	assert.Equal(t, "pgx5://already", pgx5URL("pgx5://already"))
}

func TestResolveDSNPrefersFlag(t *testing.T) {
	t.Setenv(envDSN, "postgres://env@h/db")

	dsn, err := resolveDSN("postgres://flag@h/db")
	require.NoError(t, err)
	assert.Equal(t, "pgx5://flag@h/db", dsn)

	dsn, err = resolveDSN("")
	require.NoError(t, err)
	assert.Equal(t, "pgx5://env@h/db", dsn)
}

func TestMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrations, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrations, "migrations/*.down.sql")
	require.NoError(t, err)

	assert.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}

func TestResultsTableIsIndependentOfInventory(t *testing.T) {
	sql, err := fs.ReadFile(migrations, "migrations/000002_data_scan_result.up.sql")
	require.NoError(t, err)

	assert.Contains(t, string(sql), "file_id    TEXT PRIMARY KEY,")
	assert.NotContains(t, strings.ToUpper(string(sql)), "REFERENCES")
}
