package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeslieKogi/sunrise-backend/internal/repository"
)

func TestRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "seed.db")
	t.Setenv("ENV", "development")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", dbPath)

	opts := options{adminUser: "owner", adminPass: "pass-1234"}
	require.NoError(t, run(opts))
	require.NoError(t, run(opts))

	err := run(options{flavoursPath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.ErrorContains(t, err, "load flavours")

	store, err := repository.OpenSQLite(context.Background(), dbPath)
	require.NoError(t, err)
	defer store.Close()

	var flavours, admins int
	require.NoError(t, store.DB.QueryRow(`SELECT COUNT(*) FROM flavours`).Scan(&flavours))
	require.NoError(t, store.DB.QueryRow(`SELECT COUNT(*) FROM admins`).Scan(&admins))
	assert.Equal(t, 6, flavours)
	assert.Equal(t, 1, admins)
}
