package repository

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeslieKogi/sunrise-backend/internal/entity"
)

var testNow = time.Date(2025, 1, 30, 10, 0, 0, 0, time.UTC)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background(), 0))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func seedFlavour(t *testing.T, repo *FlavourRepository, name, price string, available bool) *entity.Flavour {
	t.Helper()
	f, err := repo.Create(context.Background(), &entity.Flavour{
		Name:        name,
		Price:       decimal.RequireFromString(price),
		IsAvailable: available,
		CreatedAt:   testNow,
	})
	require.NoError(t, err)
	return f
}

func countRows(t *testing.T, store *Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, store.DB.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func TestOpenSQLite(t *testing.T) {
	store := setupTestStore(t)
	assert.NotNil(t, store.DB)
	assert.Equal(t, "sqlite", string(store.Dialect))
}

func TestMigrate_Idempotent(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.Migrate(context.Background(), 0))
}

func TestIsDuplicate_PlainError(t *testing.T) {
	assert.False(t, isDuplicate(assert.AnError))
}

func TestSetLogger(t *testing.T) {
	previous := logger
	t.Cleanup(func() { logger = previous })

	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf))

	_, err := OpenMySQL(context.Background(), MySQLConfig{Host: "127.0.0.1", Port: "1", User: "sunrise", Name: "sunrise"}, 1, 0)
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"component":"repository"`)
	assert.Contains(t, buf.String(), "Retry 1")
}
