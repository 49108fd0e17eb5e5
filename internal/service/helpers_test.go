package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbruun/kontoflow/internal/database"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrations(db))
	return db
}

func newSeededTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := newTestDB(t)
	require.NoError(t, database.SeedDefaults(context.Background(), db))
	return db
}
