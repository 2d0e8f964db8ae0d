// Package dbtest opens throwaway migrated databases for package tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/gurdeepsingh-hub/Contania-sub003/internal/config"
	"github.com/gurdeepsingh-hub/Contania-sub003/internal/database"
	"github.com/stretchr/testify/require"
)

// Open returns a migrated sqlite database living in the test's temp dir.
func Open(t testing.TB) *database.DB {
	t.Helper()
	db, err := database.Connect(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.db"),
		Silent: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}
