package db

import (
	"path/filepath"
	"testing"
)

// setupTestDB opens a fresh database in a per-test temp directory.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "test.db"), 0)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}
