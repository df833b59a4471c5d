// Package testutil provides shared test helpers: temp databases, a temp notes
// directory, and an in-memory fake of the backend bridge.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/murmur/internal/index"
	"github.com/starford/murmur/internal/storage"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "murmur-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestNotesDir creates a temporary notes directory with a JSON storage provider.
func TestNotesDir(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir, ".json")
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
