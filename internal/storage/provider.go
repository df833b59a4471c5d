// Package storage defines the file-system abstraction notes and preferences
// are persisted through.
package storage

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/starford/murmur/internal/models"
)

// Provider is the interface for data directory file operations.
type Provider interface {
	// List returns metadata for every file with the provider's extension under
	// dir (relative to the root).
	List(dir string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to the root).
	Delete(path string) error
}

// NoteFile returns the file name a note with the given id is stored under.
func NoteFile(id int64) string {
	return strconv.FormatInt(id, 10) + ".json"
}

// NoteID parses the note id out of a path produced by NoteFile.
func NoteID(path string) (int64, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ".json") {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimSuffix(base, ".json"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
