package index

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/starford/murmur/internal/models"
	"github.com/starford/murmur/internal/parser"
	"github.com/starford/murmur/internal/storage"
)

// Sync walks the notes directory and brings the index up to date:
//   - new/changed files are decoded and upserted
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[int64]struct{}, len(metas))
	for _, m := range metas {
		id, ok := storage.NoteID(m.Path)
		if !ok {
			continue
		}
		disk[id] = struct{}{}

		if checksums[id] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexFile(db, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.Int64("id", id))
		}
	}

	for id := range checksums {
		if _, ok := disk[id]; !ok {
			if err := db.DeleteNote(id); err != nil {
				logger.Warn("sync: delete failed", slog.Int64("id", id), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.Int64("id", id))
			}
		}
	}

	return nil
}

// IndexFile decodes a stored note and upserts it into the DB.
func IndexFile(db NoteIndex, data []byte) error {
	var n models.Note
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("index: decode note: %w", err)
	}
	if n.ID <= 0 {
		return fmt.Errorf("index: note has no id")
	}
	return IndexNote(db, n, storage.Checksum(data))
}

// IndexNote upserts an already decoded note.
func IndexNote(db NoteIndex, n models.Note, checksum string) error {
	return db.UpsertNote(NoteRow{
		ID:        n.ID,
		Title:     n.Title,
		Checksum:  checksum,
		Tags:      parser.Tags(n.Content),
		UpdatedAt: n.Timestamp,
	}, n.Content)
}
