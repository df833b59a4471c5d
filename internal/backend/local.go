package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/index"
	"github.com/starford/murmur/internal/models"
	"github.com/starford/murmur/internal/speech"
	"github.com/starford/murmur/internal/sse"
	"github.com/starford/murmur/internal/storage"
)

// Publisher receives host-side change notifications.
type Publisher interface {
	Publish(event sse.Event)
	PublishNoteEvent(kind string, id int64)
}

// ModelEnsurer makes the recognition model available.
type ModelEnsurer interface {
	Ensure(ctx context.Context) (string, error)
}

// LocalConfig wires the host dependencies. Index, Publisher and Logger are
// optional.
type LocalConfig struct {
	Store         storage.Provider
	Index         index.NoteIndex
	Model         ModelEnsurer
	Recorder      speech.Recorder
	Transcriber   speech.Transcriber
	Publisher     Publisher
	RecordingsDir string
	Logger        *slog.Logger
}

// Local executes bridge commands in-process against the notes directory and
// the speech pipeline.
type Local struct {
	store         storage.Provider
	db            index.NoteIndex
	model         ModelEnsurer
	recorder      speech.Recorder
	transcriber   speech.Transcriber
	pub           Publisher
	recordingsDir string
	logger        *slog.Logger
	now           func() time.Time

	// audioMu serializes start/stop so a recording path is never orphaned.
	audioMu sync.Mutex
}

// NewLocal creates a host backend.
func NewLocal(cfg LocalConfig) *Local {
	l := &Local{
		store:         cfg.Store,
		db:            cfg.Index,
		model:         cfg.Model,
		recorder:      cfg.Recorder,
		transcriber:   cfg.Transcriber,
		pub:           cfg.Publisher,
		recordingsDir: cfg.RecordingsDir,
		logger:        cfg.Logger,
		now:           time.Now,
	}
	if l.pub == nil {
		l.pub = nopPublisher{}
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// LoadNotes reads every stored note, newest first. A single unreadable file
// fails the whole load.
func (l *Local) LoadNotes(_ context.Context) ([]models.Note, error) {
	files, err := l.store.List("")
	if err != nil {
		return nil, fmt.Errorf("load notes: %w", err)
	}

	notes := make([]models.Note, 0, len(files))
	for _, f := range files {
		if _, ok := storage.NoteID(f.Path); !ok {
			continue
		}
		data, err := l.store.Read(f.Path)
		if err != nil {
			return nil, fmt.Errorf("load notes: %w", err)
		}
		var n models.Note
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, fmt.Errorf("load notes: decode %s: %w", f.Path, err)
		}
		notes = append(notes, n)
	}

	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].Timestamp.Equal(notes[j].Timestamp) {
			return notes[i].ID > notes[j].ID
		}
		return notes[i].Timestamp.After(notes[j].Timestamp)
	})
	return notes, nil
}

// SaveNote validates and persists n, replacing any note with the same id.
func (l *Local) SaveNote(_ context.Context, n models.Note) error {
	if err := n.Validate(); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}

	data, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return fmt.Errorf("save note: encode: %w", err)
	}
	if err := l.store.Write(storage.NoteFile(n.ID), data); err != nil {
		return fmt.Errorf("save note: %w", err)
	}

	if l.db != nil {
		if err := index.IndexNote(l.db, n, storage.Checksum(data)); err != nil {
			l.logger.Warn("index note failed", slog.Int64("id", n.ID), slog.String("error", err.Error()))
		}
	}
	l.pub.PublishNoteEvent(sse.KindSaved, n.ID)
	return nil
}

// DeleteNote removes the note with id. Deleting a note that does not exist
// succeeds.
func (l *Local) DeleteNote(_ context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid note id %d", apperr.ErrValidation, id)
	}
	if err := l.store.Delete(storage.NoteFile(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete note: %w", err)
	}
	if l.db != nil {
		if err := l.db.DeleteNote(id); err != nil {
			l.logger.Warn("unindex note failed", slog.Int64("id", id), slog.String("error", err.Error()))
		}
	}
	l.pub.PublishNoteEvent(sse.KindDeleted, id)
	return nil
}

// SearchNotes runs a full-text query over the index.
func (l *Local) SearchNotes(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if l.db == nil {
		return nil, fmt.Errorf("search notes: no index configured")
	}
	if limit <= 0 {
		limit = 20
	}
	res, err := l.db.Search(query, limit)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	return res, nil
}

// EnsureModelReady makes sure the recognition model is on disk.
func (l *Local) EnsureModelReady(ctx context.Context) error {
	path, err := l.model.Ensure(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrModelPreparation, err)
	}
	l.pub.Publish(sse.Event{Type: sse.TypeModelReady, Data: map[string]string{"path": filepath.Base(path)}})
	return nil
}

// StartAudioRecording begins capturing into a timestamped WAV file.
func (l *Local) StartAudioRecording(_ context.Context) error {
	l.audioMu.Lock()
	defer l.audioMu.Unlock()

	if err := os.MkdirAll(l.recordingsDir, 0o755); err != nil {
		return fmt.Errorf("%w: create recordings dir: %w", apperr.ErrRecordingStart, err)
	}
	name := "recording_" + l.now().Format("20060102_150405") + ".wav"
	path := filepath.Join(l.recordingsDir, name)
	if err := l.recorder.Start(path); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrRecordingStart, err)
	}
	l.pub.Publish(sse.Event{Type: sse.TypeRecordingStarted, Data: map[string]string{"file": name}})
	return nil
}

// StopAudioRecording ends the capture, transcribes it and deletes the WAV.
func (l *Local) StopAudioRecording(ctx context.Context) (string, error) {
	l.audioMu.Lock()
	defer l.audioMu.Unlock()

	path, err := l.recorder.Stop()
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperr.ErrRecordingStop, err)
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("remove recording failed", slog.String("path", path), slog.String("error", err.Error()))
		}
	}()

	if info, err := speech.ReadWAVInfo(path); err == nil {
		l.logger.Info("transcribing recording",
			slog.String("path", path),
			slog.Duration("duration", info.Duration()))
	}

	text, err := l.transcriber.TranscribeFile(ctx, path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperr.ErrRecordingStop, err)
	}
	l.pub.Publish(sse.Event{Type: sse.TypeRecordingStopped, Data: map[string]int{"chars": len(text)}})
	return text, nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(sse.Event) {}
func (nopPublisher) PublishNoteEvent(string, int64) {}
