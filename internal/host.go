package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/murmur/internal/backend"
	"github.com/starford/murmur/internal/index"
	"github.com/starford/murmur/internal/speech"
	"github.com/starford/murmur/internal/speech/mic"
	"github.com/starford/murmur/internal/storage"
)

// host bundles the in-process backend and the resources it owns.
type host struct {
	local *backend.Local
	store *storage.FS
	db    *index.DB
}

// openHost prepares the data directory, opens and syncs the index, and wires
// the speech pipeline into a Local backend. pub may be nil.
func openHost(cfg *Config, logger *slog.Logger, pub backend.Publisher) (*host, error) {
	for _, dir := range []string{cfg.Data.NotesDir(), filepath.Dir(cfg.SQLite.Path)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	store, err := storage.NewFS(cfg.Data.NotesDir(), ".json")
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	model := speech.NewModelManager(cfg.Data.ModelsDir(), cfg.Speech.ModelFile, cfg.Speech.ModelURL, logger)
	transcriber := speech.NewWhisperTranscriber(
		cfg.Speech.TranscribeURL, cfg.Speech.APIKey, cfg.Speech.Model, cfg.Speech.Language)

	local := backend.NewLocal(backend.LocalConfig{
		Store:         store,
		Index:         db,
		Model:         model,
		Recorder:      mic.NewPortAudioRecorder(cfg.Speech.SampleRate, logger),
		Transcriber:   transcriber,
		Publisher:     pub,
		RecordingsDir: cfg.Data.RecordingsDir(),
		Logger:        logger,
	})

	return &host{local: local, store: store, db: db}, nil
}

func (h *host) Close() error {
	return h.db.Close()
}
