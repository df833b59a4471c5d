// Package backend defines the invocation bridge between the client state
// layer and the host that owns persistence and audio, with an in-process host
// implementation (Local) and an HTTP client for a running host (Remote).
package backend

import (
	"context"

	"github.com/starford/murmur/internal/index"
	"github.com/starford/murmur/internal/models"
)

// NoteBackend is the subset of host operations the note store depends on.
type NoteBackend interface {
	LoadNotes(ctx context.Context) ([]models.Note, error)
	SaveNote(ctx context.Context, n models.Note) error
	DeleteNote(ctx context.Context, id int64) error
}

// AudioBackend is the subset of host operations the audio workflow depends on.
type AudioBackend interface {
	EnsureModelReady(ctx context.Context) error
	StartAudioRecording(ctx context.Context) error
	StopAudioRecording(ctx context.Context) (string, error)
}

// Bridge is the full set of named host operations.
type Bridge interface {
	NoteBackend
	AudioBackend
}

// Searcher is implemented by bridges that can full-text search notes.
type Searcher interface {
	SearchNotes(ctx context.Context, query string, limit int) ([]index.SearchResult, error)
}
