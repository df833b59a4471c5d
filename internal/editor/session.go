// Package editor holds the draft state of one note being edited and the
// rules for folding dictated text into it.
package editor

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/models"
)

// MergeTranscript appends transcript to content separated by a blank line.
// Empty content becomes the transcript; an empty transcript changes nothing.
func MergeTranscript(content, transcript string) string {
	if transcript == "" {
		return content
	}
	if content == "" {
		return transcript
	}
	return content + "\n\n" + transcript
}

// Updater persists edits to an existing note.
type Updater interface {
	UpdateNote(ctx context.Context, id int64, title, content string) (models.Note, error)
}

// Session is the editable draft of a single note.
type Session struct {
	store Updater
	id    int64

	mu      sync.Mutex
	title   string
	content string
	editing bool
}

// NewSession starts a draft from n.
func NewSession(store Updater, n models.Note) *Session {
	return &Session{store: store, id: n.ID, title: n.Title, content: n.Content}
}

func (s *Session) NoteID() int64 { return s.id }

func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

func (s *Session) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content
}

func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.title = title
}

func (s *Session) SetContent(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = content
}

// Editing reports whether the draft is in edit mode.
func (s *Session) Editing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editing
}

func (s *Session) SetEditing(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = on
}

// ApplyTranscript merges dictated text into the draft and enters edit mode.
// It has the signature the audio controller expects for transcript delivery.
func (s *Session) ApplyTranscript(text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = MergeTranscript(s.content, text)
	s.editing = true
}

// Save writes the draft through the note store and leaves edit mode. A blank
// title is rejected before the store is called.
func (s *Session) Save(ctx context.Context) (models.Note, error) {
	s.mu.Lock()
	title, content := s.title, s.content
	s.mu.Unlock()

	if strings.TrimSpace(title) == "" {
		return models.Note{}, fmt.Errorf("%w: title is required", apperr.ErrValidation)
	}
	n, err := s.store.UpdateNote(ctx, s.id, title, content)
	if err != nil {
		return models.Note{}, err
	}

	s.mu.Lock()
	s.editing = false
	s.mu.Unlock()
	return n, nil
}
