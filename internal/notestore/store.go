// Package notestore keeps the client's in-memory note collection and
// selection in step with the host. Every mutation is confirmed by the backend
// before it is applied locally; failures leave local state untouched, raise a
// notification, and are returned to the caller.
package notestore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/backend"
	"github.com/starford/murmur/internal/models"
)

// Notification texts.
const (
	MsgCreated      = "Note created"
	MsgLoadFailed   = "Failed to load notes"
	MsgCreateFailed = "Failed to create note"
	MsgSaveFailed   = "Failed to save note"
	MsgDeleteFailed = "Failed to delete note"
)

// Snapshot is an immutable view of the store state handed to subscribers.
type Snapshot struct {
	Notes    []models.Note
	Selected *models.Note
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets where success and failure messages go.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notify = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides the time source used for ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is the single owner of the note collection and the selected note.
type Store struct {
	backend backend.NoteBackend
	notify  Notifier
	logger  *slog.Logger
	now     func() time.Time
	locks   *keyedLock

	// emitMu orders mutation and delivery so subscribers see snapshots in
	// the order they were produced.
	emitMu sync.Mutex

	mu       sync.Mutex
	notes    []models.Note
	selected *models.Note
	lastID   int64
	subs     map[int]func(Snapshot)
	nextSub  int
	closed   bool
}

// New creates a store backed by b. The collection starts empty; call GetNotes
// to populate it.
func New(b backend.NoteBackend, opts ...Option) *Store {
	s := &Store{
		backend: b,
		now:     time.Now,
		locks:   newKeyedLock(),
		subs:    make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.notify == nil {
		s.notify = LogNotifier{Logger: s.logger}
	}
	return s
}

// Notes returns a copy of the collection in display order.
func (s *Store) Notes() []models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Note(nil), s.notes...)
}

// Selected returns the selected note, or false when nothing is selected.
func (s *Store) Selected() (models.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return models.Note{}, false
	}
	return *s.selected, true
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn runs synchronously and must not call Store mutators.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Close drops all subscribers. Later operations fail with apperr.ErrClosed.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.subs = make(map[int]func(Snapshot))
}

// SelectNote sets the selection, or clears it when n is nil. Membership in the
// collection is not checked.
func (s *Store) SelectNote(n *models.Note) {
	s.apply(func() {
		if n == nil {
			s.selected = nil
			return
		}
		c := *n
		s.selected = &c
	})
}

// GetNotes replaces the collection with the backend's notes. The selection
// is left as it was.
func (s *Store) GetNotes(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	notes, err := s.backend.LoadNotes(ctx)
	if err != nil {
		return s.fail(MsgLoadFailed, "load notes", err)
	}

	if !s.apply(func() {
		s.notes = append([]models.Note(nil), notes...)
		for _, n := range notes {
			if n.ID > s.lastID {
				s.lastID = n.ID
			}
		}
	}) {
		return s.dropped("load notes")
	}
	return nil
}

// CreateNote persists a new note and, once the backend confirms, prepends it
// and selects it.
func (s *Store) CreateNote(ctx context.Context, title, content string) (models.Note, error) {
	if err := s.checkOpen(); err != nil {
		return models.Note{}, err
	}
	n := models.Note{
		ID:        s.nextID(),
		Title:     title,
		Content:   content,
		Timestamp: s.now(),
	}
	if err := s.backend.SaveNote(ctx, n); err != nil {
		return models.Note{}, s.fail(MsgCreateFailed, "create note", err)
	}

	if !s.apply(func() {
		s.notes = append([]models.Note{n}, s.notes...)
		c := n
		s.selected = &c
	}) {
		return models.Note{}, s.dropped("create note")
	}
	s.notify.Success(MsgCreated)
	return n, nil
}

// UpdateNote saves new title and content for id and, once confirmed, replaces
// the entry in place and selects it. The timestamp never moves backwards.
func (s *Store) UpdateNote(ctx context.Context, id int64, title, content string) (models.Note, error) {
	if err := s.checkOpen(); err != nil {
		return models.Note{}, err
	}
	release, err := s.locks.acquire(ctx, id)
	if err != nil {
		return models.Note{}, s.fail(MsgSaveFailed, "update note", err)
	}
	defer release()

	ts := s.now()
	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 && ts.Before(s.notes[i].Timestamp) {
		ts = s.notes[i].Timestamp
	}
	s.mu.Unlock()

	n := models.Note{ID: id, Title: title, Content: content, Timestamp: ts}
	if err := s.backend.SaveNote(ctx, n); err != nil {
		return models.Note{}, s.fail(MsgSaveFailed, "update note", err)
	}

	if !s.apply(func() {
		if i := s.indexOf(id); i >= 0 {
			s.notes[i] = n
		} else {
			s.notes = append([]models.Note{n}, s.notes...)
		}
		c := n
		s.selected = &c
	}) {
		return models.Note{}, s.dropped("update note")
	}
	return n, nil
}

// DeleteNote removes id once the backend confirms, clearing the selection if
// it pointed at that note.
func (s *Store) DeleteNote(ctx context.Context, id int64) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	release, err := s.locks.acquire(ctx, id)
	if err != nil {
		return s.fail(MsgDeleteFailed, "delete note", err)
	}
	defer release()

	if err := s.backend.DeleteNote(ctx, id); err != nil {
		return s.fail(MsgDeleteFailed, "delete note", err)
	}

	if !s.apply(func() {
		if i := s.indexOf(id); i >= 0 {
			s.notes = append(s.notes[:i:i], s.notes[i+1:]...)
		}
		if s.selected != nil && s.selected.ID == id {
			s.selected = nil
		}
	}) {
		return s.dropped("delete note")
	}
	return nil
}

// apply runs mutate under the state lock and then notifies subscribers. It
// reports false, without running mutate, once the store is closed.
func (s *Store) apply(mutate func()) bool {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	mutate()
	snap := Snapshot{Notes: append([]models.Note(nil), s.notes...)}
	if s.selected != nil {
		c := *s.selected
		snap.Selected = &c
	}
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return true
}

// fail raises the failure toast; the notifier is the only place it is logged.
func (s *Store) fail(msg, op string, err error) error {
	s.notify.Failure(msg, err)
	return fmt.Errorf("%w: %s: %w", apperr.ErrOperationFailed, op, err)
}

// dropped reports a backend-confirmed change that arrived after Close.
func (s *Store) dropped(op string) error {
	s.logger.Warn("store closed, confirmed change not applied", slog.String("op", op))
	return fmt.Errorf("%w: %s confirmed after close", apperr.ErrClosed, op)
}

func (s *Store) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return apperr.ErrClosed
	}
	return nil
}

// nextID derives an id from the clock, bumped past every id seen so far.
func (s *Store) nextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id int64) int {
	for i, n := range s.notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}
