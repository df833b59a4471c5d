package testutil

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/starford/murmur/internal/index"
	"github.com/starford/murmur/internal/models"
)

// Bridge operation names used for error injection, gating, and call counts.
const (
	OpLoad   = "load_notes"
	OpSave   = "save_note"
	OpDelete = "delete_note"
	OpEnsure = "ensure_model_ready"
	OpStart  = "start_audio_recording"
	OpStop   = "stop_audio_recording"
	OpSearch = "search_notes"
)

// FakeBridge is an in-memory backend. Each operation can be made to fail or to
// block until released, and every call is counted.
type FakeBridge struct {
	mu         sync.Mutex
	notes      map[int64]models.Note
	errs       map[string]error
	gates      map[string]chan struct{}
	calls      map[string]int
	saved      []models.Note
	recording  bool
	Transcript string
}

// NewFakeBridge returns a fake backend seeded with notes.
func NewFakeBridge(seed ...models.Note) *FakeBridge {
	f := &FakeBridge{
		notes: make(map[int64]models.Note),
		errs:  make(map[string]error),
		gates: make(map[string]chan struct{}),
		calls: make(map[string]int),
	}
	for _, n := range seed {
		f.notes[n.ID] = n
	}
	return f
}

// FailOn makes op return err until cleared with a nil err.
func (f *FakeBridge) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

// Block makes op wait until the returned release func is called.
func (f *FakeBridge) Block(op string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[op] = ch
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.gates, op)
			f.mu.Unlock()
			close(ch)
		})
	}
}

// Calls returns how many times op was invoked.
func (f *FakeBridge) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Saved returns every note passed to SaveNote, in call order.
func (f *FakeBridge) Saved() []models.Note {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Note(nil), f.saved...)
}

// Stored returns the note currently persisted under id.
func (f *FakeBridge) Stored(id int64) (models.Note, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notes[id]
	return n, ok
}

// enter counts the call, waits on any gate, and returns the injected error.
func (f *FakeBridge) enter(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls[op]++
	gate := f.gates[op]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[op]
}

func (f *FakeBridge) LoadNotes(ctx context.Context) ([]models.Note, error) {
	if err := f.enter(ctx, OpLoad); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Note, 0, len(f.notes))
	for _, n := range f.notes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (f *FakeBridge) SaveNote(ctx context.Context, n models.Note) error {
	if err := f.enter(ctx, OpSave); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes[n.ID] = n
	f.saved = append(f.saved, n)
	return nil
}

func (f *FakeBridge) DeleteNote(ctx context.Context, id int64) error {
	if err := f.enter(ctx, OpDelete); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.notes, id)
	return nil
}

func (f *FakeBridge) EnsureModelReady(ctx context.Context) error {
	return f.enter(ctx, OpEnsure)
}

func (f *FakeBridge) StartAudioRecording(ctx context.Context) error {
	if err := f.enter(ctx, OpStart); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recording {
		return errors.New("already recording")
	}
	f.recording = true
	return nil
}

func (f *FakeBridge) StopAudioRecording(ctx context.Context) (string, error) {
	if err := f.enter(ctx, OpStop); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.recording {
		return "", errors.New("no recording in progress")
	}
	f.recording = false
	return f.Transcript, nil
}

// SearchNotes does a case-insensitive substring match over titles and content.
func (f *FakeBridge) SearchNotes(ctx context.Context, query string, limit int) ([]index.SearchResult, error) {
	if err := f.enter(ctx, OpSearch); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	q := strings.ToLower(query)
	var out []index.SearchResult
	for _, n := range f.notes {
		if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q) {
			out = append(out, index.SearchResult{ID: n.ID, Title: n.Title, Snippet: n.Content})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
