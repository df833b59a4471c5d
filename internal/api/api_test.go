package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/backend"
	"github.com/starford/murmur/internal/models"
	"github.com/starford/murmur/internal/testutil"
)

func invoke(t *testing.T, router http.Handler, cmd string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader = http.NoBody
	if body != nil {
		data, _ := json.Marshal(body)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(http.MethodPost, "/invoke/"+cmd, rd)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, result any) backend.Response {
	t.Helper()
	var raw struct {
		Result json.RawMessage `json:"result"`
		Error  string          `json:"error"`
		Code   string          `json:"code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	if result != nil && len(raw.Result) > 0 {
		if err := json.Unmarshal(raw.Result, result); err != nil {
			t.Fatalf("decode result: %v", err)
		}
	}
	return backend.Response{Error: raw.Error, Code: raw.Code}
}

func TestInvoke_LoadNotes(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fb := testutil.NewFakeBridge(
		models.Note{ID: 1, Title: "one", Timestamp: ts.Add(time.Hour)},
		models.Note{ID: 2, Title: "two", Timestamp: ts},
	)
	router := NewRouter(fb, nil, false, "", nil)

	w := invoke(t, router, backend.CmdLoadNotes, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var notes []models.Note
	decodeResponse(t, w, &notes)
	if len(notes) != 2 || notes[0].ID != 1 || notes[1].ID != 2 {
		t.Errorf("notes = %+v", notes)
	}
}

func TestInvoke_SaveAndDelete(t *testing.T) {
	fb := testutil.NewFakeBridge()
	router := NewRouter(fb, nil, false, "", nil)

	n := models.Note{ID: 5, Title: "t", Content: "c", Timestamp: time.Now().UTC()}
	if w := invoke(t, router, backend.CmdSaveNote, backend.SaveNoteArgs{Note: n}); w.Code != http.StatusOK {
		t.Fatalf("save status = %d, body = %s", w.Code, w.Body.String())
	}
	if got, ok := fb.Stored(5); !ok || got.Title != "t" {
		t.Fatalf("stored = %+v, %v", got, ok)
	}

	if w := invoke(t, router, backend.CmdDeleteNote, map[string]int64{"noteId": 5}); w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	if _, ok := fb.Stored(5); ok {
		t.Error("note not deleted")
	}
}

func TestInvoke_SaveRequiresBody(t *testing.T) {
	router := NewRouter(testutil.NewFakeBridge(), nil, false, "", nil)
	w := invoke(t, router, backend.CmdSaveNote, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if resp := decodeResponse(t, w, nil); resp.Code != backend.CodeValidation {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestInvoke_UnknownCommand(t *testing.T) {
	router := NewRouter(testutil.NewFakeBridge(), nil, false, "", nil)
	w := invoke(t, router, "format_disk", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestInvoke_BackendFailureIs500(t *testing.T) {
	fb := testutil.NewFakeBridge()
	fb.FailOn(testutil.OpEnsure, errors.New("disk full"))
	router := NewRouter(fb, nil, false, "", nil)

	w := invoke(t, router, backend.CmdEnsureModel, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if resp := decodeResponse(t, w, nil); !strings.Contains(resp.Error, "disk full") {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestInvoke_AudioCommands(t *testing.T) {
	fb := testutil.NewFakeBridge()
	fb.Transcript = "dictated"
	router := NewRouter(fb, nil, false, "", nil)

	if w := invoke(t, router, backend.CmdStartAudio, nil); w.Code != http.StatusOK {
		t.Fatalf("start status = %d", w.Code)
	}
	w := invoke(t, router, backend.CmdStopAudio, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stop status = %d", w.Code)
	}
	var text string
	decodeResponse(t, w, &text)
	if text != "dictated" {
		t.Errorf("text = %q", text)
	}
}

func TestInvoke_SearchRequiresQuery(t *testing.T) {
	router := NewRouter(testutil.NewFakeBridge(), nil, false, "", nil)
	w := invoke(t, router, backend.CmdSearchNotes, backend.SearchArgs{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestListNotes_FromIndex(t *testing.T) {
	_, store := testutil.TestNotesDir(t)
	db := testutil.TestDB(t)
	local := backend.NewLocal(backend.LocalConfig{
		Store:  store,
		Index:  db,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ctx := context.Background()
	now := time.Now().UTC()
	_ = local.SaveNote(ctx, models.Note{ID: 1, Title: "Shopping", Content: "#errands milk", Timestamp: now})
	_ = local.SaveNote(ctx, models.Note{ID: 2, Title: "Ideas", Content: "#work launch", Timestamp: now.Add(time.Minute)})

	router := NewRouter(local, db, false, "", nil)
	req := httptest.NewRequest(http.MethodGet, "/notes?tag=work", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp NoteListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || len(resp.Notes) != 1 || resp.Notes[0].Title != "Ideas" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestRemoteRoundTrip(t *testing.T) {
	_, store := testutil.TestNotesDir(t)
	db := testutil.TestDB(t)
	local := backend.NewLocal(backend.LocalConfig{
		Store:  store,
		Index:  db,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	srv := httptest.NewServer(http.StripPrefix("/api", NewRouter(local, db, true, "tok", nil)))
	defer srv.Close()

	remote := backend.NewRemote(srv.URL, "tok")
	ctx := context.Background()

	n := models.Note{ID: 42, Title: "Remote", Content: "over the wire", Timestamp: time.Now().UTC().Truncate(time.Millisecond)}
	if err := remote.SaveNote(ctx, n); err != nil {
		t.Fatal(err)
	}
	notes, err := remote.LoadNotes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].ID != 42 || !notes[0].Timestamp.Equal(n.Timestamp) {
		t.Errorf("notes = %+v", notes)
	}

	res, err := remote.SearchNotes(ctx, "wire", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].ID != 42 {
		t.Errorf("search = %+v", res)
	}

	if err := remote.SaveNote(ctx, models.Note{ID: 43}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("invalid save err = %v, want ErrValidation", err)
	}

	if err := backend.NewRemote(srv.URL, "wrong").DeleteNote(ctx, 42); err == nil {
		t.Error("expected unauthorized error")
	}
	if err := remote.DeleteNote(ctx, 42); err != nil {
		t.Fatal(err)
	}
	notes, _ = remote.LoadNotes(ctx)
	if len(notes) != 0 {
		t.Errorf("notes after delete = %+v", notes)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router := NewRouter(testutil.NewFakeBridge(), nil, true, "secret123", nil)
	req := httptest.NewRequest(http.MethodPost, "/invoke/load_notes", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router := NewRouter(testutil.NewFakeBridge(), nil, true, "secret123", nil)
	req := httptest.NewRequest(http.MethodPost, "/invoke/load_notes", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router := NewRouter(testutil.NewFakeBridge(), nil, true, "secret123", nil)
	req := httptest.NewRequest(http.MethodPost, "/invoke/load_notes", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	router := NewRouter(testutil.NewFakeBridge(), nil, false, "", nil)
	req := httptest.NewRequest(http.MethodPost, "/invoke/load_notes", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("disabled mode: status = %d, want 200", w.Code)
	}
}

func TestEvents_AuthProtected(t *testing.T) {
	sse := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	router := NewRouter(testutil.NewFakeBridge(), nil, true, "tok", sse)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
