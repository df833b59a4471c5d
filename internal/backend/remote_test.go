package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/models"
)

func TestRemote_SendsCommandAndDecodesResult(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(Response{Result: []models.Note{
			{ID: 1, Title: "t", Timestamp: time.Unix(0, 0).UTC()},
		}})
	}))
	defer srv.Close()

	r := NewRemote(srv.URL+"/", "secret")
	notes, err := r.LoadNotes(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 || notes[0].Title != "t" {
		t.Errorf("notes = %+v", notes)
	}
	if gotPath != "/api/invoke/load_notes" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth = %q", gotAuth)
	}
}

func TestRemote_DeleteArgs(t *testing.T) {
	var args DeleteNoteArgs
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&args)
		_ = json.NewEncoder(w).Encode(Response{})
	}))
	defer srv.Close()

	if err := NewRemote(srv.URL, "").DeleteNote(context.Background(), 42); err != nil {
		t.Fatal(err)
	}
	if args.NoteID != 42 {
		t.Errorf("noteId = %d", args.NoteID)
	}
}

func TestRemote_MapsErrorCodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(Response{Error: "validation failed: title: cannot be blank.", Code: CodeValidation})
	}))
	defer srv.Close()

	err := NewRemote(srv.URL, "").SaveNote(context.Background(), models.Note{ID: 1})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestRemote_ContextCancel(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := NewRemote(srv.URL, "").EnsureModelReady(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestErrorCode(t *testing.T) {
	cases := map[error]string{
		apperr.ErrValidation:       CodeValidation,
		apperr.ErrModelPreparation: CodeModel,
		errors.New("boom"):         CodeInternal,
	}
	for err, want := range cases {
		if got := ErrorCode(err); got != want {
			t.Errorf("ErrorCode(%v) = %q, want %q", err, got, want)
		}
	}
}
