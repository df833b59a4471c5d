//go:build sqlite_fts5

package index

import (
	"testing"
	"time"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM notes_fts`).Scan(&count); err != nil {
		t.Fatalf("notes_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	row := NoteRow{ID: 1, Title: "FTS Note", Checksum: "f1", Tags: []string{"search"}, UpdatedAt: time.Now()}
	if err := db.UpsertNote(row, "Dictated notes are searchable by their transcript text."); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}

	results, err := db.Search("transcript", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != 1 {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Snippet == "" {
		t.Error("expected non-empty snippet")
	}
}

func TestFTS5_DeleteRemovesFromFTS(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertNote(NoteRow{ID: 2, Checksum: "g", UpdatedAt: time.Now()}, "vanishing content")
	_ = db.DeleteNote(2)

	results, _ := db.Search("vanishing", 10)
	if len(results) != 0 {
		t.Errorf("deleted note still in FTS index: %+v", results)
	}
}

func TestFTS5_UpsertReplacesContent(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertNote(NoteRow{ID: 3, Title: "Old", Checksum: "1", UpdatedAt: now}, "original text")
	_ = db.UpsertNote(NoteRow{ID: 3, Title: "New", Checksum: "2", UpdatedAt: now}, "replacement text")

	if results, _ := db.Search("original", 10); len(results) != 0 {
		t.Error("old FTS content should be gone")
	}
	results, _ := db.Search("replacement", 10)
	if len(results) != 1 || results[0].Title != "New" {
		t.Errorf("FTS not updated: %+v", results)
	}
}
