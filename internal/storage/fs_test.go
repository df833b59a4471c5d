package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempDir(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir(), ".json")
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempDir(t)
	content := []byte(`{"id":1,"title":"Hello"}`)
	if err := s.Write("1.json", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("1.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempDir(t)
	if err := s.Write("a/b/c.json", []byte("{}")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := s.Read("a/b/c.json"); err != nil {
		t.Fatalf("Read: %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := tempDir(t)
	_ = s.Write("del.json", []byte("{}"))
	if err := s.Delete("del.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err := s.Read("del.json")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("read after delete: err = %v, want os.ErrNotExist", err)
	}
}

func TestDeleteMissingIsNotExist(t *testing.T) {
	s := tempDir(t)
	if err := s.Delete("ghost.json"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestListFiltersByExtension(t *testing.T) {
	s := tempDir(t)
	_ = s.Write("1.json", []byte("{}"))
	_ = s.Write("sub/2.json", []byte("{}"))
	_ = s.Write("readme.txt", []byte("not json"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len = %d, want 2", len(items))
	}
	for _, it := range items {
		if it.Checksum == "" {
			t.Errorf("missing checksum for %s", it.Path)
		}
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempDir(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.json",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	s := tempDir(t)
	_ = s.Write("atomic.json", []byte("original"))
	if err := s.Write("atomic.json", []byte("updated")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.json")
	if string(got) != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.Root(), tmpPrefix+"*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	if _, err := NewFS("/tmp/murmur-does-not-exist-"+t.Name(), ".json"); err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "murmur-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	if _, err := NewFS(f.Name(), ".json"); err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestNoteFileRoundTrip(t *testing.T) {
	name := NoteFile(1718000000123)
	if name != "1718000000123.json" {
		t.Fatalf("NoteFile = %q", name)
	}
	id, ok := NoteID("notes/" + name)
	if !ok || id != 1718000000123 {
		t.Errorf("NoteID = %d, %v", id, ok)
	}
	for _, bad := range []string{"abc.json", "12.md", "-4.json", "0.json"} {
		if _, ok := NoteID(bad); ok {
			t.Errorf("NoteID(%q) should fail", bad)
		}
	}
}
