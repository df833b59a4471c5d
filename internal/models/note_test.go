package models

import (
	"testing"
	"time"
)

func TestNoteValidate(t *testing.T) {
	ok := Note{ID: 1, Title: "Groceries", Timestamp: time.Now()}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid note rejected: %v", err)
	}

	if err := (Note{ID: 1}).Validate(); err == nil {
		t.Error("empty title should fail validation")
	}
	if err := (Note{Title: "x"}).Validate(); err == nil {
		t.Error("zero id should fail validation")
	}
}

func TestParseTheme(t *testing.T) {
	if th, ok := ParseTheme("dark"); !ok || th != ThemeDark {
		t.Errorf("ParseTheme(dark) = %q, %v", th, ok)
	}
	if _, ok := ParseTheme("solarized"); ok {
		t.Error("unknown theme should not parse")
	}
}
