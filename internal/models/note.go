// Package models defines the domain types for Murmur.
package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Note is the persisted unit of user content.
type Note struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate checks the invariants a note must satisfy before it is persisted.
func (n Note) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.ID, validation.Required, validation.Min(int64(1))),
		validation.Field(&n.Title, validation.Required),
	)
}

// Theme is the persisted UI color preference.
type Theme string

// Supported themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme returns the theme named by s and whether it is a known value.
func ParseTheme(s string) (Theme, bool) {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s), true
	}
	return "", false
}

// NoteMetadata is a lightweight representation returned by storage listings.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
