package api

import (
	"time"

	"github.com/starford/murmur/internal/index"
)

// NoteListItem is a lightweight item in the indexed note listing.
type NoteListItem struct {
	ID        int64     `json:"id" example:"1718000000000" validate:"required"`
	Title     string    `json:"title" example:"Groceries" validate:"required"`
	Tags      []string  `json:"tags" example:"shopping,home"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

func listItem(r index.NoteRow) NoteListItem {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return NoteListItem{ID: r.ID, Title: r.Title, Tags: tags, UpdatedAt: r.UpdatedAt}
}
