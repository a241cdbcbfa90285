// Package catalog provides single-row lookups of the published content
// entities that itinerary stops point at (sights, tours, venues, notes).
package catalog

import (
	"context"
	"errors"
)

// NotesTable holds separately stored notes.
const NotesTable = "itinerary_notes"

// ErrNotVisible is returned when a lookup succeeds but yields no visible
// row, either because the row does not exist or because it is unpublished.
var ErrNotVisible = errors.New("entity not visible")

// Entity is the denormalized detail record attached to a hydrated stop.
type Entity struct {
	ID       string   `json:"id"`
	Table    string   `json:"-"`
	Name     string   `json:"name"`
	Slug     *string  `json:"slug,omitempty"`
	Summary  *string  `json:"summary,omitempty"`
	ImageURL *string  `json:"imageUrl,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
}

// Note is a separately stored free-text note.
type Note struct {
	ID      string  `json:"id,omitempty"`
	Title   string  `json:"title"`
	Details *string `json:"details,omitempty"`
}

// Source looks up one entity by exact id.
type Source interface {
	Lookup(ctx context.Context, id string) (*Entity, error)
}

// NoteSource looks up one stored note by exact id.
type NoteSource interface {
	LookupNote(ctx context.Context, id string) (*Note, error)
}
