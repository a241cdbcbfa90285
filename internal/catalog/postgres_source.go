package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSource reads published entities from one catalog table.
type PostgresSource struct {
	pool  *pgxpool.Pool
	table string
	query string
}

// NewPostgresSource creates a source over table. Every catalog table
// exposes id, name, slug, summary, image_url, lat, lng and status.
func NewPostgresSource(pool *pgxpool.Pool, table string) *PostgresSource {
	query := fmt.Sprintf(`
		SELECT id::text, name, slug, summary, image_url, lat, lng
		FROM %s
		WHERE id = $1 AND status = 'published'
		LIMIT 1
	`, pgx.Identifier{table}.Sanitize())

	return &PostgresSource{pool: pool, table: table, query: query}
}

// Lookup returns the published row with the given id.
func (s *PostgresSource) Lookup(ctx context.Context, id string) (*Entity, error) {
	e := Entity{Table: s.table}
	err := s.pool.QueryRow(ctx, s.query, id).Scan(
		&e.ID,
		&e.Name,
		&e.Slug,
		&e.Summary,
		&e.ImageURL,
		&e.Lat,
		&e.Lng,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotVisible
		}
		return nil, fmt.Errorf("lookup %s: %w", s.table, err)
	}
	return &e, nil
}

// PostgresNoteSource reads stored itinerary notes.
type PostgresNoteSource struct {
	pool *pgxpool.Pool
}

// NewPostgresNoteSource creates a note source over the itinerary_notes table.
func NewPostgresNoteSource(pool *pgxpool.Pool) *PostgresNoteSource {
	return &PostgresNoteSource{pool: pool}
}

// LookupNote returns the note with the given id.
func (s *PostgresNoteSource) LookupNote(ctx context.Context, id string) (*Note, error) {
	query := `SELECT id::text, title, details FROM itinerary_notes WHERE id = $1 LIMIT 1`

	var n Note
	err := s.pool.QueryRow(ctx, query, id).Scan(&n.ID, &n.Title, &n.Details)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotVisible
		}
		return nil, fmt.Errorf("lookup itinerary_notes: %w", err)
	}
	return &n, nil
}

var (
	_ Source     = (*PostgresSource)(nil)
	_ NoteSource = (*PostgresNoteSource)(nil)
)
