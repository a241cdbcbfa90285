package admission

import "context"

// Repository persists admission rows per sight.
type Repository interface {
	// SightExists reports whether the sight row exists.
	SightExists(ctx context.Context, sightID string) (bool, error)

	// ListRows returns the sight's rows ordered by idx.
	ListRows(ctx context.Context, sightID string) ([]Row, error)

	// ReplaceAll swaps every row of the sight atomically.
	ReplaceAll(ctx context.Context, sightID string, rows []Row) error
}
