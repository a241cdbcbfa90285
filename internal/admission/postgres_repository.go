package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wayfarer/wayfarer/internal/database"
)

const dateLayout = "2006-01-02"

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL admission repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// SightExists reports whether the sight exists.
func (r *PostgresRepository) SightExists(ctx context.Context, sightID string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM sights WHERE id = $1)`, sightID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check sight %s: %w", sightID, err)
	}
	return exists, nil
}

// ListRows retrieves the sight's admission rows.
func (r *PostgresRepository) ListRows(ctx context.Context, sightID string) ([]Row, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, idx, subsection, label, min_age, max_age, is_free, amount, currency,
		       requires_id, valid_from, valid_to, note
		FROM sight_admission
		WHERE sight_id = $1
		ORDER BY idx, id
	`, sightID)
	if err != nil {
		return nil, fmt.Errorf("query admission: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			row      Row
			from, to *time.Time
		)
		if err := rows.Scan(
			&row.ID, &row.Idx, &row.Subsection, &row.Label, &row.MinAge, &row.MaxAge, &row.IsFree,
			&row.Amount, &row.Currency, &row.RequiresID, &from, &to, &row.Note,
		); err != nil {
			return nil, err
		}
		row.ValidFrom = formatDate(from)
		row.ValidTo = formatDate(to)
		out = append(out, row)
	}
	return out, rows.Err()
}

// ReplaceAll deletes and re-inserts the sight's rows in one transaction.
func (r *PostgresRepository) ReplaceAll(ctx context.Context, sightID string, rows []Row) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var id string
		if err := tx.QueryRow(ctx, `SELECT id FROM sights WHERE id = $1 FOR UPDATE`, sightID).Scan(&id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrSightNotFound
			}
			return fmt.Errorf("lock sight %s: %w", sightID, err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM sight_admission WHERE sight_id = $1`, sightID); err != nil {
			return fmt.Errorf("delete admission: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, row := range rows {
			from, err := parseDate(row.ValidFrom)
			if err != nil {
				return err
			}
			to, err := parseDate(row.ValidTo)
			if err != nil {
				return err
			}
			batch.Queue(`
				INSERT INTO sight_admission
					(id, sight_id, idx, subsection, label, min_age, max_age, is_free, amount, currency,
					 requires_id, valid_from, valid_to, note)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			`, row.ID, sightID, row.Idx, row.Subsection, row.Label, row.MinAge, row.MaxAge, row.IsFree,
				row.Amount, row.Currency, row.RequiresID, from, to, row.Note)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert admission: %w", err)
		}
		return nil
	})
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", *s, err)
	}
	return &t, nil
}

var _ Repository = (*PostgresRepository)(nil)
