package openinghours

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wayfarer/wayfarer/internal/database"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL opening-hours repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetSight retrieves the sight's official URL.
func (r *PostgresRepository) GetSight(ctx context.Context, sightID string) (*Sight, error) {
	s := &Sight{ID: sightID}
	err := r.pool.QueryRow(ctx, `SELECT opening_hours_url FROM sights WHERE id = $1`, sightID).Scan(&s.OfficialURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSightNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sight %s: %w", sightID, err)
	}
	return s, nil
}

// ListRules retrieves the sight's opening-hour rules.
func (r *PostgresRepository) ListRules(ctx context.Context, sightID string) ([]Rule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, start_month, start_day, end_month, end_day, days, open_time, close_time, last_entry_mins, is_closed
		FROM sight_opening_hours
		WHERE sight_id = $1
		ORDER BY position, id
	`, sightID)
	if err != nil {
		return nil, fmt.Errorf("query opening hours: %w", err)
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		var (
			rule Rule
			days []string
		)
		if err := rows.Scan(
			&rule.ID, &rule.StartMonth, &rule.StartDay, &rule.EndMonth, &rule.EndDay,
			&days, &rule.Open, &rule.Close, &rule.LastEntryMins, &rule.IsClosed,
		); err != nil {
			return nil, err
		}
		for _, d := range days {
			if w, ok := ParseWeekday(d); ok {
				rule.Days = append(rule.Days, w)
			}
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// ListExceptions retrieves the sight's closure exceptions.
func (r *PostgresRepository) ListExceptions(ctx context.Context, sightID string) ([]Exception, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, type, weekday, start_date, end_date, note
		FROM sight_opening_exceptions
		WHERE sight_id = $1
		ORDER BY position, id
	`, sightID)
	if err != nil {
		return nil, fmt.Errorf("query opening exceptions: %w", err)
	}
	defer rows.Close()

	var exceptions []Exception
	for rows.Next() {
		var (
			e          Exception
			kind       *string
			weekday    *string
			start, end *time.Time
		)
		if err := rows.Scan(&e.ID, &kind, &weekday, &start, &end, &e.Note); err != nil {
			return nil, err
		}
		if kind != nil {
			e.Kind = ClosureKind(*kind)
		}
		if weekday != nil {
			if w, ok := ParseWeekday(*weekday); ok {
				e.Weekday = &w
			}
		}
		e.StartDate = formatDate(start)
		e.EndDate = formatDate(end)
		exceptions = append(exceptions, e)
	}
	return exceptions, rows.Err()
}

// ReplaceAll deletes and re-inserts the sight's rules and exceptions in one
// transaction.
func (r *PostgresRepository) ReplaceAll(ctx context.Context, sightID string, rules []Rule, exceptions []Exception) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var id string
		if err := tx.QueryRow(ctx, `SELECT id FROM sights WHERE id = $1 FOR UPDATE`, sightID).Scan(&id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrSightNotFound
			}
			return fmt.Errorf("lock sight %s: %w", sightID, err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM sight_opening_hours WHERE sight_id = $1`, sightID); err != nil {
			return fmt.Errorf("delete opening hours: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM sight_opening_exceptions WHERE sight_id = $1`, sightID); err != nil {
			return fmt.Errorf("delete opening exceptions: %w", err)
		}

		batch := &pgx.Batch{}
		for i, rule := range rules {
			days := make([]string, len(rule.Days))
			for j, d := range rule.Days {
				days[j] = string(d)
			}
			batch.Queue(`
				INSERT INTO sight_opening_hours
					(id, sight_id, position, start_month, start_day, end_month, end_day, days, open_time, close_time, last_entry_mins, is_closed)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			`, rule.ID, sightID, i, rule.StartMonth, rule.StartDay, rule.EndMonth, rule.EndDay,
				days, rule.Open, rule.Close, rule.LastEntryMins, rule.IsClosed)
		}
		for i, e := range exceptions {
			var weekday *string
			if e.Weekday != nil {
				w := string(*e.Weekday)
				weekday = &w
			}
			start, err := parseDate(e.StartDate)
			if err != nil {
				return err
			}
			end, err := parseDate(e.EndDate)
			if err != nil {
				return err
			}
			batch.Queue(`
				INSERT INTO sight_opening_exceptions (id, sight_id, position, type, weekday, start_date, end_date, note)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, e.ID, sightID, i, string(e.Classify()), weekday, start, end, e.Note)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert opening hours: %w", err)
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
