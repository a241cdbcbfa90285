package itinerary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wayfarer/wayfarer/internal/database"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL itinerary repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// stopColumns lists the stop columns in scan order. Meal columns exist only
// on collections that allow meals.
func stopColumns(schema Schema) []string {
	cols := []string{
		"id", ident(schema.ParentColumn), "item_type", "ref_id", "sort_order",
		"inline_title", "inline_details", "details", "duration_minutes", "maps_url",
	}
	if schema.AllowsMeals {
		cols = append(cols, "meal_type")
	}
	return cols
}

var legColumns = []string{
	"id", "from_item_id", "to_item_id", "primary_mode", "title", "summary", "notes", "steps",
	"est_duration_min", "est_distance_m", "est_cost_min", "est_cost_max", "currency", "sort_order",
}

// ItineraryExists reports whether the parent itinerary row exists.
func (r *PostgresRepository) ItineraryExists(ctx context.Context, schema Schema, itineraryID string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, ident(schema.ParentTable))

	var exists bool
	if err := r.pool.QueryRow(ctx, query, itineraryID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check %s %s: %w", schema.Name, itineraryID, err)
	}
	return exists, nil
}

// ListStops returns the itinerary's stops.
func (r *PostgresRepository) ListStops(ctx context.Context, schema Schema, itineraryID string) ([]Stop, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1
		ORDER BY sort_order ASC NULLS LAST, id
	`, strings.Join(stopColumns(schema), ", "), ident(schema.StopsTable), ident(schema.ParentColumn))

	rows, err := r.pool.Query(ctx, query, itineraryID)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", schema.StopsTable, err)
	}
	defer rows.Close()

	var stops []Stop
	for rows.Next() {
		var (
			s        Stop
			itemType string
		)
		dest := []any{
			&s.ID, &s.ItineraryID, &itemType, &s.RefID, &s.SortOrder,
			&s.InlineTitle, &s.InlineDetails, &s.Details, &s.DurationMinutes, &s.MapsURL,
		}
		if schema.AllowsMeals {
			dest = append(dest, &s.MealType)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", schema.StopsTable, err)
		}
		s.ItemType = ItemType(itemType)
		stops = append(stops, s)
	}
	return stops, rows.Err()
}

// ListLegs returns the itinerary's transport legs.
func (r *PostgresRepository) ListLegs(ctx context.Context, schema Schema, itineraryID string) ([]TransportLeg, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1
		ORDER BY sort_order ASC NULLS LAST, id
	`, strings.Join(legColumns, ", "), ident(schema.LegsTable), ident(schema.ParentColumn))

	rows, err := r.pool.Query(ctx, query, itineraryID)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", schema.LegsTable, err)
	}
	defer rows.Close()

	var legs []TransportLeg
	for rows.Next() {
		var (
			l     TransportLeg
			steps []byte
		)
		err := rows.Scan(
			&l.ID, &l.FromItemID, &l.ToItemID, &l.PrimaryMode, &l.Title, &l.Summary, &l.Notes, &steps,
			&l.EstDurationMin, &l.EstDistanceM, &l.EstCostMin, &l.EstCostMax, &l.Currency, &l.SortOrder,
		)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", schema.LegsTable, err)
		}
		if len(steps) > 0 {
			if err := json.Unmarshal(steps, &l.Steps); err != nil {
				return nil, fmt.Errorf("leg %s steps: %w", l.ID, err)
			}
		}
		l.ItineraryID = itineraryID
		legs = append(legs, l)
	}
	return legs, rows.Err()
}

// ReplaceAll deletes legs, then stops, then inserts the new stops and legs,
// all inside one transaction. The parent row is locked for the duration.
func (r *PostgresRepository) ReplaceAll(ctx context.Context, schema Schema, itineraryID string, stops []Stop, legs []TransportLeg) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		lock := fmt.Sprintf(`SELECT id FROM %s WHERE id = $1 FOR UPDATE`, ident(schema.ParentTable))
		var id string
		if err := tx.QueryRow(ctx, lock, itineraryID).Scan(&id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrItineraryNotFound
			}
			return fmt.Errorf("lock %s %s: %w", schema.Name, itineraryID, err)
		}

		parent := ident(schema.ParentColumn)
		if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, ident(schema.LegsTable), parent), itineraryID); err != nil {
			return fmt.Errorf("delete %s: %w", schema.LegsTable, err)
		}
		if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, ident(schema.StopsTable), parent), itineraryID); err != nil {
			return fmt.Errorf("delete %s: %w", schema.StopsTable, err)
		}

		if err := r.insertStops(ctx, tx, schema, itineraryID, stops); err != nil {
			return err
		}
		return r.insertLegs(ctx, tx, schema, itineraryID, legs)
	})
}

func (r *PostgresRepository) insertStops(ctx context.Context, tx pgx.Tx, schema Schema, itineraryID string, stops []Stop) error {
	if len(stops) == 0 {
		return nil
	}
	cols := stopColumns(schema)
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		ident(schema.StopsTable), strings.Join(cols, ", "), placeholders(len(cols)))

	batch := &pgx.Batch{}
	for _, s := range stops {
		args := []any{
			s.ID, itineraryID, string(s.ItemType), s.RefID, s.SortOrder,
			s.InlineTitle, s.InlineDetails, s.Details, s.DurationMinutes, s.MapsURL,
		}
		if schema.AllowsMeals {
			args = append(args, s.MealType)
		}
		batch.Queue(query, args...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert %s: %w", schema.StopsTable, err)
	}
	return nil
}

func (r *PostgresRepository) insertLegs(ctx context.Context, tx pgx.Tx, schema Schema, itineraryID string, legs []TransportLeg) error {
	if len(legs) == 0 {
		return nil
	}
	cols := append([]string{ident(schema.ParentColumn)}, legColumns...)
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		ident(schema.LegsTable), strings.Join(cols, ", "), placeholders(len(cols)))

	batch := &pgx.Batch{}
	for _, l := range legs {
		steps, err := json.Marshal(l.Steps)
		if err != nil {
			return fmt.Errorf("encode leg %s steps: %w", l.ID, err)
		}
		batch.Queue(query,
			itineraryID, l.ID, l.FromItemID, l.ToItemID, l.PrimaryMode, l.Title, l.Summary, l.Notes, steps,
			l.EstDurationMin, l.EstDistanceM, l.EstCostMin, l.EstCostMax, l.Currency, l.SortOrder,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert %s: %w", schema.LegsTable, err)
	}
	return nil
}

// ListItineraryIDs returns every itinerary id in the collection.
func (r *PostgresRepository) ListItineraryIDs(ctx context.Context, schema Schema) ([]string, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT id FROM %s ORDER BY id`, ident(schema.ParentTable)))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", schema.Name, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func placeholders(n int) string {
	p := make([]string, n)
	for i := range p {
		p[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(p, ", ")
}

var _ Repository = (*PostgresRepository)(nil)
