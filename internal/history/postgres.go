package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS comparison_history (
    id          uuid PRIMARY KEY,
    label       text NOT NULL DEFAULT '',
    destination text NOT NULL DEFAULT '',
    mode        text NOT NULL DEFAULT '',
    weight_kg   double precision NOT NULL DEFAULT 0,
    comparison  jsonb NOT NULL DEFAULT '{}'::jsonb,
    created_at  timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS comparison_history_created_at_idx ON comparison_history (created_at DESC);
`

// PostgresRepository stores records in the comparison_history table.
type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the history table when it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, schema)
	return err
}

func (r *PostgresRepository) Create(ctx context.Context, rec Record) (Record, error) {
	rec = prepare(rec, time.Now())
	_, err := r.db.Exec(ctx, `
        INSERT INTO comparison_history (id, label, destination, mode, weight_kg, comparison, created_at)
        VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)
    `, rec.ID, rec.Label, rec.Destination, rec.Mode, rec.WeightKg, string(rec.Comparison), rec.CreatedAt)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (r *PostgresRepository) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `
        SELECT id, label, destination, mode, weight_kg, comparison::text, created_at
        FROM comparison_history
        ORDER BY created_at DESC, id
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	row := r.db.QueryRow(ctx, `
        SELECT id, label, destination, mode, weight_kg, comparison::text, created_at
        FROM comparison_history
        WHERE id = $1
    `, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM comparison_history WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var (
		rec        Record
		comparison string
	)
	if err := row.Scan(&rec.ID, &rec.Label, &rec.Destination, &rec.Mode, &rec.WeightKg, &comparison, &rec.CreatedAt); err != nil {
		return Record{}, err
	}
	rec.Comparison = []byte(comparison)
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}
