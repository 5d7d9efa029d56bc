package days

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mateotomas2/ai-journaling-sub001/internal/common"
	"github.com/mateotomas2/ai-journaling-sub001/internal/dbx"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, d *models.Day) error {
	query := `INSERT INTO days (id, created_at, updated_at, timezone, has_summary, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			timezone = excluded.timezone,
			has_summary = excluded.has_summary,
			deleted_at = excluded.deleted_at
	`
	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.CreatedAt, d.UpdatedAt, d.Timezone, boolToInt(d.HasSummary), d.DeletedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert day: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Day, error) {
	query := `SELECT id, created_at, updated_at, timezone, has_summary, deleted_at
		FROM days WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	d, err := scanDay(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get day: %w", err)
	}
	return d, nil
}

func (r *SQLiteRepository) ListRange(ctx context.Context, from, to string) ([]models.Day, error) {
	query := `SELECT id, created_at, updated_at, timezone, has_summary, deleted_at
		FROM days WHERE deleted_at = 0 AND id >= ? AND id <= ? ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to select days: %w", err)
	}
	defer rows.Close()
	return collectDays(rows)
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Day, error) {
	query := `SELECT id, created_at, updated_at, timezone, has_summary, deleted_at
		FROM days ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select days: %w", err)
	}
	defer rows.Close()
	return collectDays(rows)
}

func (r *SQLiteRepository) Touch(ctx context.Context, id string, ts int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE days SET updated_at = ? WHERE id = ? AND updated_at < ?`, ts, id, ts)
	if err != nil {
		return fmt.Errorf("failed to touch day: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SetHasSummary(ctx context.Context, id string, has bool, ts int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE days SET has_summary = ?, updated_at = ? WHERE id = ?`, boolToInt(has), ts, id)
	if err != nil {
		return fmt.Errorf("failed to set has_summary: %w", err)
	}
	return nil
}

func scanDay(scan func(...any) error) (*models.Day, error) {
	d := &models.Day{}
	var hasSummary int
	if err := scan(&d.ID, &d.CreatedAt, &d.UpdatedAt, &d.Timezone, &hasSummary, &d.DeletedAt); err != nil {
		return nil, err
	}
	d.HasSummary = hasSummary != 0
	return d, nil
}

func collectDays(rows *sql.Rows) ([]models.Day, error) {
	var result []models.Day
	for rows.Next() {
		d, err := scanDay(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
