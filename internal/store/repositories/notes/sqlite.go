package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mateotomas2/ai-journaling-sub001/internal/common"
	"github.com/mateotomas2/ai-journaling-sub001/internal/dbx"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

const noteColumns = `id, day_id, category, created_at, updated_at, deleted_at, payload, nonce`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, n *models.NoteRow) error {
	query := `INSERT INTO notes (` + noteColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET day_id = excluded.day_id,
			category = excluded.category,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			payload = excluded.payload,
			nonce = excluded.nonce
	`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.DayID, n.Category, n.CreatedAt, n.UpdatedAt, n.DeletedAt, n.Payload, n.Nonce)
	if err != nil {
		return fmt.Errorf("failed to upsert note: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.NoteRow, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	n, err := scanNote(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM notes WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check note: %w", err)
	}
	return true, nil
}

func (r *SQLiteRepository) ListByDay(ctx context.Context, dayID string) ([]models.NoteRow, error) {
	query := `SELECT ` + noteColumns + ` FROM notes
		WHERE day_id = ? AND deleted_at = 0 ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, dayID)
	if err != nil {
		return nil, fmt.Errorf("failed to select notes: %w", err)
	}
	defer rows.Close()
	return collectNotes(rows)
}

func (r *SQLiteRepository) ListByCategory(ctx context.Context, category string, limit int) ([]models.NoteRow, error) {
	query := `SELECT ` + noteColumns + ` FROM notes
		WHERE category = ? AND deleted_at = 0 ORDER BY updated_at DESC`
	args := []any{category}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select notes: %w", err)
	}
	defer rows.Close()
	return collectNotes(rows)
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.NoteRow, error) {
	query := `SELECT ` + noteColumns + ` FROM notes ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select notes: %w", err)
	}
	defer rows.Close()
	return collectNotes(rows)
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, id string, ts int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notes SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at = 0`, ts, ts, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return common.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Remove(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove note: %w", err)
	}
	return nil
}

func scanNote(scan func(...any) error) (*models.NoteRow, error) {
	n := &models.NoteRow{}
	if err := scan(&n.ID, &n.DayID, &n.Category, &n.CreatedAt, &n.UpdatedAt, &n.DeletedAt, &n.Payload, &n.Nonce); err != nil {
		return nil, err
	}
	return n, nil
}

func collectNotes(rows *sql.Rows) ([]models.NoteRow, error) {
	var result []models.NoteRow
	for rows.Next() {
		n, err := scanNote(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
