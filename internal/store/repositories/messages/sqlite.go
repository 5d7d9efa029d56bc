package messages

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mateotomas2/ai-journaling-sub001/internal/common"
	"github.com/mateotomas2/ai-journaling-sub001/internal/dbx"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

const messageColumns = `id, day_id, role, timestamp, deleted_at, categories, payload, nonce`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, m *models.MessageRow) error {
	query := `INSERT INTO messages (` + messageColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.DayID, m.Role, m.Timestamp, m.DeletedAt, m.Categories, m.Payload, m.Nonce)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.MessageRow, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	m, err := scanMessage(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM messages WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check message: %w", err)
	}
	return true, nil
}

func (r *SQLiteRepository) ListByDay(ctx context.Context, dayID string) ([]models.MessageRow, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
		WHERE day_id = ? AND deleted_at = 0 ORDER BY timestamp ASC`
	rows, err := r.db.QueryContext(ctx, query, dayID)
	if err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows)
}

func (r *SQLiteRepository) ListByRole(ctx context.Context, role models.Role, limit int) ([]models.MessageRow, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
		WHERE role = ? AND deleted_at = 0 ORDER BY timestamp DESC`
	args := []any{role}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows)
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.MessageRow, error) {
	query := `SELECT ` + messageColumns + ` FROM messages ORDER BY timestamp ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	defer rows.Close()
	return collectMessages(rows)
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, id string, ts int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET deleted_at = ? WHERE id = ? AND deleted_at = 0`, ts, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
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
	_, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove message: %w", err)
	}
	return nil
}

func scanMessage(scan func(...any) error) (*models.MessageRow, error) {
	m := &models.MessageRow{}
	if err := scan(&m.ID, &m.DayID, &m.Role, &m.Timestamp, &m.DeletedAt, &m.Categories, &m.Payload, &m.Nonce); err != nil {
		return nil, err
	}
	return m, nil
}

func collectMessages(rows *sql.Rows) ([]models.MessageRow, error) {
	var result []models.MessageRow
	for rows.Next() {
		m, err := scanMessage(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
