package summaries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mateotomas2/ai-journaling-sub001/internal/common"
	"github.com/mateotomas2/ai-journaling-sub001/internal/dbx"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

const summaryColumns = `id, generated_at, deleted_at, payload, nonce`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, s *models.SummaryRow) error {
	query := `INSERT INTO summaries (` + summaryColumns + `) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET generated_at = excluded.generated_at,
			deleted_at = excluded.deleted_at,
			payload = excluded.payload,
			nonce = excluded.nonce
	`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.GeneratedAt, s.DeletedAt, s.Payload, s.Nonce)
	if err != nil {
		return fmt.Errorf("failed to upsert summary: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.SummaryRow, error) {
	query := `SELECT ` + summaryColumns + ` FROM summaries WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	s := &models.SummaryRow{}
	err := row.Scan(&s.ID, &s.GeneratedAt, &s.DeletedAt, &s.Payload, &s.Nonce)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.SummaryRow, error) {
	query := `SELECT ` + summaryColumns + ` FROM summaries ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select summaries: %w", err)
	}
	defer rows.Close()

	var result []models.SummaryRow
	for rows.Next() {
		var s models.SummaryRow
		if err := rows.Scan(&s.ID, &s.GeneratedAt, &s.DeletedAt, &s.Payload, &s.Nonce); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) SoftDelete(ctx context.Context, id string, ts int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE summaries SET deleted_at = ? WHERE id = ? AND deleted_at = 0`, ts, id)
	if err != nil {
		return fmt.Errorf("failed to delete summary: %w", err)
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
