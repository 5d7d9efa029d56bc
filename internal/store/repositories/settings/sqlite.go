package settings

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

func (r *SQLiteRepository) Get(ctx context.Context) (*models.SettingsRow, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, payload, nonce FROM settings WHERE id = ?`, models.SettingsID)

	s := &models.SettingsRow{}
	err := row.Scan(&s.ID, &s.Payload, &s.Nonce)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, row *models.SettingsRow) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (id, payload, nonce) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, nonce = excluded.nonce
	`, models.SettingsID, row.Payload, row.Nonce)
	if err != nil {
		return fmt.Errorf("failed to put settings: %w", err)
	}
	return nil
}
