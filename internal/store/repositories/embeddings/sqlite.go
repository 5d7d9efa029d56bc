package embeddings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mateotomas2/ai-journaling-sub001/internal/common"
	"github.com/mateotomas2/ai-journaling-sub001/internal/dbx"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

const embeddingColumns = `id, entity_type, entity_id, model_version, created_at, payload, nonce`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, e *models.EmbeddingRow) error {
	query := `INSERT INTO embeddings (` + embeddingColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_type, entity_id) DO UPDATE SET
			model_version = excluded.model_version,
			created_at = excluded.created_at,
			payload = excluded.payload,
			nonce = excluded.nonce
	`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.EntityType, e.EntityID, e.ModelVersion, e.CreatedAt, e.Payload, e.Nonce)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByEntity(ctx context.Context, entityType models.EntityType, entityID string) (*models.EmbeddingRow, error) {
	query := `SELECT ` + embeddingColumns + ` FROM embeddings WHERE entity_type = ? AND entity_id = ?`
	row := r.db.QueryRowContext(ctx, query, entityType, entityID)

	e := &models.EmbeddingRow{}
	err := row.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.ModelVersion, &e.CreatedAt, &e.Payload, &e.Nonce)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListStale(ctx context.Context, current string) ([]models.EmbeddingRow, error) {
	query := `SELECT ` + embeddingColumns + ` FROM embeddings WHERE model_version != ?`
	rows, err := r.db.QueryContext(ctx, query, current)
	if err != nil {
		return nil, fmt.Errorf("failed to select embeddings: %w", err)
	}
	defer rows.Close()

	var result []models.EmbeddingRow
	for rows.Next() {
		var e models.EmbeddingRow
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.ModelVersion, &e.CreatedAt, &e.Payload, &e.Nonce); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) RemoveByEntity(ctx context.Context, entityType models.EntityType, entityID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM embeddings WHERE entity_type = ? AND entity_id = ?`, entityType, entityID)
	if err != nil {
		return fmt.Errorf("failed to remove embedding: %w", err)
	}
	return nil
}
