package embeddings

import (
	"context"

	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

// Repository describes storage for semantic vectors keyed by the entity
// they describe. One vector per (entity type, entity id).
type Repository interface {
	// Upsert inserts or replaces the vector for an entity.
	Upsert(ctx context.Context, e *models.EmbeddingRow) error

	// GetByEntity returns the vector row for one entity.
	GetByEntity(ctx context.Context, entityType models.EntityType, entityID string) (*models.EmbeddingRow, error)

	// ListStale returns rows whose model_version differs from current,
	// i.e. vectors that need regeneration after a model upgrade.
	ListStale(ctx context.Context, current string) ([]models.EmbeddingRow, error)

	// RemoveByEntity hard-deletes the vector for an entity. Vectors are
	// derived data, so they are removed outright rather than tombstoned.
	RemoveByEntity(ctx context.Context, entityType models.EntityType, entityID string) error
}
