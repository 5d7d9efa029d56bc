package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mateotomas2/ai-journaling-sub001/internal/cryptox"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

// PutEmbedding stores (or replaces) the semantic vector for an entity.
// Embeddings are derived data: they are not synced, not tombstoned, and
// publish no change events.
func (s *Store) PutEmbedding(ctx context.Context, e *models.Embedding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUnlocked(); err != nil {
		return err
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = models.NowMillis()
	}

	ct, nonce, err := cryptox.SealRecord(e.Vector, s.key)
	if err != nil {
		return fmt.Errorf("sealing embedding: %w", err)
	}
	return s.embeddingsRepo.Upsert(ctx, &models.EmbeddingRow{
		ID:           e.ID,
		EntityType:   e.EntityType,
		EntityID:     e.EntityID,
		ModelVersion: e.ModelVersion,
		CreatedAt:    e.CreatedAt,
		Payload:      ct,
		Nonce:        nonce,
	})
}

// EmbeddingFor returns the vector stored for an entity.
func (s *Store) EmbeddingFor(ctx context.Context, entityType models.EntityType, entityID string) (*models.Embedding, error) {
	if err := s.requireUnlocked(); err != nil {
		return nil, err
	}
	row, err := s.embeddingsRepo.GetByEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}
	return s.openEmbedding(row)
}

// StaleEmbeddings lists vectors produced by a different model version
// than current; they need regeneration.
func (s *Store) StaleEmbeddings(ctx context.Context, current string) ([]models.Embedding, error) {
	if err := s.requireUnlocked(); err != nil {
		return nil, err
	}
	rows, err := s.embeddingsRepo.ListStale(ctx, current)
	if err != nil {
		return nil, err
	}
	result := make([]models.Embedding, 0, len(rows))
	for i := range rows {
		e, err := s.openEmbedding(&rows[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, nil
}

// RemoveEmbeddingFor drops the vector for an entity.
func (s *Store) RemoveEmbeddingFor(ctx context.Context, entityType models.EntityType, entityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUnlocked(); err != nil {
		return err
	}
	return s.embeddingsRepo.RemoveByEntity(ctx, entityType, entityID)
}

func (s *Store) openEmbedding(row *models.EmbeddingRow) (*models.Embedding, error) {
	var vector []float32
	if err := cryptox.OpenRecord(row.Payload, row.Nonce, s.key, &vector); err != nil {
		return nil, fmt.Errorf("opening embedding %s: %w", row.ID, err)
	}
	return &models.Embedding{
		ID:           row.ID,
		EntityType:   row.EntityType,
		EntityID:     row.EntityID,
		Vector:       vector,
		ModelVersion: row.ModelVersion,
		CreatedAt:    row.CreatedAt,
	}, nil
}
