package notes

import (
	"context"

	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

// Repository describes CRUD and query operations for note rows. Notes are
// mutable; upsert carries both local edits and merged remote versions.
type Repository interface {
	// Upsert inserts a new note or overwrites an existing one by id.
	Upsert(ctx context.Context, n *models.NoteRow) error

	// GetByID returns a note row by id, tombstones included.
	GetByID(ctx context.Context, id string) (*models.NoteRow, error)

	// Exists reports whether any row (alive or tombstoned) has this id.
	Exists(ctx context.Context, id string) (bool, error)

	// ListByDay returns alive notes of one day ordered by created_at.
	ListByDay(ctx context.Context, dayID string) ([]models.NoteRow, error)

	// ListByCategory returns alive notes with the given category, newest
	// first, capped at limit (0 = no cap).
	ListByCategory(ctx context.Context, category string, limit int) ([]models.NoteRow, error)

	// GetAll returns every note including tombstones, for export and sync.
	GetAll(ctx context.Context) ([]models.NoteRow, error)

	// SoftDelete stamps deleted_at on an alive note and bumps updated_at
	// so the tombstone wins last-writer-wins merges.
	SoftDelete(ctx context.Context, id string, ts int64) error

	// Remove hard-deletes a row. Operational paths only.
	Remove(ctx context.Context, id string) error
}
