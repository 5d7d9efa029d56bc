package messages

import (
	"context"

	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

// Repository describes CRUD and query operations for message rows.
// Messages are insert-only across devices; the only in-place change is
// the soft-delete tombstone.
type Repository interface {
	// Insert adds a new message row. Duplicate ids are an error.
	Insert(ctx context.Context, m *models.MessageRow) error

	// GetByID returns a message row by id, tombstones included.
	GetByID(ctx context.Context, id string) (*models.MessageRow, error)

	// Exists reports whether any row (alive or tombstoned) has this id.
	Exists(ctx context.Context, id string) (bool, error)

	// ListByDay returns alive messages of one day ordered by timestamp.
	ListByDay(ctx context.Context, dayID string) ([]models.MessageRow, error)

	// ListByRole returns alive messages with the given role, newest first,
	// capped at limit (0 = no cap).
	ListByRole(ctx context.Context, role models.Role, limit int) ([]models.MessageRow, error)

	// GetAll returns every message including tombstones, for export and sync.
	GetAll(ctx context.Context) ([]models.MessageRow, error)

	// SoftDelete stamps deleted_at on an alive message.
	SoftDelete(ctx context.Context, id string, ts int64) error

	// Remove hard-deletes a row. Operational paths only; normal deletion
	// is the soft-delete tombstone.
	Remove(ctx context.Context, id string) error
}
