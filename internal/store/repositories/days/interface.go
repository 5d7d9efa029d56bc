package days

import (
	"context"

	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

// Repository describes CRUD and query operations for Day records.
type Repository interface {
	// Upsert inserts a new day or overwrites an existing one by id.
	Upsert(ctx context.Context, d *models.Day) error

	// GetByID returns a day by date string, tombstones included.
	// Returns common.ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*models.Day, error)

	// ListRange returns alive days with from <= id <= to, ascending.
	// Date strings sort lexicographically, so this is a date range scan.
	ListRange(ctx context.Context, from, to string) ([]models.Day, error)

	// GetAll returns every day including tombstones, for export and sync.
	GetAll(ctx context.Context) ([]models.Day, error)

	// Touch bumps updated_at if ts is later than the stored value.
	Touch(ctx context.Context, id string, ts int64) error

	// SetHasSummary flips the derived has_summary cache.
	SetHasSummary(ctx context.Context, id string, has bool, ts int64) error
}
