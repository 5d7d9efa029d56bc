package summaries

import (
	"context"

	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

// Repository describes CRUD operations for summary rows. A summary's id
// equals its day id, so the upsert is what enforces at most one summary
// per day.
type Repository interface {
	// Upsert inserts or overwrites the summary for a day.
	Upsert(ctx context.Context, s *models.SummaryRow) error

	// GetByID returns a summary row by day id, tombstones included.
	GetByID(ctx context.Context, id string) (*models.SummaryRow, error)

	// GetAll returns every summary including tombstones, for export and sync.
	GetAll(ctx context.Context) ([]models.SummaryRow, error)

	// SoftDelete stamps deleted_at on an alive summary.
	SoftDelete(ctx context.Context, id string, ts int64) error
}
