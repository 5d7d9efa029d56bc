package settings

import (
	"context"

	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

// Repository stores the sealed settings singleton.
type Repository interface {
	// Get returns the settings row, common.ErrNotFound if never written.
	Get(ctx context.Context) (*models.SettingsRow, error)

	// Put inserts or replaces the settings row.
	Put(ctx context.Context, row *models.SettingsRow) error
}
