package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mateotomas2/ai-journaling-sub001/internal/common"
	"github.com/mateotomas2/ai-journaling-sub001/internal/cryptox"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

// Settings returns the settings singleton. A never-written installation
// gets the zero value, not an error.
func (s *Store) Settings(ctx context.Context) (*models.Settings, error) {
	if err := s.requireUnlocked(); err != nil {
		return nil, err
	}

	row, err := s.settingsRepo.Get(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return &models.Settings{}, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg models.Settings
	if err := cryptox.OpenRecord(row.Payload, row.Nonce, s.key, &cfg); err != nil {
		return nil, fmt.Errorf("opening settings: %w", err)
	}
	return &cfg, nil
}

// PatchSettings applies a typed partial update to the settings singleton.
// Settings are never deleted, only patched; they also never leave the
// device (the sync blob deliberately excludes them, the API key above all).
func (s *Store) PatchSettings(ctx context.Context, patch models.SettingsPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUnlocked(); err != nil {
		return err
	}

	current := &models.Settings{}
	row, err := s.settingsRepo.Get(ctx)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}
	if err == nil {
		if err := cryptox.OpenRecord(row.Payload, row.Nonce, s.key, current); err != nil {
			return fmt.Errorf("opening settings: %w", err)
		}
	}

	patch.Apply(current)

	ct, nonce, err := cryptox.SealRecord(current, s.key)
	if err != nil {
		return fmt.Errorf("sealing settings: %w", err)
	}
	return s.settingsRepo.Put(ctx, &models.SettingsRow{ID: models.SettingsID, Payload: ct, Nonce: nonce})
}
