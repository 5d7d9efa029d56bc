package store

import (
	"context"
	"fmt"

	"github.com/mateotomas2/ai-journaling-sub001/internal/common"
	"github.com/mateotomas2/ai-journaling-sub001/internal/cryptox"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/feed"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

// SaveSummary upserts the daily digest for a day (regeneration simply
// overwrites), flips the day's hasSummary cache and bumps its updatedAt.
// The summary id always equals the day id.
func (s *Store) SaveSummary(ctx context.Context, sum *models.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUnlocked(); err != nil {
		return err
	}

	if !models.ValidDayID(sum.ID) {
		return fmt.Errorf("%w: summary id must be a day id, got %q", common.ErrValidation, sum.ID)
	}
	if sum.GeneratedAt == 0 {
		sum.GeneratedAt = models.NowMillis()
	}

	if _, err := s.getOrCreateDayLocked(ctx, sum.ID, ""); err != nil {
		return err
	}

	row, err := s.sealSummary(sum)
	if err != nil {
		return err
	}
	if err := s.summariesRepo.Upsert(ctx, row); err != nil {
		return err
	}

	if err := s.daysRepo.SetHasSummary(ctx, sum.ID, true, models.NowMillis()); err != nil {
		return err
	}
	s.publish(CollectionDays, sum.ID, feed.OpPatch)
	s.publish(CollectionSummaries, sum.ID, feed.OpInsert)
	return nil
}

// UpsertSummary overwrites (or inserts) a whole summary record. Merge
// write path: silent, but the day's hasSummary cache is still maintained.
func (s *Store) UpsertSummary(ctx context.Context, sum *models.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUnlocked(); err != nil {
		return err
	}
	row, err := s.sealSummary(sum)
	if err != nil {
		return err
	}
	if err := s.summariesRepo.Upsert(ctx, row); err != nil {
		return err
	}
	// A tombstone clears the flag so a remote deletion that wins the merge
	// does not leave the day claiming a summary it no longer has.
	return s.daysRepo.SetHasSummary(ctx, sum.ID, sum.DeletedAt == 0, models.NowMillis())
}

// GetSummary returns the digest for a day.
func (s *Store) GetSummary(ctx context.Context, dayID string) (*models.Summary, error) {
	if err := s.requireUnlocked(); err != nil {
		return nil, err
	}
	row, err := s.summariesRepo.GetByID(ctx, dayID)
	if err != nil {
		return nil, err
	}
	return s.openSummary(row)
}

// AllSummaries returns every summary including tombstones.
func (s *Store) AllSummaries(ctx context.Context) ([]models.Summary, error) {
	if err := s.requireUnlocked(); err != nil {
		return nil, err
	}
	rows, err := s.summariesRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]models.Summary, 0, len(rows))
	for i := range rows {
		sum, err := s.openSummary(&rows[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *sum)
	}
	return result, nil
}

// DeleteSummary tombstones a day's digest and clears the hasSummary cache.
func (s *Store) DeleteSummary(ctx context.Context, dayID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUnlocked(); err != nil {
		return err
	}

	now := models.NowMillis()
	if err := s.summariesRepo.SoftDelete(ctx, dayID, now); err != nil {
		return err
	}
	if err := s.daysRepo.SetHasSummary(ctx, dayID, false, now); err != nil {
		return err
	}
	s.publish(CollectionDays, dayID, feed.OpPatch)
	s.publish(CollectionSummaries, dayID, feed.OpDelete)
	return nil
}

func (s *Store) sealSummary(sum *models.Summary) (*models.SummaryRow, error) {
	body := models.SummaryBody{Sections: sum.Sections, RawContent: sum.RawContent}
	ct, nonce, err := cryptox.SealRecord(body, s.key)
	if err != nil {
		return nil, fmt.Errorf("sealing summary: %w", err)
	}
	return &models.SummaryRow{
		ID:          sum.ID,
		GeneratedAt: sum.GeneratedAt,
		DeletedAt:   sum.DeletedAt,
		Payload:     ct,
		Nonce:       nonce,
	}, nil
}

func (s *Store) openSummary(row *models.SummaryRow) (*models.Summary, error) {
	var body models.SummaryBody
	if err := cryptox.OpenRecord(row.Payload, row.Nonce, s.key, &body); err != nil {
		return nil, fmt.Errorf("opening summary %s: %w", row.ID, err)
	}
	return &models.Summary{
		ID:          row.ID,
		GeneratedAt: row.GeneratedAt,
		DeletedAt:   row.DeletedAt,
		Sections:    body.Sections,
		RawContent:  body.RawContent,
	}, nil
}
