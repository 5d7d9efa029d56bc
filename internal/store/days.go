package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mateotomas2/ai-journaling-sub001/internal/common"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/feed"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

// GetOrCreateDay returns the day record for date, creating it lazily on
// first use. Every message or note insert goes through here first, which
// is what upholds the invariant that a child's dayId always references an
// existing day.
func (s *Store) GetOrCreateDay(ctx context.Context, date, timezone string) (*models.Day, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreateDayLocked(ctx, date, timezone)
}

func (s *Store) getOrCreateDayLocked(ctx context.Context, date, timezone string) (*models.Day, error) {
	if err := s.requireUnlocked(); err != nil {
		return nil, err
	}
	if !models.ValidDayID(date) {
		return nil, fmt.Errorf("%w: invalid day id %q", common.ErrValidation, date)
	}

	d, err := s.daysRepo.GetByID(ctx, date)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	now := models.NowMillis()
	d = &models.Day{ID: date, CreatedAt: now, UpdatedAt: now, Timezone: timezone}
	if err := s.daysRepo.Upsert(ctx, d); err != nil {
		return nil, err
	}
	s.publish(CollectionDays, date, feed.OpInsert)
	return d, nil
}

// GetDay returns a day by date string.
func (s *Store) GetDay(ctx context.Context, date string) (*models.Day, error) {
	if err := s.requireUnlocked(); err != nil {
		return nil, err
	}
	return s.daysRepo.GetByID(ctx, date)
}

// ListDays returns alive days in the inclusive date range, ascending.
func (s *Store) ListDays(ctx context.Context, from, to string) ([]models.Day, error) {
	if err := s.requireUnlocked(); err != nil {
		return nil, err
	}
	return s.daysRepo.ListRange(ctx, from, to)
}

// AllDays returns every day including tombstones.
func (s *Store) AllDays(ctx context.Context) ([]models.Day, error) {
	if err := s.requireUnlocked(); err != nil {
		return nil, err
	}
	return s.daysRepo.GetAll(ctx)
}

// UpsertDay overwrites (or inserts) a whole day record. Merge write path:
// no change event is published, so a sync never re-triggers itself.
func (s *Store) UpsertDay(ctx context.Context, d *models.Day) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUnlocked(); err != nil {
		return err
	}
	return s.daysRepo.Upsert(ctx, d)
}

// touchDay bumps a day's updatedAt after a child mutation.
func (s *Store) touchDay(ctx context.Context, date string, ts int64) {
	if err := s.daysRepo.Touch(ctx, date, ts); err != nil {
		s.log.Warn(ctx, "bumping day updatedAt", "day", date, "error", err)
		return
	}
	s.publish(CollectionDays, date, feed.OpPatch)
}
