package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mateotomas2/ai-journaling-sub001/internal/common"
	"github.com/mateotomas2/ai-journaling-sub001/internal/cryptox"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/feed"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

// AddMessage inserts a new chat message, creating its day if needed and
// bumping the day's updatedAt. A zero ID or Timestamp is filled in.
func (s *Store) AddMessage(ctx context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUnlocked(); err != nil {
		return err
	}

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp == 0 {
		m.Timestamp = models.NowMillis()
	}
	if m.Role != models.RoleUser && m.Role != models.RoleAssistant {
		return fmt.Errorf("%w: invalid role %q", common.ErrValidation, m.Role)
	}

	if _, err := s.getOrCreateDayLocked(ctx, m.DayID, ""); err != nil {
		return err
	}

	row, err := s.sealMessage(m)
	if err != nil {
		return err
	}
	if err := s.messagesRepo.Insert(ctx, row); err != nil {
		return err
	}

	s.touchDay(ctx, m.DayID, models.NowMillis())
	s.publish(CollectionMessages, m.ID, feed.OpInsert)
	return nil
}

// ImportMessage inserts a message verbatim, preserving all fields. Merge
// and import write path: the day is not bumped (the merged day record
// carries its own updatedAt) and no change event is published.
func (s *Store) ImportMessage(ctx context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUnlocked(); err != nil {
		return err
	}
	row, err := s.sealMessage(m)
	if err != nil {
		return err
	}
	return s.messagesRepo.Insert(ctx, row)
}

// HasMessage reports whether a message id exists, tombstoned or not.
func (s *Store) HasMessage(ctx context.Context, id string) (bool, error) {
	if err := s.requireUnlocked(); err != nil {
		return false, err
	}
	return s.messagesRepo.Exists(ctx, id)
}

// GetMessage returns one message by id.
func (s *Store) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	if err := s.requireUnlocked(); err != nil {
		return nil, err
	}
	row, err := s.messagesRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.openMessage(row)
}

// MessagesByDay returns a day's alive messages ordered by timestamp.
func (s *Store) MessagesByDay(ctx context.Context, dayID string) ([]models.Message, error) {
	if err := s.requireUnlocked(); err != nil {
		return nil, err
	}
	rows, err := s.messagesRepo.ListByDay(ctx, dayID)
	if err != nil {
		return nil, err
	}
	return s.openMessages(rows)
}

// AllMessages returns every message including tombstones.
func (s *Store) AllMessages(ctx context.Context) ([]models.Message, error) {
	if err := s.requireUnlocked(); err != nil {
		return nil, err
	}
	rows, err := s.messagesRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.openMessages(rows)
}

// DeleteMessage tombstones a message and bumps its day.
func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUnlocked(); err != nil {
		return err
	}

	row, err := s.messagesRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	now := models.NowMillis()
	if err := s.messagesRepo.SoftDelete(ctx, id, now); err != nil {
		return err
	}

	s.touchDay(ctx, row.DayID, now)
	s.publish(CollectionMessages, id, feed.OpDelete)
	return nil
}

func (s *Store) sealMessage(m *models.Message) (*models.MessageRow, error) {
	body := models.MessageBody{Content: m.Content, Parts: m.Parts}
	ct, nonce, err := cryptox.SealRecord(body, s.key)
	if err != nil {
		return nil, fmt.Errorf("sealing message: %w", err)
	}
	return &models.MessageRow{
		ID:         m.ID,
		DayID:      m.DayID,
		Role:       m.Role,
		Timestamp:  m.Timestamp,
		DeletedAt:  m.DeletedAt,
		Categories: models.EncodeCategories(m.Categories),
		Payload:    ct,
		Nonce:      nonce,
	}, nil
}

func (s *Store) openMessage(row *models.MessageRow) (*models.Message, error) {
	var body models.MessageBody
	if err := cryptox.OpenRecord(row.Payload, row.Nonce, s.key, &body); err != nil {
		return nil, fmt.Errorf("opening message %s: %w", row.ID, err)
	}
	return &models.Message{
		ID:         row.ID,
		DayID:      row.DayID,
		Role:       row.Role,
		Content:    body.Content,
		Parts:      body.Parts,
		Timestamp:  row.Timestamp,
		DeletedAt:  row.DeletedAt,
		Categories: models.DecodeCategories(row.Categories),
	}, nil
}

func (s *Store) openMessages(rows []models.MessageRow) ([]models.Message, error) {
	result := make([]models.Message, 0, len(rows))
	for i := range rows {
		m, err := s.openMessage(&rows[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	return result, nil
}
