package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mateotomas2/ai-journaling-sub001/internal/cryptox"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/feed"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

// AddNote inserts a new note, creating its day if needed and bumping the
// day's updatedAt. A zero ID or CreatedAt is filled in.
func (s *Store) AddNote(ctx context.Context, n *models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUnlocked(); err != nil {
		return err
	}

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	now := models.NowMillis()
	if n.CreatedAt == 0 {
		n.CreatedAt = now
	}
	if n.UpdatedAt == 0 {
		n.UpdatedAt = n.CreatedAt
	}

	if _, err := s.getOrCreateDayLocked(ctx, n.DayID, ""); err != nil {
		return err
	}

	row, err := s.sealNote(n)
	if err != nil {
		return err
	}
	if err := s.notesRepo.Upsert(ctx, row); err != nil {
		return err
	}

	s.touchDay(ctx, n.DayID, now)
	s.publish(CollectionNotes, n.ID, feed.OpInsert)
	return nil
}

// PatchNote applies a typed partial update to a note and stamps a fresh
// updatedAt. The read-modify-write runs under the store mutex, so no
// reader observes a half-applied patch.
func (s *Store) PatchNote(ctx context.Context, id string, patch models.NotePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUnlocked(); err != nil {
		return err
	}

	row, err := s.notesRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	n, err := s.openNote(row)
	if err != nil {
		return err
	}

	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Content != nil {
		n.Content = *patch.Content
	}
	if patch.Category != nil {
		n.Category = *patch.Category
	}
	n.UpdatedAt = models.NowMillis()

	updated, err := s.sealNote(n)
	if err != nil {
		return err
	}
	if err := s.notesRepo.Upsert(ctx, updated); err != nil {
		return err
	}

	s.touchDay(ctx, n.DayID, n.UpdatedAt)
	s.publish(CollectionNotes, id, feed.OpPatch)
	return nil
}

// UpsertNote overwrites (or inserts) a whole note record. Merge write
// path: timestamps are preserved and no change event is published.
func (s *Store) UpsertNote(ctx context.Context, n *models.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUnlocked(); err != nil {
		return err
	}
	row, err := s.sealNote(n)
	if err != nil {
		return err
	}
	return s.notesRepo.Upsert(ctx, row)
}

// HasNote reports whether a note id exists, tombstoned or not.
func (s *Store) HasNote(ctx context.Context, id string) (bool, error) {
	if err := s.requireUnlocked(); err != nil {
		return false, err
	}
	return s.notesRepo.Exists(ctx, id)
}

// GetNote returns one note by id.
func (s *Store) GetNote(ctx context.Context, id string) (*models.Note, error) {
	if err := s.requireUnlocked(); err != nil {
		return nil, err
	}
	row, err := s.notesRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.openNote(row)
}

// NotesByDay returns a day's alive notes ordered by creation time.
func (s *Store) NotesByDay(ctx context.Context, dayID string) ([]models.Note, error) {
	if err := s.requireUnlocked(); err != nil {
		return nil, err
	}
	rows, err := s.notesRepo.ListByDay(ctx, dayID)
	if err != nil {
		return nil, err
	}
	return s.openNotes(rows)
}

// NotesByCategory returns alive notes in a category, newest first.
func (s *Store) NotesByCategory(ctx context.Context, category string, limit int) ([]models.Note, error) {
	if err := s.requireUnlocked(); err != nil {
		return nil, err
	}
	rows, err := s.notesRepo.ListByCategory(ctx, category, limit)
	if err != nil {
		return nil, err
	}
	return s.openNotes(rows)
}

// AllNotes returns every note including tombstones.
func (s *Store) AllNotes(ctx context.Context) ([]models.Note, error) {
	if err := s.requireUnlocked(); err != nil {
		return nil, err
	}
	rows, err := s.notesRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.openNotes(rows)
}

// DeleteNote tombstones a note and bumps its day.
func (s *Store) DeleteNote(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUnlocked(); err != nil {
		return err
	}

	row, err := s.notesRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	now := models.NowMillis()
	if err := s.notesRepo.SoftDelete(ctx, id, now); err != nil {
		return err
	}

	s.touchDay(ctx, row.DayID, now)
	s.publish(CollectionNotes, id, feed.OpDelete)
	return nil
}

func (s *Store) sealNote(n *models.Note) (*models.NoteRow, error) {
	body := models.NoteBody{Title: n.Title, Content: n.Content}
	ct, nonce, err := cryptox.SealRecord(body, s.key)
	if err != nil {
		return nil, fmt.Errorf("sealing note: %w", err)
	}
	return &models.NoteRow{
		ID:        n.ID,
		DayID:     n.DayID,
		Category:  n.Category,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
		DeletedAt: n.DeletedAt,
		Payload:   ct,
		Nonce:     nonce,
	}, nil
}

func (s *Store) openNote(row *models.NoteRow) (*models.Note, error) {
	var body models.NoteBody
	if err := cryptox.OpenRecord(row.Payload, row.Nonce, s.key, &body); err != nil {
		return nil, fmt.Errorf("opening note %s: %w", row.ID, err)
	}
	return &models.Note{
		ID:        row.ID,
		DayID:     row.DayID,
		Category:  row.Category,
		Title:     body.Title,
		Content:   body.Content,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		DeletedAt: row.DeletedAt,
	}, nil
}

func (s *Store) openNotes(rows []models.NoteRow) ([]models.Note, error) {
	result := make([]models.Note, 0, len(rows))
	for i := range rows {
		n, err := s.openNote(&rows[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}
	return result, nil
}
