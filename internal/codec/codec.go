// Package codec serializes the full journal dataset to a portable JSON
// envelope and back. The same envelope shape is used for user-facing
// export files (plaintext) and, after encryption, for the remote sync
// blob; only the timestamp field name differs between the two uses.
//
// Import never overwrites: records whose id already exists locally are
// skipped, malformed envelopes are rejected before any write, and a bad
// individual record is reported without aborting the rest.
package codec

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mateotomas2/ai-journaling-sub001/internal/common"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

// Version is the envelope format version.
const Version = "1.0.0"

// Envelope is the full structural dump of the four synced collections.
// Tombstones are included: dropping them would resurrect deleted records
// on the next sync of another device.
type Envelope struct {
	Version    string           `json:"version"`
	ExportedAt string           `json:"exportedAt,omitempty"`
	SyncedAt   string           `json:"syncedAt,omitempty"`
	Days       []models.Day     `json:"days"`
	Messages   []models.Message `json:"messages"`
	Summaries  []models.Summary `json:"summaries"`
	Notes      []models.Note    `json:"notes"`
}

// Report summarizes an import: per-collection imported/skipped counts and
// a flat list of per-record errors.
type Report struct {
	Imported map[string]int `json:"imported"`
	Skipped  map[string]int `json:"skipped"`
	Errors   []string       `json:"errors"`
}

func newReport() *Report {
	return &Report{
		Imported: map[string]int{},
		Skipped:  map[string]int{},
	}
}

// Export dumps all four synced collections, tombstones included.
func Export(ctx context.Context, s *store.Store) (*Envelope, error) {
	days, err := s.AllDays(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting days: %w", err)
	}
	messages, err := s.AllMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting messages: %w", err)
	}
	summaries, err := s.AllSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting summaries: %w", err)
	}
	notes, err := s.AllNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting notes: %w", err)
	}

	return &Envelope{
		Version:    Version,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Days:       days,
		Messages:   messages,
		Summaries:  summaries,
		Notes:      notes,
	}, nil
}

// Validate checks an envelope structurally before any write happens. A
// failure here rejects the whole import atomically.
func Validate(e *Envelope) error {
	if e == nil {
		return fmt.Errorf("%w: empty envelope", common.ErrValidation)
	}
	if e.Version == "" {
		return fmt.Errorf("%w: missing version", common.ErrValidation)
	}
	for _, d := range e.Days {
		if !models.ValidDayID(d.ID) {
			return fmt.Errorf("%w: day with invalid id %q", common.ErrValidation, d.ID)
		}
	}
	for _, m := range e.Messages {
		if m.ID == "" {
			return fmt.Errorf("%w: message without id", common.ErrValidation)
		}
		if !models.ValidDayID(m.DayID) {
			return fmt.Errorf("%w: message %s with invalid dayId %q", common.ErrValidation, m.ID, m.DayID)
		}
	}
	for _, sum := range e.Summaries {
		if !models.ValidDayID(sum.ID) {
			return fmt.Errorf("%w: summary with invalid id %q", common.ErrValidation, sum.ID)
		}
	}
	for _, n := range e.Notes {
		if n.ID == "" {
			return fmt.Errorf("%w: note without id", common.ErrValidation)
		}
		if !models.ValidDayID(n.DayID) {
			return fmt.Errorf("%w: note %s with invalid dayId %q", common.ErrValidation, n.ID, n.DayID)
		}
	}
	return nil
}

// Import inserts the envelope's records into the store. Records already
// present (by id) are skipped, never overwritten. Days go first, and a
// child whose day the envelope forgot gets a minimal Day created, so the
// dayId reference always lands on an existing Day. Individual record
// failures land in the report's Errors without stopping the rest.
func Import(ctx context.Context, s *store.Store, e *Envelope) (*Report, error) {
	if err := Validate(e); err != nil {
		return nil, err
	}

	report := newReport()

	for i := range e.Days {
		d := e.Days[i]
		importRecord(report, store.CollectionDays, d.ID,
			func() (bool, error) {
				existing, err := s.GetDay(ctx, d.ID)
				if err == nil && existing != nil {
					return false, nil
				}
				if err != nil && !isNotFound(err) {
					return false, err
				}
				return true, s.UpsertDay(ctx, &d)
			})
	}

	for i := range e.Messages {
		m := e.Messages[i]
		importRecord(report, store.CollectionMessages, m.ID,
			func() (bool, error) {
				exists, err := s.HasMessage(ctx, m.ID)
				if err != nil {
					return false, err
				}
				if exists {
					return false, nil
				}
				if err := ensureDay(ctx, s, m.DayID, m.Timestamp); err != nil {
					return false, err
				}
				return true, s.ImportMessage(ctx, &m)
			})
	}

	for i := range e.Summaries {
		sum := e.Summaries[i]
		importRecord(report, store.CollectionSummaries, sum.ID,
			func() (bool, error) {
				_, err := s.GetSummary(ctx, sum.ID)
				if err == nil {
					return false, nil
				}
				if !isNotFound(err) {
					return false, err
				}
				if err := ensureDay(ctx, s, sum.ID, sum.GeneratedAt); err != nil {
					return false, err
				}
				return true, s.UpsertSummary(ctx, &sum)
			})
	}

	for i := range e.Notes {
		n := e.Notes[i]
		importRecord(report, store.CollectionNotes, n.ID,
			func() (bool, error) {
				exists, err := s.HasNote(ctx, n.ID)
				if err != nil {
					return false, err
				}
				if exists {
					return false, nil
				}
				if err := ensureDay(ctx, s, n.DayID, n.CreatedAt); err != nil {
					return false, err
				}
				return true, s.UpsertNote(ctx, &n)
			})
	}

	return report, nil
}

func importRecord(report *Report, collection, id string, insert func() (bool, error)) {
	inserted, err := insert()
	switch {
	case err != nil:
		report.Errors = append(report.Errors, fmt.Sprintf("%s %s: %v", collection, id, err))
	case inserted:
		report.Imported[collection]++
	default:
		report.Skipped[collection]++
	}
}

// ensureDay makes sure a child's day exists before the child is written,
// creating a minimal Day stamped with the child's own timestamp when the
// envelope carried the child without its day.
func ensureDay(ctx context.Context, s *store.Store, dayID string, ts int64) error {
	existing, err := s.GetDay(ctx, dayID)
	if err == nil && existing != nil {
		return nil
	}
	if err != nil && !isNotFound(err) {
		return err
	}
	if ts == 0 {
		ts = models.NowMillis()
	}
	return s.UpsertDay(ctx, &models.Day{ID: dayID, CreatedAt: ts, UpdatedAt: ts})
}

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}
