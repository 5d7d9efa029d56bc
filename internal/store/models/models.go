// Package models defines the journal entity types persisted by the
// encrypted document store, plus the typed partial-update structures used
// for patch operations.
//
// All timestamps are epoch milliseconds. deletedAt == 0 means alive; a
// non-zero value is a tombstone kept for cross-device reconciliation.
package models

import (
	"regexp"
	"time"
)

// Role classifies a chat message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Category tags a message with one of the journal facets.
type Category string

const (
	CategoryJournal Category = "journal"
	CategoryInsight Category = "insight"
	CategoryHealth  Category = "health"
	CategoryDream   Category = "dream"
)

// NoteCategorySummary is reserved for the AI-generated daily digest.
const NoteCategorySummary = "summary"

// SettingsID is the fixed id of the settings singleton document.
const SettingsID = "settings"

var dayIDPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidDayID reports whether s is a zero-padded YYYY-MM-DD date string.
// The format matters: day ids double as lexicographically ordered range
// keys for messages, notes and summaries.
func ValidDayID(s string) bool {
	if !dayIDPattern.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// NowMillis returns the current time in epoch milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// Day partitions the journal by calendar date. Its id is the date string
// itself. Created lazily on the first message or note of a date and never
// hard-deleted; UpdatedAt is bumped on any child mutation so last-writer-
// wins merging can compare whole days.
type Day struct {
	ID         string `json:"id"`
	CreatedAt  int64  `json:"createdAt"`
	UpdatedAt  int64  `json:"updatedAt"`
	Timezone   string `json:"timezone"`
	HasSummary bool   `json:"hasSummary"`
	DeletedAt  int64  `json:"deletedAt"`
}

// Message is a single chat turn. Messages are append-only across devices:
// once created they are never edited, which is what lets sync merge them
// as a plain union of ids.
type Message struct {
	ID         string     `json:"id"`
	DayID      string     `json:"dayId"`
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	Parts      string     `json:"parts"`
	Timestamp  int64      `json:"timestamp"`
	DeletedAt  int64      `json:"deletedAt"`
	Categories []Category `json:"categories,omitempty"`
}

// MessageBody is the sealed portion of a Message row.
type MessageBody struct {
	Content string `json:"content"`
	Parts   string `json:"parts"`
}

// Note is free-form markdown attached to a day. Unlike messages, notes are
// mutable; concurrent edits resolve by UpdatedAt.
type Note struct {
	ID        string `json:"id"`
	DayID     string `json:"dayId"`
	Category  string `json:"category"`
	Title     string `json:"title,omitempty"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
	DeletedAt int64  `json:"deletedAt"`
}

// NoteBody is the sealed portion of a Note row.
type NoteBody struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// NotePatch is a typed partial update for a Note. Nil fields are left
// untouched.
type NotePatch struct {
	Title    *string
	Content  *string
	Category *string
}

// SummarySections is the fixed structure of a generated daily summary.
type SummarySections struct {
	Journal  string `json:"journal"`
	Insights string `json:"insights"`
	Health   string `json:"health"`
	Dreams   string `json:"dreams"`
}

// Summary is the AI-generated digest of one day. Its id equals the day id,
// which enforces at most one summary per day through upsert semantics.
// Regeneration overwrites in place and bumps GeneratedAt.
type Summary struct {
	ID          string          `json:"id"`
	GeneratedAt int64           `json:"generatedAt"`
	DeletedAt   int64           `json:"deletedAt"`
	Sections    SummarySections `json:"sections"`
	RawContent  string          `json:"rawContent"`
}

// SummaryBody is the sealed portion of a Summary row.
type SummaryBody struct {
	Sections   SummarySections `json:"sections"`
	RawContent string          `json:"rawContent"`
}

// EntityType names the kinds of entities an embedding can point at.
type EntityType string

const (
	EntityMessage EntityType = "message"
	EntityNote    EntityType = "note"
)

// Embedding stores a semantic vector for a message or note. ModelVersion
// (format "name@version") detects vectors that need regeneration after a
// model upgrade.
type Embedding struct {
	ID           string     `json:"id"`
	EntityType   EntityType `json:"entityType"`
	EntityID     string     `json:"entityId"`
	Vector       []float32  `json:"vector"`
	ModelVersion string     `json:"modelVersion"`
	CreatedAt    int64      `json:"createdAt"`
}

// Settings is the singleton configuration document. Never soft-deleted,
// only patched.
type Settings struct {
	APIKey       string `json:"apiKey"`
	SystemPrompt string `json:"systemPrompt"`
	ChatModel    string `json:"chatModel"`
	SummaryModel string `json:"summaryModel"`
}

// SettingsPatch is a typed partial update for Settings.
type SettingsPatch struct {
	APIKey       *string
	SystemPrompt *string
	ChatModel    *string
	SummaryModel *string
}

// Apply copies non-nil patch fields onto s.
func (p SettingsPatch) Apply(s *Settings) {
	if p.APIKey != nil {
		s.APIKey = *p.APIKey
	}
	if p.SystemPrompt != nil {
		s.SystemPrompt = *p.SystemPrompt
	}
	if p.ChatModel != nil {
		s.ChatModel = *p.ChatModel
	}
	if p.SummaryModel != nil {
		s.SummaryModel = *p.SummaryModel
	}
}
