package models

import "strings"

// Row types mirror the physical table shape: cleartext index columns plus
// a sealed payload. Repositories traffic in rows; the store layer seals
// and opens payloads so key material never reaches the SQL layer.

type MessageRow struct {
	ID         string
	DayID      string
	Role       Role
	Timestamp  int64
	DeletedAt  int64
	Categories string
	Payload    []byte
	Nonce      []byte
}

type NoteRow struct {
	ID        string
	DayID     string
	Category  string
	CreatedAt int64
	UpdatedAt int64
	DeletedAt int64
	Payload   []byte
	Nonce     []byte
}

type SummaryRow struct {
	ID          string
	GeneratedAt int64
	DeletedAt   int64
	Payload     []byte
	Nonce       []byte
}

type EmbeddingRow struct {
	ID           string
	EntityType   EntityType
	EntityID     string
	ModelVersion string
	CreatedAt    int64
	Payload      []byte
	Nonce        []byte
}

type SettingsRow struct {
	ID      string
	Payload []byte
	Nonce   []byte
}

// EncodeCategories joins category tags into the comma-separated column
// form. Order is preserved.
func EncodeCategories(cats []Category) string {
	if len(cats) == 0 {
		return ""
	}
	parts := make([]string, len(cats))
	for i, c := range cats {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}

// DecodeCategories reverses EncodeCategories.
func DecodeCategories(s string) []Category {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	cats := make([]Category, len(parts))
	for i, p := range parts {
		cats[i] = Category(p)
	}
	return cats
}
