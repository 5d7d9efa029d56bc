package syncx

import (
	"sort"

	"github.com/mateotomas2/ai-journaling-sub001/internal/codec"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

// Merge combines a local and a remote envelope into the dataset both
// devices should converge on. It is a pure function over its inputs.
//
// Messages are append-only, so they merge as a union of ids with the
// local copy kept on collision. Days and notes are mutable and resolve
// last-writer-wins on updatedAt; summaries resolve on generatedAt. Ties
// keep the local copy, which makes Merge(local, remote) idempotent when
// re-run against its own output.
func Merge(local, remote *codec.Envelope) *codec.Envelope {
	out := &codec.Envelope{
		Version:   codec.Version,
		Days:      mergeDays(local.Days, remote.Days),
		Messages:  mergeMessages(local.Messages, remote.Messages),
		Summaries: mergeSummaries(local.Summaries, remote.Summaries),
		Notes:     mergeNotes(local.Notes, remote.Notes),
	}
	return out
}

func mergeDays(local, remote []models.Day) []models.Day {
	byID := make(map[string]models.Day, len(local)+len(remote))
	for _, d := range local {
		byID[d.ID] = d
	}
	for _, d := range remote {
		if cur, ok := byID[d.ID]; !ok || d.UpdatedAt > cur.UpdatedAt {
			byID[d.ID] = d
		}
	}

	out := make([]models.Day, 0, len(byID))
	for _, d := range byID {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func mergeMessages(local, remote []models.Message) []models.Message {
	byID := make(map[string]models.Message, len(local)+len(remote))
	for _, m := range local {
		byID[m.ID] = m
	}
	for _, m := range remote {
		if _, ok := byID[m.ID]; !ok {
			byID[m.ID] = m
		}
	}

	out := make([]models.Message, 0, len(byID))
	for _, m := range byID {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func mergeSummaries(local, remote []models.Summary) []models.Summary {
	byID := make(map[string]models.Summary, len(local)+len(remote))
	for _, s := range local {
		byID[s.ID] = s
	}
	for _, s := range remote {
		if cur, ok := byID[s.ID]; !ok || s.GeneratedAt > cur.GeneratedAt {
			byID[s.ID] = s
		}
	}

	out := make([]models.Summary, 0, len(byID))
	for _, s := range byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func mergeNotes(local, remote []models.Note) []models.Note {
	byID := make(map[string]models.Note, len(local)+len(remote))
	for _, n := range local {
		byID[n.ID] = n
	}
	for _, n := range remote {
		if cur, ok := byID[n.ID]; !ok || n.UpdatedAt > cur.UpdatedAt {
			byID[n.ID] = n
		}
	}

	out := make([]models.Note, 0, len(byID))
	for _, n := range byID {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
