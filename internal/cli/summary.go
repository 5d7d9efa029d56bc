package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mateotomas2/ai-journaling-sub001/internal/llm"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

// summary generates the structured daily digest for a day and saves it,
// overwriting a previous one.
func (a *App) summary(ctx context.Context) {
	settings, err := a.store.Settings(ctx)
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	if settings.APIKey == "" {
		fmt.Println("No API key configured. Use 'setkey' first.")
		return
	}

	day, err := a.promptDay()
	if err != nil {
		return
	}

	msgs, err := a.store.MessagesByDay(ctx, day)
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	notes, err := a.store.NotesByDay(ctx, day)
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	if len(msgs) == 0 && len(notes) == 0 {
		fmt.Println("Nothing to summarize for", day)
		return
	}

	entries := make([]string, 0, len(msgs)+len(notes))
	for _, m := range msgs {
		entries = append(entries, m.Content)
	}
	for _, n := range notes {
		entries = append(entries, n.Content)
	}

	res, err := a.llm.DailySummary(ctx, settings.APIKey, &llm.SummaryRequest{
		Model:   settings.SummaryModel,
		Date:    day,
		Entries: entries,
	})
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	sum := &models.Summary{ID: day, Sections: res.Sections, RawContent: res.RawContent}
	if err := a.store.SaveSummary(ctx, sum); err != nil {
		fmt.Println(err.Error())
		return
	}

	fmt.Println(res.RawContent)
}

// query answers a natural-language question over recent journal content.
func (a *App) query(ctx context.Context) {
	settings, err := a.store.Settings(ctx)
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	if settings.APIKey == "" {
		fmt.Println("No API key configured. Use 'setkey' first.")
		return
	}

	question, err := GetSimpleText(a.reader, "Enter question", os.Stdout)
	if err != nil || question == "" {
		return
	}

	// Recent messages serve as query context.
	msgs, err := a.store.AllMessages(ctx)
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	var excerpts []string
	for _, m := range msgs {
		if m.DeletedAt == 0 {
			excerpts = append(excerpts, m.Content)
		}
	}

	answer, err := a.llm.Query(ctx, settings.APIKey, &llm.QueryRequest{
		Question: question,
		Context:  excerpts,
	})
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	fmt.Println(answer)
}

// setAPIKey stores the LLM API key in the encrypted settings document.
func (a *App) setAPIKey(ctx context.Context) {
	key, err := GetSimpleText(a.reader, "Enter API key", os.Stdout)
	if err != nil || key == "" {
		return
	}
	if err := a.store.PatchSettings(ctx, models.SettingsPatch{APIKey: &key}); err != nil {
		fmt.Println(err.Error())
		return
	}
	fmt.Println("Saved.")
}
