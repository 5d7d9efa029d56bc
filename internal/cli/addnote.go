package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

func (a *App) addNote(ctx context.Context) {
	day, err := a.promptDay()
	if err != nil {
		return
	}

	category, err := GetSimpleText(a.reader, "Enter category (journal, insight, health, dream)", os.Stdout)
	if err != nil {
		return
	}
	if category == "" {
		category = string(models.CategoryJournal)
	}

	title, err := GetSimpleText(a.reader, "Enter title (optional)", os.Stdout)
	if err != nil {
		return
	}

	content, err := GetMultiline(a.reader, "Enter note text:", os.Stdout)
	if err != nil || content == "" {
		return
	}

	n := &models.Note{DayID: day, Category: category, Title: title, Content: content}
	if err := a.store.AddNote(ctx, n); err != nil {
		fmt.Println(err.Error())
		return
	}
	fmt.Println("Saved", n.ID)
}
