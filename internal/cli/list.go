package cli

import (
	"context"
	"fmt"
	"os"
	"time"
)

// list prints a day's messages and notes in chronological order.
func (a *App) list(ctx context.Context) {
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
		fmt.Println("Nothing recorded for", day)
		return
	}

	for _, m := range msgs {
		ts := time.UnixMilli(m.Timestamp).Format("15:04")
		fmt.Printf("%s [%s] %s  %s\n", ts, m.Role, m.ID, firstLine(m.Content))
	}
	for _, n := range notes {
		fmt.Printf("note [%s] %s  %s\n", n.Category, n.ID, firstLine(title(n.Title, n.Content)))
	}
}

// show prints one note in full.
func (a *App) show(ctx context.Context) {
	id, err := GetSimpleText(a.reader, "Enter note id", os.Stdout)
	if err != nil || id == "" {
		return
	}

	n, err := a.store.GetNote(ctx, id)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	if n.Title != "" {
		fmt.Println("#", n.Title)
	}
	fmt.Printf("%s  (%s, %s)\n\n", n.ID, n.DayID, n.Category)
	fmt.Println(n.Content)
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}

func title(t, content string) string {
	if t != "" {
		return t
	}
	return content
}
