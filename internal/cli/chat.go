package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/mateotomas2/ai-journaling-sub001/internal/llm"
	"github.com/mateotomas2/ai-journaling-sub001/internal/store/models"
)

// chat sends one user turn to the assistant and persists both sides of
// the exchange as messages of today's day.
func (a *App) chat(ctx context.Context) {
	settings, err := a.store.Settings(ctx)
	if err != nil {
		fmt.Println(err.Error())
		return
	}
	if settings.APIKey == "" {
		fmt.Println("No API key configured. Use 'setkey' first.")
		return
	}

	text, err := GetMultiline(a.reader, "Your message:", os.Stdout)
	if err != nil || text == "" {
		return
	}

	day := today()
	history, err := a.store.MessagesByDay(ctx, day)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	req := &llm.ChatRequest{
		Model:        settings.ChatModel,
		SystemPrompt: settings.SystemPrompt,
	}
	for _, m := range history {
		req.Messages = append(req.Messages, llm.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	req.Messages = append(req.Messages, llm.ChatMessage{Role: string(models.RoleUser), Content: text})

	reply, err := a.llm.Chat(ctx, settings.APIKey, req)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	userMsg := &models.Message{DayID: day, Role: models.RoleUser, Content: text}
	if err := a.store.AddMessage(ctx, userMsg); err != nil {
		fmt.Println(err.Error())
		return
	}
	assistantMsg := &models.Message{DayID: day, Role: models.RoleAssistant, Content: reply}
	if err := a.store.AddMessage(ctx, assistantMsg); err != nil {
		fmt.Println(err.Error())
		return
	}

	fmt.Println(reply)
}

// addMessage records a journal entry without calling the assistant.
func (a *App) addMessage(ctx context.Context) {
	day, err := a.promptDay()
	if err != nil {
		return
	}

	text, err := GetMultiline(a.reader, "Entry text:", os.Stdout)
	if err != nil || text == "" {
		return
	}

	m := &models.Message{DayID: day, Role: models.RoleUser, Content: text}
	if err := a.store.AddMessage(ctx, m); err != nil {
		fmt.Println(err.Error())
		return
	}
	fmt.Println("Saved", m.ID)
}
