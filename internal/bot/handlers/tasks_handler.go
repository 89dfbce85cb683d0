package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/crewtask/crewbot/internal/database"
)

// NewTasksHandler returns a handler for the /tasks command: it materializes
// anything newly due for the user today and renders the day's checklist
// with inline buttons for the pending items.
func NewTasksHandler(deps HandlerDeps) bot.HandlerFunc {
	return tasksHandler{deps}.Handle
}

type tasksHandler struct {
	deps HandlerDeps
}

func (h tasksHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "tasks")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Tasks handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	today := time.Now()

	rows, err := h.deps.Tasks.MaterializeAndList(ctx, userID, today)
	if err != nil {
		log.ErrorContext(ctx, "Failed to materialize and list tasks",
			"user_id", userID, "error", err)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	if len(rows) == 0 {
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.NoTasks)
		return
	}

	text, keyboard := renderChecklist(h.deps.Config.Messages.TasksHeader, rows)

	params := &bot.SendMessageParams{ChatID: chatID, Text: text}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}
	if _, err := b.SendMessage(ctx, params); err != nil {
		log.ErrorContext(ctx, "Failed to send task list", "error", err, "chat_id", chatID)
		return
	}

	log.InfoContext(ctx, "Sent task list", "user_id", userID, "count", len(rows))
}

// renderChecklist builds the list text and an inline keyboard with one
// button per pending item. Completed items stay in the text, collapsed to a
// check mark; they get no button.
func renderChecklist(header string, rows []database.InstanceRow) (string, *models.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString(header)

	var buttons [][]models.InlineKeyboardButton
	for i, row := range rows {
		marker := "▫️"
		if row.Status == database.StatusCompleted {
			marker = "✅"
		}
		fmt.Fprintf(&sb, "\n%d. %s %s", i+1, marker, row.Title)

		if row.Status == database.StatusPending {
			buttons = append(buttons, []models.InlineKeyboardButton{{
				Text:         fmt.Sprintf("%d. %s", i+1, row.Title),
				CallbackData: Command{Kind: CommandOpenTask, InstanceID: row.ID}.Encode(),
			}})
		}
	}

	if len(buttons) == 0 {
		return sb.String(), nil
	}
	return sb.String(), &models.InlineKeyboardMarkup{InlineKeyboard: buttons}
}

// sendText sends a plain text message, logging a failure instead of
// propagating it.
func sendText(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}
