package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/crewtask/crewbot/internal/config"
	"github.com/crewtask/crewbot/internal/database"
	"github.com/crewtask/crewbot/internal/tasks"
)

// NewCallbackHandler returns the handler for inline-button callbacks. It
// parses the callback data into a typed command and dispatches it.
func NewCallbackHandler(deps HandlerDeps) bot.HandlerFunc {
	return callbackHandler{deps}.Handle
}

type callbackHandler struct {
	deps HandlerDeps
}

func (h callbackHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "callback")

	if update.CallbackQuery == nil {
		return
	}
	userID := update.CallbackQuery.From.ID
	chatID := callbackChatID(update.CallbackQuery)

	// Always acknowledge the tap so the client stops its spinner.
	defer func() {
		_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: update.CallbackQuery.ID,
		})
		if err != nil {
			log.WarnContext(ctx, "Failed to answer callback query", "error", err)
		}
	}()

	cmd, err := ParseCommand(update.CallbackQuery.Data)
	if err != nil {
		log.WarnContext(ctx, "Ignoring unrecognized callback data",
			"user_id", userID, "data", update.CallbackQuery.Data)
		return
	}

	switch cmd.Kind {
	case CommandOpenTask:
		h.openTask(ctx, b, log, chatID, userID, cmd.InstanceID)
	case CommandCancelAnswer:
		h.cancelAnswer(ctx, b, log, chatID, userID)
	}
}

func (h callbackHandler) openTask(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID, userID, instanceID int64) {
	inst, err := h.deps.Tasks.BeginAnswer(ctx, userID, instanceID)
	switch {
	case errors.Is(err, tasks.ErrNotFound):
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.TaskNotFound)
		return
	case err != nil:
		log.ErrorContext(ctx, "Failed to open task for answer entry",
			"user_id", userID, "instance_id", instanceID, "error", err)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	if inst.Status == database.StatusCompleted {
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.AlreadyDone)
		return
	}

	prompt := answerPrompt(h.deps.Config.Messages, inst.AnswerKind)
	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{{
			Text:         "Cancel",
			CallbackData: Command{Kind: CommandCancelAnswer}.Encode(),
		}}},
	}

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        inst.Title + "\n" + prompt,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send answer prompt", "error", err, "chat_id", chatID)
	}
}

func (h callbackHandler) cancelAnswer(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID, userID int64) {
	had, err := h.deps.Tasks.CancelAnswer(ctx, userID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to cancel answer entry", "user_id", userID, "error", err)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	if had {
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.AnswerCanceled)
	} else {
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.NothingActive)
	}
}

// answerPrompt picks the prompt matching the template's declared answer
// kind.
func answerPrompt(msgs config.MessagesConfig, kind database.AnswerKind) string {
	switch kind {
	case database.AnswerNumber:
		return msgs.PromptNumber
	case database.AnswerPhoto:
		return msgs.PromptPhoto
	case database.AnswerVideo:
		return msgs.PromptVideo
	default:
		return msgs.PromptText
	}
}

// callbackChatID extracts the chat the callback originated from, handling
// inaccessible messages.
func callbackChatID(cq *models.CallbackQuery) int64 {
	if cq.Message.Message != nil {
		return cq.Message.Message.Chat.ID
	}
	if cq.Message.InaccessibleMessage != nil {
		return cq.Message.InaccessibleMessage.Chat.ID
	}
	return cq.From.ID
}
