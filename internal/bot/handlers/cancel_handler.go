package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewCancelHandler returns a handler for the /cancel command, which
// discards the user's in-progress answer entry without touching the task
// instance.
func NewCancelHandler(deps HandlerDeps) bot.HandlerFunc {
	return cancelHandler{deps}.Handle
}

type cancelHandler struct {
	deps HandlerDeps
}

func (h cancelHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "cancel")

	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

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
