package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewCleanupHandler returns a handler for the admin-only /crew_cleanup
// command, which purges expired answer sessions immediately instead of
// waiting for the scheduled job.
func NewCleanupHandler(deps HandlerDeps) bot.HandlerFunc {
	return cleanupHandler{deps}.Handle
}

type cleanupHandler struct {
	deps HandlerDeps
}

func (h cleanupHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "cleanup")

	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID

	removed, err := h.deps.Store.DeleteExpiredAnswerSessions(ctx, time.Now().UTC())
	if err != nil {
		log.ErrorContext(ctx, "Failed to delete expired answer sessions", "error", err)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	log.InfoContext(ctx, "Expired answer sessions removed on demand", "count", removed)
	sendText(ctx, b, log, chatID, fmt.Sprintf(h.deps.Config.Messages.CleanupDone, removed))
}
