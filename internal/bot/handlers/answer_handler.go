package handlers

import (
	"context"
	"errors"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/crewtask/crewbot/internal/database"
	"github.com/crewtask/crewbot/internal/tasks"
)

// NewAnswerHandler returns the default message handler. When the sender has
// an answer-entry session open, the incoming message is interpreted as the
// typed answer for that task; otherwise the message is ignored.
func NewAnswerHandler(deps HandlerDeps) bot.HandlerFunc {
	return answerHandler{deps}.Handle
}

type answerHandler struct {
	deps HandlerDeps
}

func (h answerHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "answer")

	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	session, err := h.deps.Tasks.ActiveSession(ctx, userID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to look up answer session", "user_id", userID, "error", err)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}
	if session == nil {
		// Not in answer entry; nothing for the engine to do with this message.
		return
	}

	payload := payloadFromMessage(update.Message, session.AnswerKind)

	result, err := h.deps.Tasks.SubmitAnswer(ctx, session.InstanceID, userID, payload)
	switch {
	case errors.Is(err, tasks.ErrValidation):
		// Re-prompt in place; the session stays open and the instance is
		// untouched.
		sendText(ctx, b, log, chatID, validationReply(h.deps, session.AnswerKind))
		return

	case errors.Is(err, tasks.ErrNotFound):
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.TaskNotFound)
		return

	case err != nil:
		log.ErrorContext(ctx, "Failed to submit answer",
			"user_id", userID, "instance_id", session.InstanceID, "error", err)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.SaveError)
		return
	}

	if result == tasks.SubmitAlreadyDone {
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.AlreadyDone)
		return
	}

	sendText(ctx, b, log, chatID, h.deps.Config.Messages.AnswerSaved)
}

// payloadFromMessage maps the Telegram message content onto a typed answer
// payload. Attachments win over text; the largest photo rendition is kept
// as the media reference. Plain text is presented as a number payload when
// the session expects one, so the engine parses it instead of rejecting the
// kind outright.
func payloadFromMessage(msg *models.Message, expected database.AnswerKind) tasks.AnswerPayload {
	if len(msg.Photo) > 0 {
		largest := msg.Photo[len(msg.Photo)-1]
		return tasks.AnswerPayload{Kind: database.AnswerPhoto, MediaRef: largest.FileID}
	}
	if msg.Video != nil {
		return tasks.AnswerPayload{Kind: database.AnswerVideo, MediaRef: msg.Video.FileID}
	}

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	kind := database.AnswerText
	if expected == database.AnswerNumber {
		kind = database.AnswerNumber
	}
	return tasks.AnswerPayload{Kind: kind, Value: text}
}

// validationReply picks the corrective message for the kind the template
// expects.
func validationReply(deps HandlerDeps, expected database.AnswerKind) string {
	switch expected {
	case database.AnswerNumber:
		return deps.Config.Messages.InvalidNumber
	case database.AnswerPhoto, database.AnswerVideo:
		return deps.Config.Messages.InvalidMedia
	default:
		return deps.Config.Messages.InvalidText
	}
}
