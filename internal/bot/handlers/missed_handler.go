package handlers

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewMissedHandler returns a handler for the /missed command, listing the
// chat's pending tasks whose due time has already passed.
func NewMissedHandler(deps HandlerDeps) bot.HandlerFunc {
	return missedHandler{deps}.Handle
}

type missedHandler struct {
	deps HandlerDeps
}

func (h missedHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "missed")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Missed handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	tasks, err := h.deps.Store.ListOverdueTasks(ctx, chatID, time.Now())
	if err != nil {
		log.ErrorContext(ctx, "Failed to list overdue tasks", "error", err, "chat_id", chatID)
		sendReply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	sendReply(ctx, b, log, chatID,
		formatTaskList("Overdue tasks:", tasks, h.deps.Location, h.deps.Config.Messages.NoTasks))
}
