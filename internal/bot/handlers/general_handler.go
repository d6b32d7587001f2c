package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewGeneralHandler returns a handler for the /general command, listing the
// chat's pending tasks that have no due date.
func NewGeneralHandler(deps HandlerDeps) bot.HandlerFunc {
	return generalHandler{deps}.Handle
}

type generalHandler struct {
	deps HandlerDeps
}

func (h generalHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "general")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "General handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	tasks, err := h.deps.Store.ListUndatedTasks(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list undated tasks", "error", err, "chat_id", chatID)
		sendReply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	sendReply(ctx, b, log, chatID,
		formatTaskList("Tasks without a date:", tasks, h.deps.Location, h.deps.Config.Messages.NoTasks))
}
