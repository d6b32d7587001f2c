package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewAllHandler returns a handler for the /all command, listing every
// pending task for the chat with dated tasks first and undated tasks last.
func NewAllHandler(deps HandlerDeps) bot.HandlerFunc {
	return allHandler{deps}.Handle
}

type allHandler struct {
	deps HandlerDeps
}

func (h allHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "all")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "All handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	tasks, err := h.deps.Store.ListPendingTasks(ctx, chatID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list pending tasks", "error", err, "chat_id", chatID)
		sendReply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	sendReply(ctx, b, log, chatID,
		formatTaskList("All pending tasks:", tasks, h.deps.Location, h.deps.Config.Messages.NoTasks))
}
