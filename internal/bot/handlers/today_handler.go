package handlers

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"tasknote/internal/timeutil"
)

// NewTodayHandler returns a handler for the /today command, listing the
// chat's pending tasks due within the current day in the configured timezone.
func NewTodayHandler(deps HandlerDeps) bot.HandlerFunc {
	return todayHandler{deps}.Handle
}

type todayHandler struct {
	deps HandlerDeps
}

func (h todayHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "today")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Today handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	start, end := timeutil.DayBounds(time.Now(), h.deps.Location)
	tasks, err := h.deps.Store.ListTasksDueBetween(ctx, chatID, start, end)
	if err != nil {
		log.ErrorContext(ctx, "Failed to list today's tasks", "error", err, "chat_id", chatID)
		sendReply(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	sendReply(ctx, b, log, chatID,
		formatTaskList("Tasks due today:", tasks, h.deps.Location, h.deps.Config.Messages.NoTasks))
}
