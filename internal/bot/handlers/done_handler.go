package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"tasknote/internal/database"
)

// NewDoneHandler returns a handler for the /done <id> command.
func NewDoneHandler(deps HandlerDeps) bot.HandlerFunc {
	return doneHandler{deps}.Handle
}

type doneHandler struct {
	deps HandlerDeps
}

func (h doneHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "done")
	msgs := h.deps.Config.Messages

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Done handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	taskID, hasArg, err := parseTaskIDArg(update.Message.Text)
	if !hasArg {
		sendReply(ctx, b, log, chatID, msgs.UsageDone)
		return
	}
	if err != nil {
		sendReply(ctx, b, log, chatID, msgs.InvalidTaskID)
		return
	}

	task, err := h.deps.Store.MarkTaskDone(ctx, chatID, taskID)
	switch {
	case errors.Is(err, database.ErrTaskNotFound):
		log.InfoContext(ctx, "Done requested for unknown task", "chat_id", chatID, "task_id", taskID)
		sendReply(ctx, b, log, chatID, msgs.TaskNotFound)
	case errors.Is(err, database.ErrTaskAlreadyDone):
		sendReply(ctx, b, log, chatID, fmt.Sprintf(msgs.TaskAlreadyDone, taskID))
	case err != nil:
		log.ErrorContext(ctx, "Failed to mark task done", "error", err, "chat_id", chatID, "task_id", taskID)
		sendReply(ctx, b, log, chatID, msgs.GeneralError)
	default:
		log.InfoContext(ctx, "Task marked done", "chat_id", chatID, "task_id", task.ID)
		sendReply(ctx, b, log, chatID, fmt.Sprintf(msgs.TaskDone, task.ID, task.Description))
	}
}
