package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"tasknote/internal/database"
)

// NewDeleteHandler returns a handler for the /delete <id> command.
// Deleting is a soft delete and is idempotent: repeating it on an
// already-deleted task reports success again.
func NewDeleteHandler(deps HandlerDeps) bot.HandlerFunc {
	return deleteHandler{deps}.Handle
}

type deleteHandler struct {
	deps HandlerDeps
}

func (h deleteHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "delete")
	msgs := h.deps.Config.Messages

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Delete handler received update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := update.Message.Chat.ID

	taskID, hasArg, err := parseTaskIDArg(update.Message.Text)
	if !hasArg {
		sendReply(ctx, b, log, chatID, msgs.UsageDelete)
		return
	}
	if err != nil {
		sendReply(ctx, b, log, chatID, msgs.InvalidTaskID)
		return
	}

	task, err := h.deps.Store.DeleteTask(ctx, chatID, taskID)
	switch {
	case errors.Is(err, database.ErrTaskNotFound):
		log.InfoContext(ctx, "Delete requested for unknown task", "chat_id", chatID, "task_id", taskID)
		sendReply(ctx, b, log, chatID, msgs.TaskNotFound)
	case errors.Is(err, database.ErrTaskAlreadyDone):
		sendReply(ctx, b, log, chatID, fmt.Sprintf(msgs.TaskAlreadyDone, taskID))
	case err != nil:
		log.ErrorContext(ctx, "Failed to delete task", "error", err, "chat_id", chatID, "task_id", taskID)
		sendReply(ctx, b, log, chatID, msgs.GeneralError)
	default:
		log.InfoContext(ctx, "Task deleted", "chat_id", chatID, "task_id", task.ID)
		sendReply(ctx, b, log, chatID, fmt.Sprintf(msgs.TaskDeleted, task.ID, task.Description))
	}
}
