package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"tasknote/internal/database"
	"tasknote/internal/timeutil"
)

// NewAddTaskHandler creates the default handler: any non-command text is
// run through the extractor and stored as a new pending task. Extraction
// failures degrade to a verbatim undated task inside the extractor, so this
// path always succeeds unless the store itself fails.
func NewAddTaskHandler(deps HandlerDeps) bot.HandlerFunc {
	return addTaskHandler{deps}.Handle
}

type addTaskHandler struct {
	deps HandlerDeps
}

func (h addTaskHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "add_task")
	msgs := h.deps.Config.Messages

	msg := update.Message
	if msg == nil || msg.From == nil {
		log.DebugContext(ctx, "Ignoring update with nil message or sender", "update_id", update.ID)
		return
	}
	chatID := msg.Chat.ID

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		if msg.Text != "" {
			sendReply(ctx, b, log, chatID, msgs.EmptyMessage)
		}
		return
	}

	// Unrecognized commands are not task descriptions.
	if strings.HasPrefix(text, "/") {
		log.DebugContext(ctx, "Ignoring unknown command", "chat_id", chatID, "text", text)
		return
	}

	extraction := h.deps.Gemini.ExtractTask(ctx, text, time.Now())

	task := &database.Task{
		ChatID:      chatID,
		Description: extraction.Description,
		RawText:     text,
		Priority:    extraction.Priority,
	}
	if extraction.DueAt != nil {
		task.DueAt = sql.NullTime{Time: *extraction.DueAt, Valid: true}
	}

	if err := h.deps.Store.CreateTask(ctx, task); err != nil {
		log.ErrorContext(ctx, "Failed to save new task", "error", err, "chat_id", chatID)
		sendReply(ctx, b, log, chatID, msgs.GeneralError)
		return
	}

	log.InfoContext(ctx, "Task created",
		"chat_id", chatID, "task_id", task.ID, "has_due", task.DueAt.Valid, "priority", task.Priority)

	if task.DueAt.Valid {
		sendReply(ctx, b, log, chatID, fmt.Sprintf(msgs.TaskAdded,
			task.ID, task.Description, timeutil.FormatDue(task.DueAt.Time, h.deps.Location)))
	} else {
		sendReply(ctx, b, log, chatID, fmt.Sprintf(msgs.TaskAddedNoDate, task.ID, task.Description))
	}
}
