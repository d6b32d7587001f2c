// Package handlers contains the Telegram command and message handlers,
// along with their registration logic.
package handlers

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
)

// sendReply sends a plain text reply to a chat, logging delivery failures.
func sendReply(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send reply", "error", err, "chat_id", chatID)
	}
}

// parseTaskIDArg extracts the integer task id argument from a command
// message like "/done 42". The second return value reports whether an
// argument was present at all.
func parseTaskIDArg(text string) (int64, bool, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, true, err
	}
	return id, true, nil
}
