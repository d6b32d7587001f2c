// Package tasks implements the bot's scheduled background jobs: the daily
// task summary broadcast and periodic database maintenance.
package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"tasknote/internal/config"
	"tasknote/internal/database"
)

// MessageSender is the slice of the Telegram client that scheduled tasks
// need. *bot.Bot satisfies it.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Store    database.Store
	Config   *config.Config
	Sender   MessageSender
	Location *time.Location
}
