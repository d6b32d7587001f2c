package handlers

import (
	"log/slog"
	"time"

	"tasknote/internal/config"
	"tasknote/internal/database"
	"tasknote/internal/gemini"
)

// HandlerDeps provides dependencies for Telegram command handlers.
// Location is the configured timezone; every day-boundary computation uses
// it explicitly instead of the process default.
type HandlerDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    database.Store
	Gemini   gemini.Client
	Location *time.Location
}
