package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler represents a command handler together with the
// registration details and middleware it needs.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands initializes and returns a map of all available bot
// commands. Free text is handled by the default handler (NewAddTaskHandler),
// registered separately as a bot option.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	command := func(pattern string, handler tgbot.HandlerFunc) RegisteredHandler {
		return RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     pattern,
			Handler:     handler,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
		}
	}

	handlers["/start"] = command("start", NewStartHandler(deps))
	handlers["/help"] = command("help", NewHelpHandler(deps))
	handlers["/today"] = command("today", NewTodayHandler(deps))
	handlers["/all"] = command("all", NewAllHandler(deps))
	handlers["/missed"] = command("missed", NewMissedHandler(deps))
	handlers["/general"] = command("general", NewGeneralHandler(deps))
	handlers["/done"] = command("done", NewDoneHandler(deps))
	handlers["/delete"] = command("delete", NewDeleteHandler(deps))

	return handlers
}
