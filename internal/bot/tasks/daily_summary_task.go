package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"

	"tasknote/internal/database"
	"tasknote/internal/timeutil"
)

// newDailySummaryTask creates the scheduled task that sends every known chat
// a morning digest of its pending tasks, split into tasks due today, overdue
// tasks, and tasks without a due date. A delivery or query failure for one
// chat is logged and does not stop the broadcast to the remaining chats.
func newDailySummaryTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "daily_summary")

	return func(ctx context.Context) error {
		log.InfoContext(ctx, "Starting daily summary broadcast")
		startTime := time.Now()

		chatIDs, err := deps.Store.ListChatIDs(ctx)
		if err != nil {
			log.ErrorContext(ctx, "Failed to list chats for daily summary", "error", err)
			return fmt.Errorf("listing chats for daily summary: %w", err)
		}

		now := time.Now()
		var failures int
		for _, chatID := range chatIDs {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			text, err := buildSummary(ctx, deps, chatID, now)
			if err != nil {
				log.ErrorContext(ctx, "Failed to build daily summary", "error", err, "chat_id", chatID)
				failures++
				continue
			}

			if _, err := deps.Sender.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: chatID,
				Text:   text,
			}); err != nil {
				log.ErrorContext(ctx, "Failed to deliver daily summary", "error", err, "chat_id", chatID)
				failures++
				continue
			}
		}

		log.InfoContext(ctx, "Daily summary broadcast completed",
			"chats", len(chatIDs), "failures", failures, "duration", time.Since(startTime))
		return nil
	}
}

// buildSummary assembles one chat's digest. All three categories are
// evaluated against the same reference time so they stay disjoint: a task
// due earlier today counts as today's, not overdue.
func buildSummary(ctx context.Context, deps TaskDeps, chatID int64, now time.Time) (string, error) {
	dayStart, dayEnd := timeutil.DayBounds(now, deps.Location)

	today, err := deps.Store.ListTasksDueBetween(ctx, chatID, dayStart, dayEnd)
	if err != nil {
		return "", fmt.Errorf("listing today's tasks: %w", err)
	}
	overdue, err := deps.Store.ListOverdueTasks(ctx, chatID, dayStart)
	if err != nil {
		return "", fmt.Errorf("listing overdue tasks: %w", err)
	}
	undated, err := deps.Store.ListUndatedTasks(ctx, chatID)
	if err != nil {
		return "", fmt.Errorf("listing undated tasks: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Good morning! Task summary for %s\n", now.In(deps.Location).Format("Monday, 2 January 2006"))
	writeSummarySection(&sb, "Due today:", today, deps.Location)
	writeSummarySection(&sb, "Overdue:", overdue, deps.Location)
	writeSummarySection(&sb, "No due date:", undated, deps.Location)

	return strings.TrimRight(sb.String(), "\n"), nil
}

func writeSummarySection(sb *strings.Builder, header string, tasks []database.Task, loc *time.Location) {
	sb.WriteString("\n")
	sb.WriteString(header)
	sb.WriteString("\n")

	if len(tasks) == 0 {
		sb.WriteString("None\n")
		return
	}
	for _, t := range tasks {
		line := fmt.Sprintf("#%d %s", t.ID, t.Description)
		if t.DueAt.Valid {
			line += fmt.Sprintf(" (due %s)", timeutil.FormatDue(t.DueAt.Time, loc))
		}
		if t.Priority == database.PriorityHigh {
			line += " [high]"
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
}
