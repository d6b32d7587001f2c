package handlers

import (
	"fmt"
	"strings"
	"time"

	"tasknote/internal/database"
	"tasknote/internal/timeutil"
)

// formatTaskLine renders a single task for list output.
func formatTaskLine(task database.Task, loc *time.Location) string {
	due := "no due date"
	if task.DueAt.Valid {
		due = "due " + timeutil.FormatDue(task.DueAt.Time, loc)
	}

	line := fmt.Sprintf("#%d %s — %s", task.ID, task.Description, due)
	if task.Priority == database.PriorityHigh {
		line += " [high]"
	}
	return line
}

// formatTaskList renders a headed task list, or the emptyText when there is
// nothing to show.
func formatTaskList(header string, tasks []database.Task, loc *time.Location, emptyText string) string {
	if len(tasks) == 0 {
		return header + "\n\n" + emptyText
	}

	lines := make([]string, 0, len(tasks)+1)
	lines = append(lines, header)
	for _, task := range tasks {
		lines = append(lines, formatTaskLine(task, loc))
	}
	return strings.Join(lines, "\n")
}
