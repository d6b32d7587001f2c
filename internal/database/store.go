package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Sentinel errors returned by task mutations. Callers check them with
// errors.Is to pick the right user-facing reply.
var (
	// ErrTaskNotFound means no visible task with that id exists for the chat.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskAlreadyDone means the task exists but has already been completed.
	ErrTaskAlreadyDone = errors.New("task already done")
)

// Store defines the interface for task persistence. Every query and mutation
// is scoped by the owning chat id; methods accept context.Context for
// cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// CreateTask inserts a new pending task and fills in its generated ID.
	CreateTask(ctx context.Context, task *Task) error

	// MarkTaskDone atomically moves a pending task to done and returns it.
	// Returns ErrTaskNotFound if no task with that id belongs to the chat
	// (or it was deleted), ErrTaskAlreadyDone if it was done already.
	MarkTaskDone(ctx context.Context, chatID, taskID int64) (*Task, error)

	// DeleteTask atomically soft-deletes a pending task and returns it.
	// Deleting an already-deleted task is a no-op success. Done tasks are
	// not deletable and return ErrTaskAlreadyDone. Returns ErrTaskNotFound
	// if no task with that id belongs to the chat.
	DeleteTask(ctx context.Context, chatID, taskID int64) (*Task, error)

	// ListTasksDueBetween returns the chat's pending tasks with a due time
	// in [start, end), ordered by due time then id.
	ListTasksDueBetween(ctx context.Context, chatID int64, start, end time.Time) ([]Task, error)

	// ListOverdueTasks returns the chat's pending tasks due strictly before
	// now, ordered by due time then id.
	ListOverdueTasks(ctx context.Context, chatID int64, now time.Time) ([]Task, error)

	// ListUndatedTasks returns the chat's pending tasks without a due time,
	// ordered by creation time then id.
	ListUndatedTasks(ctx context.Context, chatID int64) ([]Task, error)

	// ListPendingTasks returns all of the chat's pending tasks, ordered by
	// due time ascending with undated tasks last, then id.
	ListPendingTasks(ctx context.Context, chatID int64) ([]Task, error)

	// ListChatIDs returns every distinct chat id known to the store.
	ListChatIDs(ctx context.Context) ([]int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const taskColumns = `id, created_at, updated_at, chat_id, description, raw_text, due_at, priority, status`

// CreateTask inserts a new pending task record.
func (s *sqlxStore) CreateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return fmt.Errorf("cannot save nil task")
	}
	if task.ChatID == 0 {
		return fmt.Errorf("task must have a non-zero chat_id")
	}

	task.Description = strings.TrimSpace(task.Description)
	if task.Description == "" {
		return fmt.Errorf("task must have a non-empty description")
	}
	if task.Priority != PriorityHigh {
		task.Priority = PriorityNormal
	}
	task.Status = StatusPending

	// Whole-second UTC keeps the stored text form lexicographically
	// comparable with query bounds.
	now := time.Now().UTC().Truncate(time.Second)
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.DueAt.Valid {
		task.DueAt.Time = task.DueAt.Time.UTC().Truncate(time.Second)
	}

	query := `
        INSERT INTO tasks (created_at, updated_at, chat_id, description, raw_text, due_at, priority, status)
        VALUES (:created_at, :updated_at, :chat_id, :description, :raw_text, :due_at, :priority, :status);
    `

	result, err := s.db.NamedExecContext(ctx, query, task)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving task", "chat_id", task.ChatID, "error", err)
		return fmt.Errorf("failed to save task for chat %d: %w", task.ChatID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving task",
			"chat_id", task.ChatID, "error", err)
	} else {
		task.ID = id
	}

	s.logger.DebugContext(ctx, "Task saved successfully",
		"chat_id", task.ChatID, "task_id", task.ID, "has_due", task.DueAt.Valid)
	return nil
}

// MarkTaskDone atomically transitions a pending task to done.
// The update is guarded by chat_id and status so concurrent duplicate
// commands cannot double-apply.
func (s *sqlxStore) MarkTaskDone(ctx context.Context, chatID, taskID int64) (*Task, error) {
	return s.transition(ctx, chatID, taskID, StatusDone)
}

// DeleteTask atomically soft-deletes a pending task. Repeating the delete on
// an already-deleted task succeeds without changing anything.
func (s *sqlxStore) DeleteTask(ctx context.Context, chatID, taskID int64) (*Task, error) {
	return s.transition(ctx, chatID, taskID, StatusDeleted)
}

// transition applies a pending -> target status change as a single guarded
// update, then resolves what actually happened when no row was touched.
func (s *sqlxStore) transition(ctx context.Context, chatID, taskID int64, target string) (*Task, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for status change",
			"chat_id", chatID, "task_id", taskID, "error", err)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	result, err := tx.ExecContext(ctx,
		`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ? AND chat_id = ? AND status = ?`,
		target, time.Now().UTC().Truncate(time.Second), taskID, chatID, StatusPending)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating task status",
			"chat_id", chatID, "task_id", taskID, "target", target, "error", err)
		return nil, fmt.Errorf("failed to update task %d: %w", taskID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows for task %d: %w", taskID, err)
	}

	var task Task
	if affected == 0 {
		// Nothing was pending; figure out whether the task is missing,
		// already done, or already deleted.
		err = tx.GetContext(ctx, &task,
			`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND chat_id = ?`, taskID, chatID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrTaskNotFound
		case err != nil:
			s.logger.ErrorContext(ctx, "Error resolving task after no-op update",
				"chat_id", chatID, "task_id", taskID, "error", err)
			return nil, fmt.Errorf("failed to load task %d: %w", taskID, err)
		}

		switch task.Status {
		case StatusDone:
			return &task, ErrTaskAlreadyDone
		case StatusDeleted:
			if target == StatusDeleted {
				// Deleting twice is a no-op success.
				if err := tx.Commit(); err != nil {
					return nil, fmt.Errorf("failed to commit transaction: %w", err)
				}
				tx = nil
				return &task, nil
			}
			return nil, ErrTaskNotFound
		default:
			return nil, fmt.Errorf("task %d in unexpected status %q", taskID, task.Status)
		}
	}

	err = tx.GetContext(ctx, &task,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND chat_id = ?`, taskID, chatID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error loading task after status change",
			"chat_id", chatID, "task_id", taskID, "error", err)
		return nil, fmt.Errorf("failed to load task %d: %w", taskID, err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction",
			"chat_id", chatID, "task_id", taskID, "error", err)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Task status changed",
		"chat_id", chatID, "task_id", taskID, "status", target)
	return &task, nil
}

// ListTasksDueBetween returns pending tasks with a due time in [start, end).
func (s *sqlxStore) ListTasksDueBetween(ctx context.Context, chatID int64, start, end time.Time) ([]Task, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}

	var tasks []Task
	query := `
        SELECT ` + taskColumns + `
        FROM tasks
        WHERE chat_id = ? AND status = ? AND due_at IS NOT NULL AND due_at >= ? AND due_at < ?
        ORDER BY due_at ASC, id ASC;
    `
	err := s.db.SelectContext(ctx, &tasks, query, chatID, StatusPending,
		start.UTC().Truncate(time.Second), end.UTC().Truncate(time.Second))
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing tasks due in range", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to list tasks due between %s and %s for chat %d: %w", start, end, chatID, err)
	}

	return tasks, nil
}

// ListOverdueTasks returns pending tasks due strictly before now.
func (s *sqlxStore) ListOverdueTasks(ctx context.Context, chatID int64, now time.Time) ([]Task, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}

	var tasks []Task
	query := `
        SELECT ` + taskColumns + `
        FROM tasks
        WHERE chat_id = ? AND status = ? AND due_at IS NOT NULL AND due_at < ?
        ORDER BY due_at ASC, id ASC;
    `
	err := s.db.SelectContext(ctx, &tasks, query, chatID, StatusPending, now.UTC().Truncate(time.Second))
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing overdue tasks", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to list overdue tasks for chat %d: %w", chatID, err)
	}

	return tasks, nil
}

// ListUndatedTasks returns pending tasks without a due time.
func (s *sqlxStore) ListUndatedTasks(ctx context.Context, chatID int64) ([]Task, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}

	var tasks []Task
	query := `
        SELECT ` + taskColumns + `
        FROM tasks
        WHERE chat_id = ? AND status = ? AND due_at IS NULL
        ORDER BY created_at ASC, id ASC;
    `
	err := s.db.SelectContext(ctx, &tasks, query, chatID, StatusPending)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing undated tasks", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to list undated tasks for chat %d: %w", chatID, err)
	}

	return tasks, nil
}

// ListPendingTasks returns all pending tasks for a chat, dated tasks first
// in due order, undated tasks last, ties broken by id.
func (s *sqlxStore) ListPendingTasks(ctx context.Context, chatID int64) ([]Task, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("chat_id cannot be zero")
	}

	var tasks []Task
	query := `
        SELECT ` + taskColumns + `
        FROM tasks
        WHERE chat_id = ? AND status = ?
        ORDER BY due_at IS NULL ASC, due_at ASC, id ASC;
    `
	err := s.db.SelectContext(ctx, &tasks, query, chatID, StatusPending)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing pending tasks", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to list pending tasks for chat %d: %w", chatID, err)
	}

	return tasks, nil
}

// ListChatIDs returns every distinct chat id that has ever created a task.
// Used by the daily summary job to enumerate recipients.
func (s *sqlxStore) ListChatIDs(ctx context.Context) ([]int64, error) {
	var chatIDs []int64
	err := s.db.SelectContext(ctx, &chatIDs, `SELECT DISTINCT chat_id FROM tasks ORDER BY chat_id ASC;`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error listing chat ids", "error", err)
		return nil, fmt.Errorf("failed to list chat ids: %w", err)
	}

	return chatIDs, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
