package database

import (
	"database/sql"
	"time"
)

// Task statuses. A task starts pending and moves to done or deleted exactly
// once; deleted is a soft delete and rows are never purged.
const (
	StatusPending = "pending"
	StatusDone    = "done"
	StatusDeleted = "deleted"
)

// Task priorities.
const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Task represents a to-do item owned by a single chat. DueAt is absent for
// "no date" tasks. All timestamps are stored in UTC.
type Task struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	ChatID      int64        `db:"chat_id"`
	Description string       `db:"description"`
	RawText     string       `db:"raw_text"`
	DueAt       sql.NullTime `db:"due_at"`
	Priority    string       `db:"priority"`
	Status      string       `db:"status"`
}
