package tasks_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"tasknote/internal/bot/tasks"
	"tasknote/internal/config"
	"tasknote/internal/database"
)

type fakeStore struct {
	database.Store

	chatIDs     []int64
	today       map[int64][]database.Task
	overdue     map[int64][]database.Task
	undated     map[int64][]database.Task
	maintenance int
}

func (f *fakeStore) ListChatIDs(_ context.Context) ([]int64, error) {
	return f.chatIDs, nil
}

func (f *fakeStore) ListTasksDueBetween(_ context.Context, chatID int64, _, _ time.Time) ([]database.Task, error) {
	return f.today[chatID], nil
}

func (f *fakeStore) ListOverdueTasks(_ context.Context, chatID int64, _ time.Time) ([]database.Task, error) {
	return f.overdue[chatID], nil
}

func (f *fakeStore) ListUndatedTasks(_ context.Context, chatID int64) ([]database.Task, error) {
	return f.undated[chatID], nil
}

func (f *fakeStore) RunSQLMaintenance(_ context.Context) error {
	f.maintenance++
	return nil
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	failFor map[int64]bool
	sent    []sentMessage
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	chatID, _ := params.ChatID.(int64)
	if f.failFor[chatID] {
		return nil, fmt.Errorf("chat %d unreachable", chatID)
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: params.Text})
	return &models.Message{}, nil
}

func pendingTask(id int64, description string, dueAt *time.Time, priority string) database.Task {
	task := database.Task{
		ID:          id,
		Description: description,
		Priority:    priority,
		Status:      database.StatusPending,
	}
	if dueAt != nil {
		task.DueAt = sql.NullTime{Time: *dueAt, Valid: true}
	}
	return task
}

func newTaskDeps(store database.Store, sender tasks.MessageSender) tasks.TaskDeps {
	return tasks.TaskDeps{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:    store,
		Config:   &config.Config{},
		Sender:   sender,
		Location: time.UTC,
	}
}

func TestDailySummaryCategorizesTasks(t *testing.T) {
	t.Parallel()

	dueToday := time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)
	dueYesterday := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	store := &fakeStore{
		chatIDs: []int64{10},
		today: map[int64][]database.Task{
			10: {pendingTask(1, "Dinner with parents", &dueToday, database.PriorityNormal)},
		},
		overdue: map[int64][]database.Task{
			10: {pendingTask(2, "Pay rent", &dueYesterday, database.PriorityHigh)},
		},
		undated: map[int64][]database.Task{
			10: {pendingTask(3, "Read that book", nil, database.PriorityNormal)},
		},
	}
	sender := &fakeSender{}

	run := tasks.RegisterAllTasks(newTaskDeps(store, sender))["daily_summary"]
	if err := run(context.Background()); err != nil {
		t.Fatalf("daily summary task: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.chatID != 10 {
		t.Errorf("chat id = %d, want 10", msg.chatID)
	}

	for _, want := range []string{
		"Due today:", "Overdue:", "No due date:",
		"#1 Dinner with parents",
		"#2 Pay rent", "[high]",
		"#3 Read that book",
	} {
		if !strings.Contains(msg.text, want) {
			t.Errorf("summary missing %q:\n%s", want, msg.text)
		}
	}
	if strings.Contains(msg.text, "None") {
		t.Errorf("summary has a None section despite all categories populated:\n%s", msg.text)
	}
}

func TestDailySummaryEmptySectionsSayNone(t *testing.T) {
	t.Parallel()

	store := &fakeStore{chatIDs: []int64{20}}
	sender := &fakeSender{}

	run := tasks.RegisterAllTasks(newTaskDeps(store, sender))["daily_summary"]
	if err := run(context.Background()); err != nil {
		t.Fatalf("daily summary task: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	if got := strings.Count(sender.sent[0].text, "None"); got != 3 {
		t.Errorf("summary has %d None sections, want 3:\n%s", got, sender.sent[0].text)
	}
}

func TestDailySummaryContinuesAfterDeliveryFailure(t *testing.T) {
	t.Parallel()

	store := &fakeStore{chatIDs: []int64{10, 20, 30}}
	sender := &fakeSender{failFor: map[int64]bool{20: true}}

	run := tasks.RegisterAllTasks(newTaskDeps(store, sender))["daily_summary"]
	if err := run(context.Background()); err != nil {
		t.Fatalf("daily summary task: %v", err)
	}

	if len(sender.sent) != 2 {
		t.Fatalf("sent %d messages, want 2 (one chat unreachable)", len(sender.sent))
	}
	if sender.sent[0].chatID != 10 || sender.sent[1].chatID != 30 {
		t.Errorf("delivered to chats %d and %d, want 10 and 30",
			sender.sent[0].chatID, sender.sent[1].chatID)
	}
}

type cancellingSender struct {
	cancel context.CancelFunc
	sent   int
}

func (c *cancellingSender) SendMessage(_ context.Context, _ *bot.SendMessageParams) (*models.Message, error) {
	c.sent++
	c.cancel()
	return &models.Message{}, nil
}

func TestDailySummaryStopsWhenCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &fakeStore{chatIDs: []int64{10, 20, 30}}
	sender := &cancellingSender{cancel: cancel}

	run := tasks.RegisterAllTasks(newTaskDeps(store, sender))["daily_summary"]
	err := run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if sender.sent != 1 {
		t.Errorf("sent %d messages after cancellation, want 1", sender.sent)
	}
}

func TestSQLMaintenanceTaskRunsStoreMaintenance(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	run := tasks.RegisterAllTasks(newTaskDeps(store, &fakeSender{}))["sql_maintenance"]
	if err := run(context.Background()); err != nil {
		t.Fatalf("sql maintenance task: %v", err)
	}
	if store.maintenance != 1 {
		t.Errorf("RunSQLMaintenance called %d times, want 1", store.maintenance)
	}
}
