// Package config provides configuration loading, validation, and management
// for the bot. Values come from defaults, an optional YAML file, and BOT_*
// environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config defines the application configuration parameters for all
// components: logging, Telegram transport, the Gemini extractor, the
// database, the scheduler, and user-facing reply texts.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls the slog handler.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the bot credential.
type TelegramConfig struct {
	Token string `mapstructure:"token" validate:"required"`
}

// GeminiConfig holds settings for the Gemini task extractor.
type GeminiConfig struct {
	APIKey            string        `mapstructure:"api_key"             validate:"required"`
	ModelName         string        `mapstructure:"model_name"          validate:"required"`
	Temperature       float32       `mapstructure:"temperature"         validate:"min=0,max=2"`
	Timeout           time.Duration `mapstructure:"timeout"             validate:"min=1s,max=10m"`
	MaxRetries        int           `mapstructure:"max_retries"         validate:"min=0,max=5"`
	RetryDelaySeconds int           `mapstructure:"retry_delay_seconds" validate:"min=0,max=60"`
}

// DatabaseConfig holds the SQLite database location.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SchedulerConfig configures the job scheduler. Timezone applies to all
// cron schedules and to every day-boundary computation in the bot.
type SchedulerConfig struct {
	Timezone string                `mapstructure:"timezone" validate:"required"`
	Tasks    map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig configures a single scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// MessagesConfig holds the user-facing reply texts.
type MessagesConfig struct {
	Welcome         string `mapstructure:"welcome"`
	Help            string `mapstructure:"help"`
	GeneralError    string `mapstructure:"general_error"`
	EmptyMessage    string `mapstructure:"empty_message"`
	TaskAdded       string `mapstructure:"task_added"`
	TaskAddedNoDate string `mapstructure:"task_added_no_date"`
	TaskNotFound    string `mapstructure:"task_not_found"`
	TaskAlreadyDone string `mapstructure:"task_already_done"`
	TaskDone        string `mapstructure:"task_done"`
	TaskDeleted     string `mapstructure:"task_deleted"`
	UsageDone       string `mapstructure:"usage_done"`
	UsageDelete     string `mapstructure:"usage_delete"`
	InvalidTaskID   string `mapstructure:"invalid_task_id"`
	NoTasks         string `mapstructure:"no_tasks"`
}

// LoadConfig reads configuration from the given YAML file (optional), applies
// BOT_* environment variable overrides, and validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about. The two
	// credentials have no default, so bind them explicitly to keep
	// BOT_TELEGRAM_TOKEN and BOT_GEMINI_API_KEY working without a file.
	for _, key := range []string{"telegram.token", "gemini.api_key"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %q: %w", key, err)
		}
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
		// Missing file is fine: defaults plus environment variables apply.
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	if _, err := time.LoadLocation(cfg.Scheduler.Timezone); err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Scheduler.Timezone, err)
	}

	return cfg, nil
}

// Location resolves the configured timezone. LoadConfig guarantees it parses.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", false)

	v.SetDefault("gemini.model_name", "gemini-2.0-flash")
	v.SetDefault("gemini.temperature", 0.2)
	v.SetDefault("gemini.timeout", 30*time.Second)
	v.SetDefault("gemini.max_retries", 1)
	v.SetDefault("gemini.retry_delay_seconds", 2)

	v.SetDefault("database.path", "tasks.db")

	v.SetDefault("scheduler.timezone", "Europe/Vienna")
	v.SetDefault("scheduler.tasks", map[string]TaskConfig{
		"daily_summary":   {Enabled: true, Schedule: "0 0 7 * * *"},
		"sql_maintenance": {Enabled: true, Schedule: "0 30 4 * * *"},
	})

	v.SetDefault("messages.welcome", "Welcome to the to-do bot! Send me a task in plain language and I'll remember it. Use /help to see the commands.")
	v.SetDefault("messages.help", "Commands:\n/today - tasks due today\n/all - all pending tasks\n/missed - overdue tasks\n/general - tasks without a date\n/done <id> - mark a task as done\n/delete <id> - delete a task\n\nAny other text creates a new task.")
	v.SetDefault("messages.general_error", "Something went wrong. Please try again later.")
	v.SetDefault("messages.empty_message", "Please send a task description.")
	v.SetDefault("messages.task_added", "Added task #%d: %s (due %s)")
	v.SetDefault("messages.task_added_no_date", "Added task #%d: %s (no due date)")
	v.SetDefault("messages.task_not_found", "Task not found.")
	v.SetDefault("messages.task_already_done", "Task #%d is already done.")
	v.SetDefault("messages.task_done", "Marked task #%d as done: %s")
	v.SetDefault("messages.task_deleted", "Deleted task #%d: %s")
	v.SetDefault("messages.usage_done", "Usage: /done <task id>")
	v.SetDefault("messages.usage_delete", "Usage: /delete <task id>")
	v.SetDefault("messages.invalid_task_id", "The task id must be a number.")
	v.SetDefault("messages.no_tasks", "No tasks found.")
}
