// Package config provides configuration loading and validation for the
// crewbot application. Values come from a YAML file and CREWBOT_* environment
// variables layered over defaults.
package config

import (
	"time"

	"github.com/go-telegram/bot/models"
)

// Config defines the application configuration for all components of the
// crewbot system: logging, Telegram access, database, the answer-entry
// session store, background jobs, and user-facing message strings.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Session   SessionConfig   `mapstructure:"session"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LogConfig controls log level and output format.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds bot credentials and the admin user.
type TelegramConfig struct {
	Token       string `mapstructure:"token"         validate:"required"`
	AdminUserID int64  `mapstructure:"admin_user_id" validate:"required,gt=0"`

	// BotInfo is populated at startup from GetMe and is not read from config.
	BotInfo *models.User `mapstructure:"-"`
}

// DatabaseConfig holds the SQLite database location.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SessionConfig controls the lifetime of in-flight answer-entry sessions.
// A session past its TTL is reaped by the session_cleanup scheduled job.
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl" validate:"required,min=1m,max=24h"`
}

// SchedulerConfig maps scheduled job names to their cron configuration.
type SchedulerConfig struct {
	Tasks map[string]JobConfig `mapstructure:"tasks"`
}

// JobConfig enables a named scheduled job with a cron expression.
type JobConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// MessagesConfig holds all user-visible message strings so deployments can
// reword them without a rebuild.
type MessagesConfig struct {
	Welcome       string `mapstructure:"welcome"`
	Help          string `mapstructure:"help"`
	NotAuthorized string `mapstructure:"not_authorized"`
	GeneralError  string `mapstructure:"general_error"`
	SaveError     string `mapstructure:"save_error"`

	NoTasks        string `mapstructure:"no_tasks"`
	TasksHeader    string `mapstructure:"tasks_header"`
	TaskNotFound   string `mapstructure:"task_not_found"`
	AlreadyDone    string `mapstructure:"already_done"`
	AnswerSaved    string `mapstructure:"answer_saved"`
	AnswerCanceled string `mapstructure:"answer_canceled"`
	NothingActive  string `mapstructure:"nothing_active"`

	PromptText    string `mapstructure:"prompt_text"`
	PromptNumber  string `mapstructure:"prompt_number"`
	PromptPhoto   string `mapstructure:"prompt_photo"`
	PromptVideo   string `mapstructure:"prompt_video"`
	InvalidText   string `mapstructure:"invalid_text"`
	InvalidNumber string `mapstructure:"invalid_number"`
	InvalidMedia  string `mapstructure:"invalid_media"`

	CleanupDone string `mapstructure:"cleanup_done"`
}
