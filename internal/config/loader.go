package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// LoadConfig reads configuration from the given YAML file, layers CREWBOT_*
// environment variables on top, applies defaults for optional fields, and
// validates the result. A missing config file is not an error; defaults and
// environment variables are used instead.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvPrefix("CREWBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("database.path", "crewbot.db")

	v.SetDefault("session.ttl", 30*time.Minute)

	v.SetDefault("scheduler.tasks.session_cleanup.enabled", true)
	v.SetDefault("scheduler.tasks.session_cleanup.schedule", "*/10 * * * *")
	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", "0 4 * * *")

	v.SetDefault("messages.welcome", "Hi! I track your shift checklists. Use /tasks to see what is due today.")
	v.SetDefault("messages.help", "/tasks - show today's checklist\n/cancel - discard the answer you are typing")
	v.SetDefault("messages.not_authorized", "You are not authorized to use this command.")
	v.SetDefault("messages.general_error", "Something went wrong. Please try again.")
	v.SetDefault("messages.save_error", "Could not save, try again.")

	v.SetDefault("messages.no_tasks", "Nothing due today. Enjoy your shift!")
	v.SetDefault("messages.tasks_header", "Today's checklist:")
	v.SetDefault("messages.task_not_found", "Task not found.")
	v.SetDefault("messages.already_done", "Already done.")
	v.SetDefault("messages.answer_saved", "Saved. Task marked as done.")
	v.SetDefault("messages.answer_canceled", "Canceled.")
	v.SetDefault("messages.nothing_active", "You have no answer in progress.")

	v.SetDefault("messages.prompt_text", "Reply with a short text answer.")
	v.SetDefault("messages.prompt_number", "Reply with a number.")
	v.SetDefault("messages.prompt_photo", "Reply with a photo.")
	v.SetDefault("messages.prompt_video", "Reply with a video.")
	v.SetDefault("messages.invalid_text", "The answer must be non-empty text. Try again.")
	v.SetDefault("messages.invalid_number", "That is not a number I can read. Try again, e.g. 3 or 2,5.")
	v.SetDefault("messages.invalid_media", "That is not the kind of attachment this task expects. Try again.")
	v.SetDefault("messages.cleanup_done", "Removed %d expired answer session(s).")
}
