// Package tasks implements scheduled background jobs for crewbot, along
// with their dependencies and registration mechanism.
package tasks

import (
	"log/slog"

	"github.com/crewtask/crewbot/internal/config"
	"github.com/crewtask/crewbot/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}
