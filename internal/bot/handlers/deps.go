// Package handlers contains the Telegram command, callback, and message
// handlers for crewbot, along with their registration logic and middleware.
package handlers

import (
	"log/slog"

	"github.com/crewtask/crewbot/internal/config"
	"github.com/crewtask/crewbot/internal/database"
	"github.com/crewtask/crewbot/internal/tasks"
)

// HandlerDeps provides dependencies for Telegram handlers.
type HandlerDeps struct {
	Logger *slog.Logger
	Config *config.Config
	Store  database.Store
	Tasks  *tasks.Service
}
