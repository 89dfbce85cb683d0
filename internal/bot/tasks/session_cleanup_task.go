package tasks

import (
	"context"
	"fmt"
	"time"
)

// newSessionCleanupTask creates the scheduled task function that purges
// expired answer sessions. Expiry only marks a session eligible for removal;
// this job is what actually deletes the rows.
func newSessionCleanupTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "session_cleanup")

	return func(ctx context.Context) error {
		removed, err := deps.Store.DeleteExpiredAnswerSessions(ctx, time.Now().UTC())
		if err != nil {
			log.ErrorContext(ctx, "Answer session cleanup failed", "error", err)
			return fmt.Errorf("session cleanup failed: %w", err)
		}

		if removed > 0 {
			log.InfoContext(ctx, "Removed expired answer sessions", "count", removed)
		}
		return nil
	}
}
