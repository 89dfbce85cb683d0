package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/crewtask/crewbot/internal/database"
)

// EnsureMaterialized makes sure a pending instance exists for every
// assignment applicable to the user on date. Repeated and concurrent calls
// for the same (user, date) are safe: each insert no-ops when the
// (assignment, user, date) key already exists, so a fully materialized day
// is a guaranteed no-op. Existing instances are never updated here.
func (s *Service) EnsureMaterialized(ctx context.Context, userID int64, shift *database.Shift, date time.Time) error {
	applicable, err := s.Resolve(ctx, userID, shift, date)
	if err != nil {
		return err
	}

	var location sql.NullInt64
	if shift != nil {
		location = sql.NullInt64{Int64: shift.LocationID, Valid: true}
	}

	created := 0
	for _, row := range applicable {
		inst := &database.TaskInstance{
			AssignmentID: row.ID,
			TemplateID:   row.TemplateID,
			UserID:       userID,
			LocationID:   location,
			ForDate:      FormatDate(date),
			TimeMode:     row.TimeMode,
			Status:       database.StatusPending,
		}

		// Inserts are independent: a failure here leaves earlier inserts in
		// place, and re-running materialization picks up the rest.
		inserted, err := s.store.InsertInstanceIfAbsent(ctx, inst)
		if err != nil {
			return fmt.Errorf("failed to materialize assignment %d for user %d: %w", row.ID, userID, err)
		}
		if inserted {
			created++
		}
	}

	if created > 0 {
		s.logger.InfoContext(ctx, "Materialized task instances",
			"user_id", userID, "date", FormatDate(date), "created", created)
	}
	return nil
}

// MaterializeAndList is the "show today's tasks" operation: it looks up the
// user's open shift, materializes anything newly due, and returns the full
// ordered instance set for the day.
func (s *Service) MaterializeAndList(ctx context.Context, userID int64, date time.Time) ([]database.InstanceRow, error) {
	shift, err := s.store.GetActiveShift(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up active shift: %w", err)
	}

	if err := s.EnsureMaterialized(ctx, userID, shift, date); err != nil {
		return nil, err
	}

	return s.ListToday(ctx, userID, date)
}
