package tasks

import (
	"context"
	"sort"
	"time"

	"github.com/crewtask/crewbot/internal/database"
)

// ListToday returns the user's instances for the day in display order:
// pending before completed, explicit deadlines before none, earliest
// deadline first, with instance ID as the stable tie-break. Completed items
// stay in the list; rendering collapses them.
func (s *Service) ListToday(ctx context.Context, userID int64, date time.Time) ([]database.InstanceRow, error) {
	rows, err := s.store.GetInstancesForDay(ctx, userID, FormatDate(date))
	if err != nil {
		return nil, err
	}
	SortInstances(rows)
	return rows, nil
}

// SortInstances orders instances by (completed last, no-deadline last,
// deadline ascending, id ascending).
func SortInstances(rows []database.InstanceRow) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]

		aDone := a.Status == database.StatusCompleted
		bDone := b.Status == database.StatusCompleted
		if aDone != bDone {
			return !aDone
		}

		if a.DeadlineAt.Valid != b.DeadlineAt.Valid {
			return a.DeadlineAt.Valid
		}
		if a.DeadlineAt.Valid && !a.DeadlineAt.Time.Equal(b.DeadlineAt.Time) {
			return a.DeadlineAt.Time.Before(b.DeadlineAt.Time)
		}

		return a.ID < b.ID
	})
}
