package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/crewtask/crewbot/internal/database"
)

// Resolve returns the assignments applicable to one user on one day: active
// assignments that pass the audience filter, the location filter against
// the user's current shift (nil when no shift is open), and whose
// recurrence rule fires on date. Result order is not significant.
func (s *Service) Resolve(ctx context.Context, userID int64, shift *database.Shift, date time.Time) ([]database.AssignmentRow, error) {
	rows, err := s.store.GetActiveAssignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assignments: %w", err)
	}

	var targetedIDs []int64
	for _, row := range rows {
		if row.AudienceScope == database.AudienceIndividuals {
			targetedIDs = append(targetedIDs, row.ID)
		}
	}

	targets := map[int64][]int64{}
	if len(targetedIDs) > 0 {
		targets, err = s.store.GetAssignmentTargets(ctx, targetedIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve assignment targets: %w", err)
		}
	}

	applicable := make([]database.AssignmentRow, 0, len(rows))
	for _, row := range rows {
		if !audienceMatches(row, targets, userID) {
			continue
		}
		if !locationMatches(row, shift) {
			continue
		}
		if !Fires(ruleFromRow(row), date) {
			continue
		}
		applicable = append(applicable, row)
	}

	s.logger.DebugContext(ctx, "Resolved applicable assignments",
		"user_id", userID, "date", FormatDate(date),
		"candidates", len(rows), "applicable", len(applicable))
	return applicable, nil
}

// audienceMatches passes "everyone" assignments unconditionally and
// individually-targeted ones only when the user is listed.
func audienceMatches(row database.AssignmentRow, targets map[int64][]int64, userID int64) bool {
	if row.AudienceScope != database.AudienceIndividuals {
		return true
	}
	for _, id := range targets[row.ID] {
		if id == userID {
			return true
		}
	}
	return false
}

// locationMatches passes "any_location" assignments regardless of shift
// state; "one_location" assignments require an open shift at exactly the
// assignment's location. No shift or a mismatched location is a policy
// outcome, not an error.
func locationMatches(row database.AssignmentRow, shift *database.Shift) bool {
	if row.LocationScope != database.LocationOne {
		return true
	}
	if shift == nil || !row.LocationID.Valid {
		return false
	}
	return shift.LocationID == row.LocationID.Int64
}
