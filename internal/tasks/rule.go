// Package tasks implements the recurring checklist engine: deciding which
// assignments are due for a user on a calendar day, materializing exactly
// one trackable instance per (assignment, user, day), and recording typed
// answers that complete an instance.
package tasks

import (
	"fmt"
	"time"

	"github.com/crewtask/crewbot/internal/database"
)

// RecurrenceRule is the date-membership test governing when an assignment
// is due. Exactly the fields required by Type are meaningful; the rest stay
// zero.
type RecurrenceRule struct {
	Type         database.ScheduleType
	SingleDate   time.Time
	WeekdaysMask int
	EveryXDays   int
	StartDate    time.Time
}

// Validate checks that the rule carries exactly the fields its type
// requires.
func (r RecurrenceRule) Validate() error {
	switch r.Type {
	case database.ScheduleSingle:
		if r.SingleDate.IsZero() {
			return fmt.Errorf("single rule requires a date")
		}
	case database.ScheduleWeekly:
		if r.WeekdaysMask < 0 || r.WeekdaysMask > 0x7F {
			return fmt.Errorf("weekly rule mask %#x out of range", r.WeekdaysMask)
		}
	case database.ScheduleEveryXDays:
		if r.EveryXDays < 1 {
			return fmt.Errorf("every_x_days rule requires x >= 1, got %d", r.EveryXDays)
		}
		if r.StartDate.IsZero() {
			return fmt.Errorf("every_x_days rule requires a start date")
		}
	default:
		return fmt.Errorf("unknown schedule type %q", r.Type)
	}
	return nil
}

// Fires reports whether the rule is due on the given calendar date. It is
// pure and timezone-naive: only the year, month, and day of date matter.
// Malformed rules (unknown type, x < 1, absent anchor) never fire.
func Fires(r RecurrenceRule, date time.Time) bool {
	switch r.Type {
	case database.ScheduleSingle:
		return !r.SingleDate.IsZero() && sameDate(date, r.SingleDate)

	case database.ScheduleWeekly:
		return r.WeekdaysMask&(1<<isoWeekdayBit(date)) != 0

	case database.ScheduleEveryXDays:
		if r.EveryXDays < 1 || r.StartDate.IsZero() {
			return false
		}
		d := daysBetween(r.StartDate, date)
		return d >= 0 && d%r.EveryXDays == 0

	default:
		return false
	}
}

// ruleFromRow builds a RecurrenceRule from a stored schedule row. NULL
// columns map to zero values, which Fires treats as never-firing where the
// rule type requires them.
func ruleFromRow(row database.AssignmentRow) RecurrenceRule {
	rule := RecurrenceRule{Type: row.ScheduleType}
	if row.SingleDate.Valid {
		rule.SingleDate = parseDate(row.SingleDate.String)
	}
	if row.WeekdaysMask.Valid {
		rule.WeekdaysMask = int(row.WeekdaysMask.Int64)
	}
	if row.EveryXDays.Valid {
		rule.EveryXDays = int(row.EveryXDays.Int64)
	}
	if row.StartDate.Valid {
		rule.StartDate = parseDate(row.StartDate.String)
	}
	return rule
}

// isoWeekdayBit maps time.Weekday to the ISO bit position: Monday is bit 0
// through Sunday at bit 6.
func isoWeekdayBit(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}

// daysBetween returns the whole-day calendar difference to - from, ignoring
// clock time and zone.
func daysBetween(from, to time.Time) int {
	return int(midnightUTC(to).Sub(midnightUTC(from)).Hours() / 24)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a calendar date in the storage layout.
func FormatDate(t time.Time) string {
	return t.Format(database.DateLayout)
}

func parseDate(s string) time.Time {
	t, err := time.Parse(database.DateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
