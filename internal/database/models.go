package database

import (
	"database/sql"
	"time"
)

// DateLayout is the format used for calendar-date columns (for_date,
// single_date, start_date). The engine is timezone-naive and works on
// calendar dates, never instants.
const DateLayout = "2006-01-02"

// AnswerKind declares the type of answer a task template expects.
type AnswerKind string

const (
	AnswerText   AnswerKind = "text"
	AnswerNumber AnswerKind = "number"
	AnswerPhoto  AnswerKind = "photo"
	AnswerVideo  AnswerKind = "video"
)

// AudienceScope declares who an assignment targets.
type AudienceScope string

const (
	AudienceEveryone    AudienceScope = "everyone"
	AudienceIndividuals AudienceScope = "named_individuals"
)

// LocationScope declares where an assignment applies.
type LocationScope string

const (
	LocationAny LocationScope = "any_location"
	LocationOne LocationScope = "one_location"
)

// ScheduleType discriminates the recurrence rule kinds.
type ScheduleType string

const (
	ScheduleSingle     ScheduleType = "single"
	ScheduleWeekly     ScheduleType = "weekly"
	ScheduleEveryXDays ScheduleType = "every_x_days"
)

// InstanceStatus is the lifecycle state of a task instance.
type InstanceStatus string

const (
	StatusPending   InstanceStatus = "pending"
	StatusCompleted InstanceStatus = "completed"
)

// TaskTemplate is a reusable checklist-item definition. Edits to a template
// do not retroactively change already-materialized instances.
type TaskTemplate struct {
	ID         int64      `db:"id"`
	Title      string     `db:"title"`
	AnswerKind AnswerKind `db:"answer_kind"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
}

// AssignmentRow is the joined view of an active assignment with its
// recurrence rule and template, as loaded by the resolver.
type AssignmentRow struct {
	ID            int64         `db:"id"`
	TemplateID    int64         `db:"template_id"`
	AudienceScope AudienceScope `db:"audience_scope"`
	LocationScope LocationScope `db:"location_scope"`
	LocationID    sql.NullInt64 `db:"location_id"`

	Title      string     `db:"title"`
	AnswerKind AnswerKind `db:"answer_kind"`

	ScheduleType ScheduleType   `db:"schedule_type"`
	SingleDate   sql.NullString `db:"single_date"`
	WeekdaysMask sql.NullInt64  `db:"weekdays_mask"`
	EveryXDays   sql.NullInt64  `db:"every_x_days"`
	StartDate    sql.NullString `db:"start_date"`
	TimeMode     string         `db:"time_mode"`
}

// TaskInstance is the materialized per-user, per-day occurrence of an
// assignment. At most one row exists per (assignment_id, user_id, for_date).
type TaskInstance struct {
	ID           int64          `db:"id"`
	AssignmentID int64          `db:"assignment_id"`
	TemplateID   int64          `db:"template_id"`
	UserID       int64          `db:"user_id"`
	LocationID   sql.NullInt64  `db:"location_id"`
	ForDate      string         `db:"for_date"`
	TimeMode     string         `db:"time_mode"`
	DeadlineAt   sql.NullTime   `db:"deadline_at"`
	Status       InstanceStatus `db:"status"`
	CompletedAt  sql.NullTime   `db:"completed_at"`
	CreatedAt    time.Time      `db:"created_at"`
}

// InstanceRow is a task instance joined with its template's title and
// declared answer kind, as read by the listing and submission paths.
type InstanceRow struct {
	TaskInstance
	Title      string     `db:"title"`
	AnswerKind AnswerKind `db:"answer_kind"`
}

// InstanceAnswer is the single answer recorded for a completed instance.
// Exactly one of Text, Number, or MediaReference+MediaKind is populated.
type InstanceAnswer struct {
	InstanceID     int64           `db:"instance_id"`
	Text           sql.NullString  `db:"text"`
	Number         sql.NullFloat64 `db:"number"`
	MediaReference sql.NullString  `db:"media_reference"`
	MediaKind      sql.NullString  `db:"media_kind"`
	CreatedAt      time.Time       `db:"created_at"`
}

// Shift is the read-only view of the shift subsystem's open-shift record.
type Shift struct {
	ID         int64        `db:"id"`
	UserID     int64        `db:"user_id"`
	LocationID int64        `db:"location_id"`
	OpenedAt   time.Time    `db:"opened_at"`
	ClosedAt   sql.NullTime `db:"closed_at"`
}

// AnswerSession is the persisted in-flight answer-entry state for a user.
// One session per user; cleared on submit or cancel, reaped after ExpiresAt.
type AnswerSession struct {
	UserID     int64      `db:"user_id"`
	InstanceID int64      `db:"instance_id"`
	AnswerKind AnswerKind `db:"answer_kind"`
	CreatedAt  time.Time  `db:"created_at"`
	ExpiresAt  time.Time  `db:"expires_at"`
}
