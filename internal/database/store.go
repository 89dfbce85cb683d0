package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrNotPending is returned when a status transition expects a pending
// instance but the row has already been completed.
var ErrNotPending = errors.New("task instance is not pending")

// Store defines the interface for database operations. Methods accept a
// context.Context for cancellation and timeouts. Lookups that find nothing
// return (nil, nil) rather than an error.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// GetActiveAssignments loads all active assignments joined with their
	// recurrence rule and template.
	GetActiveAssignments(ctx context.Context) ([]AssignmentRow, error)

	// GetAssignmentTargets returns the explicit user targets for the given
	// assignments, keyed by assignment ID. Assignments with audience scope
	// "everyone" have no rows here.
	GetAssignmentTargets(ctx context.Context, assignmentIDs []int64) (map[int64][]int64, error)

	// InsertInstanceIfAbsent conditionally inserts a pending task instance.
	// It reports whether a row was created; an existing row for the same
	// (assignment_id, user_id, for_date) key makes this a no-op.
	InsertInstanceIfAbsent(ctx context.Context, inst *TaskInstance) (bool, error)

	// GetInstancesForDay returns all instances for one user and day, joined
	// with template title and answer kind. Ordering is applied by the caller.
	GetInstancesForDay(ctx context.Context, userID int64, forDate string) ([]InstanceRow, error)

	// GetInstance returns one instance by ID, or (nil, nil) if absent.
	GetInstance(ctx context.Context, instanceID int64) (*InstanceRow, error)

	// CompleteInstance records the answer and flips the instance from
	// pending to completed in a single transaction. Returns ErrNotPending
	// if the instance was already completed.
	CompleteInstance(ctx context.Context, answer *InstanceAnswer, completedAt time.Time) error

	// GetActiveShift returns the user's open shift, or (nil, nil) if the
	// user has no open shift.
	GetActiveShift(ctx context.Context, userID int64) (*Shift, error)

	// SaveAnswerSession inserts or replaces the user's answer-entry session.
	SaveAnswerSession(ctx context.Context, session *AnswerSession) error

	// GetAnswerSession returns the user's answer-entry session, or (nil, nil).
	GetAnswerSession(ctx context.Context, userID int64) (*AnswerSession, error)

	// DeleteAnswerSession removes the user's answer-entry session, if any.
	DeleteAnswerSession(ctx context.Context, userID int64) error

	// DeleteExpiredAnswerSessions removes sessions whose expiry has passed
	// and returns how many were removed.
	DeleteExpiredAnswerSessions(ctx context.Context, now time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance (VACUUM).
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore implements Store using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by the given connected sqlx.DB.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) GetActiveAssignments(ctx context.Context) ([]AssignmentRow, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var rows []AssignmentRow
	query := `
        SELECT a.id, a.template_id, a.audience_scope, a.location_scope, a.location_id,
               t.title, t.answer_kind,
               sch.schedule_type, sch.single_date, sch.weekdays_mask,
               sch.every_x_days, sch.start_date, sch.time_mode
        FROM task_assignments a
        JOIN task_templates t ON t.id = a.template_id
        JOIN task_schedules sch ON sch.assignment_id = a.id
        WHERE a.active = TRUE;
    `

	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		s.logger.ErrorContext(ctx, "Error loading active assignments", "error", err)
		return nil, fmt.Errorf("failed to load active assignments: %w", err)
	}

	s.logger.DebugContext(ctx, "Loaded active assignments", "count", len(rows))
	return rows, nil
}

func (s *sqlxStore) GetAssignmentTargets(ctx context.Context, assignmentIDs []int64) (map[int64][]int64, error) {
	targets := make(map[int64][]int64, len(assignmentIDs))
	if len(assignmentIDs) == 0 {
		return targets, nil
	}

	query, args, err := sqlx.In(
		`SELECT assignment_id, user_id FROM task_assignment_targets WHERE assignment_id IN (?)`,
		assignmentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build assignment targets query: %w", err)
	}

	var rows []struct {
		AssignmentID int64 `db:"assignment_id"`
		UserID       int64 `db:"user_id"`
	}
	query = s.db.Rebind(query)
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		s.logger.ErrorContext(ctx, "Error loading assignment targets", "error", err)
		return nil, fmt.Errorf("failed to load assignment targets: %w", err)
	}

	for _, r := range rows {
		targets[r.AssignmentID] = append(targets[r.AssignmentID], r.UserID)
	}
	return targets, nil
}

// InsertInstanceIfAbsent relies on the UNIQUE(assignment_id, user_id,
// for_date) constraint: concurrent calls for the same key all no-op except
// one. This is the idempotency mechanism for materialization.
func (s *sqlxStore) InsertInstanceIfAbsent(ctx context.Context, inst *TaskInstance) (bool, error) {
	if inst == nil {
		return false, fmt.Errorf("cannot insert nil task instance")
	}
	if inst.AssignmentID == 0 || inst.UserID == 0 || inst.ForDate == "" {
		return false, fmt.Errorf("task instance must have assignment_id, user_id, and for_date")
	}

	inst.CreatedAt = time.Now().UTC()
	if inst.Status == "" {
		inst.Status = StatusPending
	}

	query := `
        INSERT INTO task_instances
            (assignment_id, template_id, user_id, location_id, for_date,
             time_mode, deadline_at, status, completed_at, created_at)
        VALUES
            (:assignment_id, :template_id, :user_id, :location_id, :for_date,
             :time_mode, :deadline_at, :status, :completed_at, :created_at)
        ON CONFLICT (assignment_id, user_id, for_date) DO NOTHING;
    `

	result, err := s.db.NamedExecContext(ctx, query, inst)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error inserting task instance",
			"assignment_id", inst.AssignmentID, "user_id", inst.UserID, "for_date", inst.ForDate, "error", err)
		return false, fmt.Errorf("failed to insert task instance (assignment %d, user %d, date %s): %w",
			inst.AssignmentID, inst.UserID, inst.ForDate, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count for instance insert", "error", err)
		return false, nil
	}

	if affected == 1 {
		if id, err := result.LastInsertId(); err == nil {
			inst.ID = id
		}
		s.logger.DebugContext(ctx, "Materialized task instance",
			"assignment_id", inst.AssignmentID, "user_id", inst.UserID, "for_date", inst.ForDate)
		return true, nil
	}
	return false, nil
}

func (s *sqlxStore) GetInstancesForDay(ctx context.Context, userID int64, forDate string) ([]InstanceRow, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}
	if forDate == "" {
		return nil, fmt.Errorf("for_date cannot be empty")
	}

	var rows []InstanceRow
	query := `
        SELECT i.id, i.assignment_id, i.template_id, i.user_id, i.location_id,
               i.for_date, i.time_mode, i.deadline_at, i.status, i.completed_at, i.created_at,
               t.title, t.answer_kind
        FROM task_instances i
        JOIN task_templates t ON t.id = i.template_id
        WHERE i.user_id = ? AND i.for_date = ?
        ORDER BY i.id;
    `

	if err := s.db.SelectContext(ctx, &rows, query, userID, forDate); err != nil {
		s.logger.ErrorContext(ctx, "Error getting instances for day",
			"user_id", userID, "for_date", forDate, "error", err)
		return nil, fmt.Errorf("failed to get instances for user %d on %s: %w", userID, forDate, err)
	}

	return rows, nil
}

func (s *sqlxStore) GetInstance(ctx context.Context, instanceID int64) (*InstanceRow, error) {
	if instanceID == 0 {
		return nil, fmt.Errorf("instance_id cannot be zero")
	}

	var row InstanceRow
	query := `
        SELECT i.id, i.assignment_id, i.template_id, i.user_id, i.location_id,
               i.for_date, i.time_mode, i.deadline_at, i.status, i.completed_at, i.created_at,
               t.title, t.answer_kind
        FROM task_instances i
        JOIN task_templates t ON t.id = i.template_id
        WHERE i.id = ?;
    `

	err := s.db.GetContext(ctx, &row, query, instanceID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "Task instance not found", "instance_id", instanceID)
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting task instance", "instance_id", instanceID, "error", err)
		return nil, fmt.Errorf("failed to get task instance %d: %w", instanceID, err)
	}

	return &row, nil
}

// CompleteInstance performs both writes in one transaction so a crash can
// never leave a completed instance without its answer record, or an answer
// without the status flip.
func (s *sqlxStore) CompleteInstance(ctx context.Context, answer *InstanceAnswer, completedAt time.Time) error {
	if answer == nil {
		return fmt.Errorf("cannot record nil answer")
	}
	if answer.InstanceID == 0 {
		return fmt.Errorf("answer must reference an instance")
	}

	answer.CreatedAt = completedAt

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for completion",
			"instance_id", answer.InstanceID, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	// Guard on status so a concurrent completion of the same instance makes
	// exactly one of the submissions win.
	result, err := tx.ExecContext(ctx,
		`UPDATE task_instances SET status = ?, completed_at = ? WHERE id = ? AND status = ?`,
		StatusCompleted, completedAt, answer.InstanceID, StatusPending)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating instance status",
			"instance_id", answer.InstanceID, "error", err)
		return fmt.Errorf("failed to complete instance %d: %w", answer.InstanceID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check completion of instance %d: %w", answer.InstanceID, err)
	}
	if affected == 0 {
		return fmt.Errorf("instance %d: %w", answer.InstanceID, ErrNotPending)
	}

	query := `
        INSERT INTO task_instance_answers (instance_id, text, number, media_reference, media_kind, created_at)
        VALUES (:instance_id, :text, :number, :media_reference, :media_kind, :created_at);
    `
	if _, err := tx.NamedExecContext(ctx, query, answer); err != nil {
		s.logger.ErrorContext(ctx, "Error inserting instance answer",
			"instance_id", answer.InstanceID, "error", err)
		return fmt.Errorf("failed to record answer for instance %d: %w", answer.InstanceID, err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit completion transaction",
			"instance_id", answer.InstanceID, "error", err)
		return fmt.Errorf("failed to commit completion transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Task instance completed", "instance_id", answer.InstanceID)
	return nil
}

func (s *sqlxStore) GetActiveShift(ctx context.Context, userID int64) (*Shift, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}

	var shift Shift
	query := `
        SELECT id, user_id, location_id, opened_at, closed_at
        FROM shifts
        WHERE user_id = ? AND closed_at IS NULL
        ORDER BY opened_at DESC
        LIMIT 1;
    `

	err := s.db.GetContext(ctx, &shift, query, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting active shift", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get active shift for user %d: %w", userID, err)
	}

	return &shift, nil
}

func (s *sqlxStore) SaveAnswerSession(ctx context.Context, session *AnswerSession) error {
	if session == nil {
		return fmt.Errorf("cannot save nil answer session")
	}
	if session.UserID == 0 || session.InstanceID == 0 {
		return fmt.Errorf("answer session must have user_id and instance_id")
	}

	session.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO answer_sessions (user_id, instance_id, answer_kind, created_at, expires_at)
        VALUES (:user_id, :instance_id, :answer_kind, :created_at, :expires_at)
        ON CONFLICT (user_id) DO UPDATE SET
            instance_id = excluded.instance_id,
            answer_kind = excluded.answer_kind,
            created_at = excluded.created_at,
            expires_at = excluded.expires_at;
    `

	if _, err := s.db.NamedExecContext(ctx, query, session); err != nil {
		s.logger.ErrorContext(ctx, "Error saving answer session",
			"user_id", session.UserID, "instance_id", session.InstanceID, "error", err)
		return fmt.Errorf("failed to save answer session for user %d: %w", session.UserID, err)
	}

	return nil
}

func (s *sqlxStore) GetAnswerSession(ctx context.Context, userID int64) (*AnswerSession, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}

	var session AnswerSession
	query := `SELECT user_id, instance_id, answer_kind, created_at, expires_at
	          FROM answer_sessions WHERE user_id = ?`

	err := s.db.GetContext(ctx, &session, query, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting answer session", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get answer session for user %d: %w", userID, err)
	}

	return &session, nil
}

func (s *sqlxStore) DeleteAnswerSession(ctx context.Context, userID int64) error {
	if userID == 0 {
		return fmt.Errorf("user_id cannot be zero")
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM answer_sessions WHERE user_id = ?`, userID); err != nil {
		s.logger.ErrorContext(ctx, "Error deleting answer session", "user_id", userID, "error", err)
		return fmt.Errorf("failed to delete answer session for user %d: %w", userID, err)
	}
	return nil
}

func (s *sqlxStore) DeleteExpiredAnswerSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM answer_sessions WHERE expires_at <= ?`, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting expired answer sessions", "error", err)
		return 0, fmt.Errorf("failed to delete expired answer sessions: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	if count > 0 {
		s.logger.InfoContext(ctx, "Deleted expired answer sessions", "count", count)
	}
	return count, nil
}

// RunSQLMaintenance executes VACUUM, which SQLite requires to run outside a
// transaction.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)")

	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "Database maintenance failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance completed")
	return nil
}
