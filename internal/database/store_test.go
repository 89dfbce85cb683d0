package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) Store {
	t.Helper()

	db, err := NewDB(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { CloseDB(db) })

	now := time.Now().UTC()
	if _, err := db.Exec(
		`INSERT INTO task_templates (id, title, answer_kind, created_at, updated_at) VALUES (1, 'Seeded', 'text', ?, ?)`,
		now, now); err != nil {
		t.Fatalf("failed to seed template: %v", err)
	}
	if _, err := db.Exec(
		`INSERT INTO task_assignments (id, template_id, audience_scope, location_scope, active, created_at, updated_at)
		 VALUES (1, 1, 'everyone', 'any_location', TRUE, ?, ?)`,
		now, now); err != nil {
		t.Fatalf("failed to seed assignment: %v", err)
	}

	return NewStore(db, nil)
}

func pendingInstance(userID int64, forDate string) *TaskInstance {
	return &TaskInstance{
		AssignmentID: 1,
		TemplateID:   1,
		UserID:       userID,
		ForDate:      forDate,
		TimeMode:     "anytime",
		Status:       StatusPending,
	}
}

func TestInsertInstanceIfAbsent(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	first := pendingInstance(10, "2025-06-11")
	created, err := store.InsertInstanceIfAbsent(ctx, first)
	if err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if !created {
		t.Fatal("first insert reported no row created")
	}
	if first.ID == 0 {
		t.Error("first insert did not populate the instance ID")
	}

	duplicate := pendingInstance(10, "2025-06-11")
	created, err = store.InsertInstanceIfAbsent(ctx, duplicate)
	if err != nil {
		t.Fatalf("duplicate insert failed: %v", err)
	}
	if created {
		t.Error("duplicate insert reported a row created")
	}

	// Different day and different user are distinct keys.
	for _, inst := range []*TaskInstance{
		pendingInstance(10, "2025-06-12"),
		pendingInstance(11, "2025-06-11"),
	} {
		created, err := store.InsertInstanceIfAbsent(ctx, inst)
		if err != nil {
			t.Fatalf("insert for distinct key failed: %v", err)
		}
		if !created {
			t.Errorf("insert for distinct key (user %d, date %s) no-oped", inst.UserID, inst.ForDate)
		}
	}
}

func TestCompleteInstanceGuardsStatus(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	inst := pendingInstance(20, "2025-06-11")
	if _, err := store.InsertInstanceIfAbsent(ctx, inst); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	answer := &InstanceAnswer{
		InstanceID: inst.ID,
		Text:       sql.NullString{String: "done", Valid: true},
	}
	if err := store.CompleteInstance(ctx, answer, time.Now().UTC()); err != nil {
		t.Fatalf("completion failed: %v", err)
	}

	row, err := store.GetInstance(ctx, inst.ID)
	if err != nil {
		t.Fatalf("failed to reload instance: %v", err)
	}
	if row.Status != StatusCompleted || !row.CompletedAt.Valid {
		t.Errorf("instance after completion: status=%s completed_at=%+v", row.Status, row.CompletedAt)
	}

	// A second completion must fail the status guard and write nothing.
	again := &InstanceAnswer{
		InstanceID: inst.ID,
		Text:       sql.NullString{String: "done again", Valid: true},
	}
	err = store.CompleteInstance(ctx, again, time.Now().UTC())
	if !errors.Is(err, ErrNotPending) {
		t.Fatalf("second completion error = %v, want ErrNotPending", err)
	}
}

func TestGetInstanceNotFound(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)

	row, err := store.GetInstance(context.Background(), 12345)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if row != nil {
		t.Errorf("expected nil for missing instance, got %+v", row)
	}
}

func TestAnswerSessionRoundTrip(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	inst := pendingInstance(30, "2025-06-11")
	if _, err := store.InsertInstanceIfAbsent(ctx, inst); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	session := &AnswerSession{
		UserID:     30,
		InstanceID: inst.ID,
		AnswerKind: AnswerText,
		ExpiresAt:  time.Now().UTC().Add(time.Hour),
	}
	if err := store.SaveAnswerSession(ctx, session); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.GetAnswerSession(ctx, 30)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil || got.InstanceID != inst.ID || got.AnswerKind != AnswerText {
		t.Fatalf("round-tripped session = %+v", got)
	}

	// Saving again replaces the previous session for the same user.
	session.AnswerKind = AnswerNumber
	if err := store.SaveAnswerSession(ctx, session); err != nil {
		t.Fatalf("re-save failed: %v", err)
	}
	got, err = store.GetAnswerSession(ctx, 30)
	if err != nil {
		t.Fatalf("get after re-save failed: %v", err)
	}
	if got.AnswerKind != AnswerNumber {
		t.Errorf("session answer kind = %s, want number", got.AnswerKind)
	}

	if err := store.DeleteAnswerSession(ctx, 30); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	got, err = store.GetAnswerSession(ctx, 30)
	if err != nil {
		t.Fatalf("get after delete failed: %v", err)
	}
	if got != nil {
		t.Errorf("session survived delete: %+v", got)
	}
}

func TestDeleteExpiredAnswerSessions(t *testing.T) {
	t.Parallel()
	store := newTestStore(t)
	ctx := context.Background()

	fresh := pendingInstance(40, "2025-06-11")
	stale := pendingInstance(41, "2025-06-11")
	for _, inst := range []*TaskInstance{fresh, stale} {
		if _, err := store.InsertInstanceIfAbsent(ctx, inst); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	now := time.Now().UTC()
	sessions := []*AnswerSession{
		{UserID: 40, InstanceID: fresh.ID, AnswerKind: AnswerText, ExpiresAt: now.Add(time.Hour)},
		{UserID: 41, InstanceID: stale.ID, AnswerKind: AnswerText, ExpiresAt: now.Add(-time.Hour)},
	}
	for _, s := range sessions {
		if err := store.SaveAnswerSession(ctx, s); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	count, err := store.DeleteExpiredAnswerSessions(ctx, now)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if count != 1 {
		t.Errorf("cleanup removed %d sessions, want 1", count)
	}

	kept, err := store.GetAnswerSession(ctx, 40)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if kept == nil {
		t.Error("unexpired session was removed")
	}

	removed, err := store.GetAnswerSession(ctx, 41)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if removed != nil {
		t.Error("expired session survived cleanup")
	}
}

func TestGetActiveShift(t *testing.T) {
	t.Parallel()

	db, err := NewDB(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { CloseDB(db) })
	store := NewStore(db, nil)
	ctx := context.Background()

	shift, err := store.GetActiveShift(ctx, 50)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if shift != nil {
		t.Fatalf("expected nil without shifts, got %+v", shift)
	}

	now := time.Now().UTC()
	if _, err := db.Exec(
		`INSERT INTO shifts (user_id, location_id, opened_at, closed_at) VALUES (50, 7, ?, ?)`,
		now.Add(-8*time.Hour), now.Add(-time.Hour)); err != nil {
		t.Fatalf("failed to seed closed shift: %v", err)
	}

	shift, err = store.GetActiveShift(ctx, 50)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if shift != nil {
		t.Fatalf("closed shift reported as active: %+v", shift)
	}

	if _, err := db.Exec(
		`INSERT INTO shifts (user_id, location_id, opened_at) VALUES (50, 9, ?)`,
		now); err != nil {
		t.Fatalf("failed to seed open shift: %v", err)
	}

	shift, err = store.GetActiveShift(ctx, 50)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if shift == nil || shift.LocationID != 9 {
		t.Fatalf("active shift = %+v, want location 9", shift)
	}
}
