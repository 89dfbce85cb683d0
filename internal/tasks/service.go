package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/crewtask/crewbot/internal/database"
)

// Sentinel errors for callers that branch on the outcome of an operation.
var (
	// ErrNotFound means the instance does not exist or belongs to another
	// user. The two cases are deliberately indistinguishable to callers.
	ErrNotFound = errors.New("task not found")

	// ErrValidation means the submitted payload does not satisfy the
	// template's declared answer kind. The instance is left untouched.
	ErrValidation = errors.New("answer validation failed")
)

// Service is the recurring-task engine. It resolves which assignments are
// due, materializes instances, lists them, and records answers.
type Service struct {
	store      database.Store
	logger     *slog.Logger
	sessionTTL time.Duration
}

// NewService creates the task engine backed by the given store.
func NewService(store database.Store, logger *slog.Logger, sessionTTL time.Duration) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		store:      store,
		logger:     logger.With("component", "tasks"),
		sessionTTL: sessionTTL,
	}
}

// BeginAnswer validates that the instance exists, belongs to the user, and
// is still pending, then records an answer-entry session so the user's next
// message is interpreted as the answer. It returns the instance so the
// caller can issue the kind-appropriate prompt.
func (s *Service) BeginAnswer(ctx context.Context, userID, instanceID int64) (*database.InstanceRow, error) {
	inst, err := s.store.GetInstance(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load instance for answer entry: %w", err)
	}
	if inst == nil || inst.UserID != userID {
		return nil, ErrNotFound
	}
	if inst.Status == database.StatusCompleted {
		return inst, nil
	}

	session := &database.AnswerSession{
		UserID:     userID,
		InstanceID: instanceID,
		AnswerKind: inst.AnswerKind,
		ExpiresAt:  time.Now().UTC().Add(s.sessionTTL),
	}
	if err := s.store.SaveAnswerSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to start answer entry: %w", err)
	}

	s.logger.DebugContext(ctx, "Answer entry started",
		"user_id", userID, "instance_id", instanceID, "answer_kind", inst.AnswerKind)
	return inst, nil
}

// ActiveSession returns the user's in-flight answer-entry session, or nil.
// Sessions past their expiry are treated as absent and removed.
func (s *Service) ActiveSession(ctx context.Context, userID int64) (*database.AnswerSession, error) {
	session, err := s.store.GetAnswerSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load answer session: %w", err)
	}
	if session == nil {
		return nil, nil
	}
	if !session.ExpiresAt.After(time.Now().UTC()) {
		if err := s.store.DeleteAnswerSession(ctx, userID); err != nil {
			s.logger.WarnContext(ctx, "Failed to drop expired answer session",
				"user_id", userID, "error", err)
		}
		return nil, nil
	}
	return session, nil
}

// CancelAnswer discards the user's in-flight answer entry, if any. The
// instance itself is untouched. It reports whether a session existed.
func (s *Service) CancelAnswer(ctx context.Context, userID int64) (bool, error) {
	session, err := s.ActiveSession(ctx, userID)
	if err != nil {
		return false, err
	}
	if session == nil {
		return false, nil
	}
	if err := s.store.DeleteAnswerSession(ctx, userID); err != nil {
		return false, fmt.Errorf("failed to cancel answer entry: %w", err)
	}
	s.logger.DebugContext(ctx, "Answer entry canceled",
		"user_id", userID, "instance_id", session.InstanceID)
	return true, nil
}
