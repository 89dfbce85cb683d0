package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/crewtask/crewbot/internal/database"
)

// AnswerPayload is a typed answer submission. Kind declares what the user
// provided; Value carries text content or raw number input, MediaRef the
// chat platform's file reference for photo and video answers.
type AnswerPayload struct {
	Kind     database.AnswerKind
	Value    string
	MediaRef string
}

// SubmitResult describes the outcome of a successful submission.
type SubmitResult int

const (
	// SubmitCompleted means the answer was recorded and the instance
	// flipped to completed.
	SubmitCompleted SubmitResult = iota

	// SubmitAlreadyDone means the instance was already completed; duplicate
	// taps and retries land here and are not errors.
	SubmitAlreadyDone
)

// SubmitAnswer validates the payload against the owning template's declared
// answer kind and, on acceptance, records the answer and completes the
// instance atomically. Completion is terminal: a second submission returns
// SubmitAlreadyDone without writing a second answer.
func (s *Service) SubmitAnswer(ctx context.Context, instanceID, userID int64, payload AnswerPayload) (SubmitResult, error) {
	inst, err := s.store.GetInstance(ctx, instanceID)
	if err != nil {
		return 0, fmt.Errorf("failed to load instance for submission: %w", err)
	}
	if inst == nil || inst.UserID != userID {
		return 0, ErrNotFound
	}
	if inst.Status == database.StatusCompleted {
		return SubmitAlreadyDone, nil
	}

	answer, err := buildAnswer(inst, payload)
	if err != nil {
		return 0, err
	}

	if err := s.store.CompleteInstance(ctx, answer, time.Now().UTC()); err != nil {
		// Lost a race with another submission for the same instance; the
		// winner's answer stands.
		if errors.Is(err, database.ErrNotPending) {
			return SubmitAlreadyDone, nil
		}
		return 0, fmt.Errorf("failed to record answer: %w", err)
	}

	if err := s.store.DeleteAnswerSession(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "Failed to clear answer session after submission",
			"user_id", userID, "instance_id", instanceID, "error", err)
	}

	s.logger.InfoContext(ctx, "Task answer recorded",
		"user_id", userID, "instance_id", instanceID, "answer_kind", inst.AnswerKind)
	return SubmitCompleted, nil
}

// buildAnswer checks the payload against the template's answer kind and
// shapes the stored record. Exactly one value column ends up populated.
func buildAnswer(inst *database.InstanceRow, payload AnswerPayload) (*database.InstanceAnswer, error) {
	if payload.Kind != inst.AnswerKind {
		return nil, fmt.Errorf("%w: task expects %s, got %s", ErrValidation, inst.AnswerKind, payload.Kind)
	}

	answer := &database.InstanceAnswer{InstanceID: inst.ID}

	switch inst.AnswerKind {
	case database.AnswerText:
		text := strings.TrimSpace(payload.Value)
		if text == "" {
			return nil, fmt.Errorf("%w: text answer must be non-empty", ErrValidation)
		}
		answer.Text = sql.NullString{String: text, Valid: true}

	case database.AnswerNumber:
		n, err := ParseNumber(payload.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		answer.Number = sql.NullFloat64{Float64: n, Valid: true}

	case database.AnswerPhoto, database.AnswerVideo:
		if payload.MediaRef == "" {
			return nil, fmt.Errorf("%w: %s answer requires a media reference", ErrValidation, inst.AnswerKind)
		}
		answer.MediaReference = sql.NullString{String: payload.MediaRef, Valid: true}
		answer.MediaKind = sql.NullString{String: string(inst.AnswerKind), Valid: true}

	default:
		return nil, fmt.Errorf("%w: unknown answer kind %q", ErrValidation, inst.AnswerKind)
	}

	return answer, nil
}

// ParseNumber parses a real number accepting both comma and dot as the
// decimal separator, so "2,5" and "2.5" are equivalent.
func ParseNumber(raw string) (float64, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if normalized == "" {
		return 0, fmt.Errorf("number answer must be non-empty")
	}
	n, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	return n, nil
}
