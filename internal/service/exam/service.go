// Package exam implements the timed assessment session engine: session
// lifecycle (start, answer, complete, abandon), question collection from an
// external item pool, and TOEIC-scale score estimation.
package exam

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/toeicprep/engine/internal/domain"
)

// Common error types for the exam service
var (
	// ErrFeatureLocked indicates the user's plan does not include timed
	// assessments.
	ErrFeatureLocked = errors.New("timed assessments not available on current plan")

	// ErrSessionConflict indicates the user already has an in-progress
	// session; it must be completed or abandoned before starting another.
	ErrSessionConflict = errors.New("an in-progress session already exists")

	// ErrSessionNotFound indicates the session does not exist or is not
	// owned by the caller.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSlotNotFound indicates the slot does not exist within the session.
	ErrSlotNotFound = errors.New("slot not found")

	// ErrItemNotFound indicates a slot's underlying question item is
	// missing from the pool.
	ErrItemNotFound = errors.New("question item not found")

	// ErrResultNotFound indicates the session has no result yet.
	ErrResultNotFound = errors.New("result not found")

	// ErrInvalidState indicates the session is not in the lifecycle state
	// the operation requires.
	ErrInvalidState = errors.New("session is not in a valid state for this operation")

	// ErrAlreadyCompleted indicates the session already has a result;
	// terminal results are written exactly once.
	ErrAlreadyCompleted = errors.New("session is already completed")

	// ErrUnavailable indicates the underlying store failed. Gating
	// decisions treat this as fail-closed.
	ErrUnavailable = errors.New("exam service unavailable")
)

// SubmitResult reports the outcome of one answer submission.
type SubmitResult struct {
	IsCorrect bool `json:"is_correct"`
}

// Service is the assessment session engine.
type Service interface {
	// Start begins a new timed session of the given exam type. The plan
	// gate runs first (ErrFeatureLocked when denied), then the
	// single-active-session invariant (ErrSessionConflict). Question
	// slots are collected and persisted together with the session row as
	// one atomic batch.
	Start(ctx context.Context, userID uuid.UUID, examType domain.ExamType) (*domain.ExamSession, error)

	// SubmitAnswer records a choice ("A".."D") for one slot. The session
	// must be in progress and within its time limit; re-submission
	// overwrites the prior answer for the same slot.
	SubmitAnswer(ctx context.Context, userID, sessionID, slotID uuid.UUID, choice string, timeSpentSeconds int) (SubmitResult, error)

	// Complete aggregates answers into a result, writes it exactly once,
	// and flips the session to completed. Unanswered slots count as
	// incorrect. Safe for the expiry watchdog to call on a half-answered
	// session.
	Complete(ctx context.Context, userID, sessionID uuid.UUID) (*domain.ExamResult, error)

	// Abandon flips an in-progress session to abandoned without computing
	// a result.
	Abandon(ctx context.Context, userID, sessionID uuid.UUID) error

	// Session retrieves one session by id, scoped to its owner.
	Session(ctx context.Context, userID, sessionID uuid.UUID) (*domain.ExamSession, error)

	// InProgressSession retrieves the user's current in-progress session,
	// or ErrSessionNotFound when there is none.
	InProgressSession(ctx context.Context, userID uuid.UUID) (*domain.ExamSession, error)

	// Slots returns the session's question slots in answer order.
	Slots(ctx context.Context, userID, sessionID uuid.UUID) ([]*domain.ExamSlot, error)

	// Answers returns the answers recorded so far, for session resume.
	Answers(ctx context.Context, userID, sessionID uuid.UUID) ([]*domain.ExamAnswer, error)

	// Result retrieves the result of a completed session.
	Result(ctx context.Context, userID, sessionID uuid.UUID) (*domain.ExamResult, error)

	// Results returns the user's result history, newest first.
	Results(ctx context.Context, userID uuid.UUID) ([]*domain.ExamResult, error)
}

// unavailable wraps a store failure with the stage that hit it.
func unavailable(stage string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, stage, err)
}
