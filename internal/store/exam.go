package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/toeicprep/engine/internal/domain"
)

// ExamStore persists assessment sessions, their question slots, answers,
// and results.
type ExamStore interface {
	// CreateSession inserts an in-progress session row.
	// Returns ErrActiveSessionExists when the partial unique index rejects
	// a second in-progress session for the user. Start-time orchestration
	// MUST run this and CreateSlots within one transaction via WithTx so a
	// slot-batch failure leaves no orphaned session.
	CreateSession(ctx context.Context, session *domain.ExamSession) error

	// GetSession retrieves a session by id, scoped to its owner.
	// Returns ErrSessionNotFound for unknown ids and for sessions owned by
	// someone else: ownership mismatch is indistinguishable from absence.
	GetSession(ctx context.Context, userID, sessionID uuid.UUID) (*domain.ExamSession, error)

	// GetInProgressSession retrieves the user's single in-progress session,
	// or ErrSessionNotFound when there is none.
	GetInProgressSession(ctx context.Context, userID uuid.UUID) (*domain.ExamSession, error)

	// UpdateSessionStatus flips a session into a terminal state with the
	// given completion time. Returns ErrSessionNotFound when no in-progress
	// row matches, making terminal states immutable at the store level.
	UpdateSessionStatus(ctx context.Context, sessionID uuid.UUID, status domain.ExamStatus, completedAt time.Time) error

	// ListExpiredSessions returns in-progress sessions whose deadline
	// (started_at + time limit) passed before the given instant.
	ListExpiredSessions(ctx context.Context, before time.Time) ([]*domain.ExamSession, error)

	// CreateSlots inserts the session's question slots as one atomic batch.
	CreateSlots(ctx context.Context, slots []*domain.ExamSlot) error

	// GetSlot retrieves a single slot by id within a session.
	// Returns ErrSlotNotFound when absent.
	GetSlot(ctx context.Context, sessionID, slotID uuid.UUID) (*domain.ExamSlot, error)

	// ListSlots returns the session's slots ordered by position.
	ListSlots(ctx context.Context, sessionID uuid.UUID) ([]*domain.ExamSlot, error)

	// UpsertAnswer records an answer keyed by (session, slot); re-answering
	// overwrites the prior row. Last-write-wins is acceptable here - users
	// answer their own slots sequentially.
	UpsertAnswer(ctx context.Context, answer *domain.ExamAnswer) error

	// ListAnswers returns all recorded answers for the session.
	ListAnswers(ctx context.Context, sessionID uuid.UUID) ([]*domain.ExamAnswer, error)

	// CreateResult inserts the session's result row.
	// Returns ErrResultExists if a result was already written.
	CreateResult(ctx context.Context, result *domain.ExamResult) error

	// GetResult retrieves the result for a session, scoped to its owner.
	// Returns ErrResultNotFound when the session has no result yet.
	GetResult(ctx context.Context, userID, sessionID uuid.UUID) (*domain.ExamResult, error)

	// ListResults returns the user's results, newest first.
	ListResults(ctx context.Context, userID uuid.UUID) ([]*domain.ExamResult, error)

	// WithTx returns an ExamStore bound to the given transaction, so
	// multi-statement operations (session + slot batch, aggregate + result
	// + status flip) commit or roll back as a unit.
	WithTx(tx *sql.Tx) ExamStore

	// DB exposes the underlying connection for RunInTransaction.
	DB() *sql.DB
}
