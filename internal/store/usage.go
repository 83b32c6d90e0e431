package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/toeicprep/engine/internal/domain"
)

// UsageStore persists per-user, per-period action counters.
type UsageStore interface {
	// Get retrieves the counter row for (user, period key).
	// Returns ErrUsageCounterNotFound when no action has been counted for
	// the period yet; callers synthesize a zero-valued counter in that case.
	Get(ctx context.Context, userID uuid.UUID, periodKey string) (*domain.UsageCounter, error)

	// Increment atomically adds one to the counter column for the given
	// action, creating the row if this is the first increment of the
	// period, and returns the post-increment value. It MUST be a single
	// conditional-upsert statement, never a read-modify-write: concurrent
	// increments for the same (user, period, action) may not lose updates.
	Increment(ctx context.Context, userID uuid.UUID, periodKey string, action domain.ActionKind) (int, error)
}
