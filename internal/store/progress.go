package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/toeicprep/engine/internal/domain"
)

// ProgressStore persists per-user, per-item vocabulary recall progress.
type ProgressStore interface {
	// Get retrieves the progress row for (user, vocabulary item).
	// Returns ErrProgressNotFound when the item has never been reviewed.
	Get(ctx context.Context, userID, vocabularyID uuid.UUID) (*domain.VocabularyProgress, error)

	// Upsert writes the progress row, inserting on first review and
	// overwriting on every review after that, keyed by (user, item).
	Upsert(ctx context.Context, progress *domain.VocabularyProgress) error

	// ListDue returns items whose NextReviewAt is at or before the given
	// instant, ordered ascending by NextReviewAt and capped at limit.
	// Re-querying reflects current due state; no cursor is held.
	ListDue(ctx context.Context, userID uuid.UUID, before time.Time, limit int) ([]*domain.VocabularyProgress, error)

	// ListAll returns every progress row for the user, for stats aggregation.
	ListAll(ctx context.Context, userID uuid.UUID) ([]*domain.VocabularyProgress, error)
}
