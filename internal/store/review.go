package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/toeicprep/engine/internal/domain"
)

// ReviewStore persists bookmarks and the manual review calendar.
type ReviewStore interface {
	// UpsertBookmark inserts or refreshes a bookmark keyed by
	// (user, item type, item id) and returns the stored row.
	UpsertBookmark(ctx context.Context, bookmark *domain.Bookmark) (*domain.Bookmark, error)

	// DeleteBookmark removes a bookmark. Deleting an absent bookmark is a
	// no-op, not an error.
	DeleteBookmark(ctx context.Context, userID uuid.UUID, itemType domain.ReviewItemType, itemID uuid.UUID) error

	// GetBookmark retrieves a bookmark, or ErrNotFound when absent.
	GetBookmark(ctx context.Context, userID uuid.UUID, itemType domain.ReviewItemType, itemID uuid.UUID) (*domain.Bookmark, error)

	// ListBookmarks returns the user's bookmarks newest first, optionally
	// filtered by item type (empty string means all).
	ListBookmarks(ctx context.Context, userID uuid.UUID, itemType domain.ReviewItemType) ([]*domain.Bookmark, error)

	// UpsertScheduled inserts or refreshes a calendar entry keyed by
	// (user, item type, item id, scheduled date).
	UpsertScheduled(ctx context.Context, item *domain.ScheduledReview) (*domain.ScheduledReview, error)

	// ListDueScheduled returns uncompleted entries scheduled on or before
	// the given date key, ordered priority descending then date ascending.
	ListDueScheduled(ctx context.Context, userID uuid.UUID, dateKey string) ([]*domain.ScheduledReview, error)

	// CompleteScheduled marks a calendar entry completed.
	// Returns ErrNotFound when the entry does not exist or is not owned.
	CompleteScheduled(ctx context.Context, userID, scheduleID uuid.UUID, completedAt time.Time) error
}
