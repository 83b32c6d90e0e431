// Package review implements vocabulary review scheduling on top of the
// spaced-repetition algorithm in internal/domain/srs, plus the plan-gated
// bookmark and review-calendar features.
package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/toeicprep/engine/internal/domain"
)

// Common error types for the review service
var (
	// ErrFeatureLocked indicates the user's plan does not include the
	// requested feature (bookmarks, review scheduling).
	ErrFeatureLocked = errors.New("feature not available on current plan")

	// ErrNotFound indicates the requested bookmark or schedule entry does
	// not exist.
	ErrNotFound = errors.New("review item not found")

	// ErrInvalidItemType indicates an unknown review item type.
	ErrInvalidItemType = errors.New("invalid review item type")
)

// VocabularyStats summarizes a user's vocabulary progress for dashboards.
type VocabularyStats struct {
	Learned         int `json:"learned"`          // familiarity >= 1
	Mastered        int `json:"mastered"`         // familiarity >= 4
	AccuracyPercent int `json:"accuracy_percent"` // lifetime correct / attempts
	DueNow          int `json:"due_now"`
}

// Service is the spaced-repetition scheduler and review feature surface.
type Service interface {
	// RecordReview applies one flashcard outcome to the item's progress:
	// familiarity steps within [0,5], the interval grows 2.5x on correct
	// (seeded at 3 days, capped at 180) and resets to 1 day on incorrect,
	// and the next due date moves accordingly. The first-ever review of an
	// item starts from a zero-valued progress row.
	RecordReview(ctx context.Context, userID, vocabularyID uuid.UUID, wasCorrect bool) (*domain.VocabularyProgress, error)

	// DueItems returns progress rows due for review now, ordered by due
	// time ascending, capped at limit.
	DueItems(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.VocabularyProgress, error)

	// Stats aggregates the user's lifetime vocabulary progress.
	Stats(ctx context.Context, userID uuid.UUID) (*VocabularyStats, error)

	// AddBookmark saves (or refreshes) a bookmark. Plan-gated: free-tier
	// users get ErrFeatureLocked.
	AddBookmark(ctx context.Context, userID uuid.UUID, itemType domain.ReviewItemType, itemID uuid.UUID, note string) (*domain.Bookmark, error)

	// RemoveBookmark deletes a bookmark; removing an absent one is a no-op.
	RemoveBookmark(ctx context.Context, userID uuid.UUID, itemType domain.ReviewItemType, itemID uuid.UUID) error

	// IsBookmarked reports whether the item is bookmarked.
	IsBookmarked(ctx context.Context, userID uuid.UUID, itemType domain.ReviewItemType, itemID uuid.UUID) (bool, error)

	// ListBookmarks returns the user's bookmarks newest first, optionally
	// filtered by item type (empty means all).
	ListBookmarks(ctx context.Context, userID uuid.UUID, itemType domain.ReviewItemType) ([]*domain.Bookmark, error)

	// ScheduleReview puts an item on the user's review calendar for a
	// date. Plan-gated like bookmarks.
	ScheduleReview(ctx context.Context, userID uuid.UUID, itemType domain.ReviewItemType, itemID uuid.UUID, date string, priority domain.ReviewPriority) (*domain.ScheduledReview, error)

	// DueSchedule returns uncompleted calendar entries due today or
	// earlier, highest priority first.
	DueSchedule(ctx context.Context, userID uuid.UUID) ([]*domain.ScheduledReview, error)

	// CompleteScheduled marks a calendar entry done.
	CompleteScheduled(ctx context.Context, userID, scheduleID uuid.UUID) error
}

// ServiceError wraps errors from the review service with operation context,
// so consumers can use errors.As instead of string matching.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}
