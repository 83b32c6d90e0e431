package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReviewItemType is the category of a bookmarked or scheduled study item.
type ReviewItemType string

// Possible review item type values
const (
	ReviewItemVocabulary ReviewItemType = "vocabulary"
	ReviewItemGrammar    ReviewItemType = "grammar"
	ReviewItemReading    ReviewItemType = "reading"
)

// IsValid reports whether the review item type is known.
func (t ReviewItemType) IsValid() bool {
	switch t {
	case ReviewItemVocabulary, ReviewItemGrammar, ReviewItemReading:
		return true
	default:
		return false
	}
}

// Bookmark marks a study item the user wants to revisit. Upserted on
// (user, item type, item id), so bookmarking twice is a no-op apart from
// refreshing the note.
type Bookmark struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	ItemType  ReviewItemType `json:"item_type"`
	ItemID    uuid.UUID      `json:"item_id"`
	Note      string         `json:"note,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ReviewPriority orders scheduled review items; higher comes first.
type ReviewPriority int

// Possible review priority values
const (
	PriorityLow    ReviewPriority = 1
	PriorityNormal ReviewPriority = 2
	PriorityHigh   ReviewPriority = 3
)

// ScheduledReview is one entry on a user's review calendar, upserted on
// (user, item type, item id, scheduled date).
type ScheduledReview struct {
	ID            uuid.UUID      `json:"id"`
	UserID        uuid.UUID      `json:"user_id"`
	ItemType      ReviewItemType `json:"item_type"`
	ItemID        uuid.UUID      `json:"item_id"`
	ScheduledDate string         `json:"scheduled_date"` // "2006-01-02"
	Priority      ReviewPriority `json:"priority"`
	IsCompleted   bool           `json:"is_completed"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
