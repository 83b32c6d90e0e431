package domain

import (
	"time"

	"github.com/google/uuid"
)

// Familiarity bounds for vocabulary progress.
const (
	MinFamiliarity = 0
	MaxFamiliarity = 5
)

// VocabularyProgress tracks one user's recall strength for a single
// vocabulary item. A row is created on the first review of the item and
// mutated on every review after that; it is never deleted.
type VocabularyProgress struct {
	UserID         uuid.UUID `json:"user_id"`
	VocabularyID   uuid.UUID `json:"vocabulary_id"`
	Familiarity    int       `json:"familiarity"`  // 0-5
	CorrectCount   int       `json:"correct_count"`
	IncorrectCount int       `json:"incorrect_count"`
	LastReviewedAt time.Time `json:"last_reviewed_at"`
	NextReviewAt   time.Time `json:"next_review_at"`
	IntervalDays   int       `json:"interval_days"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewVocabularyProgress creates a zero-valued progress row for an item the
// user has never reviewed. The scheduling algorithm treats the zero interval
// as "no prior interval" and seeds it on the first correct answer.
func NewVocabularyProgress(userID, vocabularyID uuid.UUID, now time.Time) (*VocabularyProgress, error) {
	if userID == uuid.Nil {
		return nil, ErrEmptyUserID
	}
	if vocabularyID == uuid.Nil {
		return nil, ErrEmptyItemID
	}

	return &VocabularyProgress{
		UserID:       userID,
		VocabularyID: vocabularyID,
		Familiarity:  MinFamiliarity,
		IntervalDays: 0,
		NextReviewAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Validate checks the progress invariants: familiarity within [0,5] and a
// non-negative interval.
func (p *VocabularyProgress) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrEmptyUserID
	}
	if p.VocabularyID == uuid.Nil {
		return ErrEmptyItemID
	}
	if p.Familiarity < MinFamiliarity || p.Familiarity > MaxFamiliarity {
		return ErrInvalidFamiliarity
	}
	if p.IntervalDays < 0 {
		return ErrInvalidInterval
	}
	return nil
}
