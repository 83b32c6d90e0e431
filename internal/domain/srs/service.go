// Package srs implements the spaced-repetition scheduling algorithm used for
// vocabulary review: an SM-2-style interval progression simplified to a
// binary correct/incorrect outcome and a 0-5 familiarity score.
package srs

import (
	"errors"
	"time"

	"github.com/toeicprep/engine/internal/domain"
)

// Common errors
var (
	ErrNilProgress = errors.New("vocabulary progress cannot be nil")
)

// Service defines the interface for scheduling calculations.
type Service interface {
	// NextReview computes updated progress for one review outcome.
	// The returned progress is a new value; the input is left untouched.
	NextReview(
		progress *domain.VocabularyProgress,
		wasCorrect bool,
		now time.Time,
	) (*domain.VocabularyProgress, error)
}

type defaultService struct {
	params *Params
}

// NewDefaultService creates a scheduling service with the default constants.
func NewDefaultService() Service {
	return &defaultService{params: NewDefaultParams()}
}

// NewServiceWithParams creates a scheduling service with custom constants.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{params: params}
}

func (s *defaultService) NextReview(
	progress *domain.VocabularyProgress,
	wasCorrect bool,
	now time.Time,
) (*domain.VocabularyProgress, error) {
	if progress == nil {
		return nil, ErrNilProgress
	}

	next := calculateNextProgress(progress, wasCorrect, now, s.params)
	if err := next.Validate(); err != nil {
		return nil, err
	}
	return next, nil
}
