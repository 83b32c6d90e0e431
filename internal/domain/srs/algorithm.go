package srs

import (
	"time"

	"github.com/toeicprep/engine/internal/domain"
)

// calculateNewFamiliarity moves the recall-strength score one step in the
// direction of the outcome, clamped to the domain's [0,5] range.
func calculateNewFamiliarity(current int, wasCorrect bool) int {
	if wasCorrect {
		if current >= domain.MaxFamiliarity {
			return domain.MaxFamiliarity
		}
		return current + 1
	}
	if current <= domain.MinFamiliarity {
		return domain.MinFamiliarity
	}
	return current - 1
}

// calculateNewInterval determines the next review interval in days.
//
// A correct answer multiplies the current interval by CorrectMultiplier,
// capped at MaxIntervalDays; an item with no prior interval is seeded with
// SeedIntervalDays instead (so the first correct answer yields the seed, not
// 0 x multiplier). Any incorrect answer resets the interval to
// IncorrectIntervalDays regardless of how long it had grown.
//
// The multiplication truncates toward zero, so 3 -> 7 -> 17 -> ... on a
// correct streak.
func calculateNewInterval(currentDays int, wasCorrect bool, params *Params) int {
	if !wasCorrect {
		return params.IncorrectIntervalDays
	}

	if currentDays == 0 {
		return params.SeedIntervalDays
	}

	next := int(float64(currentDays) * params.CorrectMultiplier)
	if next > params.MaxIntervalDays {
		return params.MaxIntervalDays
	}
	return next
}

// calculateNextProgress returns a new VocabularyProgress reflecting one
// review at the given instant. The input is not mutated; lifetime counters
// increment by exactly one per call.
func calculateNextProgress(
	progress *domain.VocabularyProgress,
	wasCorrect bool,
	now time.Time,
	params *Params,
) *domain.VocabularyProgress {
	next := &domain.VocabularyProgress{
		UserID:         progress.UserID,
		VocabularyID:   progress.VocabularyID,
		Familiarity:    progress.Familiarity,
		CorrectCount:   progress.CorrectCount,
		IncorrectCount: progress.IncorrectCount,
		CreatedAt:      progress.CreatedAt,
	}

	next.Familiarity = calculateNewFamiliarity(progress.Familiarity, wasCorrect)
	next.IntervalDays = calculateNewInterval(progress.IntervalDays, wasCorrect, params)

	if wasCorrect {
		next.CorrectCount++
	} else {
		next.IncorrectCount++
	}

	next.LastReviewedAt = now
	next.NextReviewAt = now.AddDate(0, 0, next.IntervalDays)
	next.UpdatedAt = now

	return next
}
