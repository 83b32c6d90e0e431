package srs

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toeicprep/engine/internal/domain"
)

func TestCalculateNewFamiliarity(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		current    int
		wasCorrect bool
		expected   int
	}{
		{name: "correct answer steps up", current: 2, wasCorrect: true, expected: 3},
		{name: "incorrect answer steps down", current: 2, wasCorrect: false, expected: 1},
		{name: "correct at max stays at max", current: 5, wasCorrect: true, expected: 5},
		{name: "incorrect at min stays at min", current: 0, wasCorrect: false, expected: 0},
		{name: "first correct on new item", current: 0, wasCorrect: true, expected: 1},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, calculateNewFamiliarity(tc.current, tc.wasCorrect))
		})
	}
}

func TestCalculateNewInterval(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	testCases := []struct {
		name       string
		current    int
		wasCorrect bool
		expected   int
	}{
		{name: "first correct answer seeds the interval", current: 0, wasCorrect: true, expected: 3},
		{name: "second correct answer multiplies", current: 3, wasCorrect: true, expected: 7}, // 3 * 2.5 = 7.5 truncated
		{name: "third correct answer multiplies again", current: 7, wasCorrect: true, expected: 17},
		{name: "growth caps at max", current: 100, wasCorrect: true, expected: 180},
		{name: "at cap stays at cap", current: 180, wasCorrect: true, expected: 180},
		{name: "incorrect resets a long interval", current: 180, wasCorrect: false, expected: 1},
		{name: "incorrect resets a short interval", current: 3, wasCorrect: false, expected: 1},
		{name: "incorrect on new item", current: 0, wasCorrect: false, expected: 1},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, calculateNewInterval(tc.current, tc.wasCorrect, params))
		})
	}
}

func TestCalculateNextProgress_CorrectStreak(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	progress, err := domain.NewVocabularyProgress(uuid.New(), uuid.New(), now)
	require.NoError(t, err)

	// A streak of correct answers must grow the interval monotonically up
	// to the cap, with familiarity never leaving [0,5].
	prevInterval := 0
	for i := 0; i < 20; i++ {
		progress = calculateNextProgress(progress, true, now, params)

		assert.GreaterOrEqual(t, progress.IntervalDays, prevInterval)
		assert.LessOrEqual(t, progress.IntervalDays, params.MaxIntervalDays)
		assert.GreaterOrEqual(t, progress.Familiarity, domain.MinFamiliarity)
		assert.LessOrEqual(t, progress.Familiarity, domain.MaxFamiliarity)
		prevInterval = progress.IntervalDays
		now = progress.NextReviewAt
	}

	assert.Equal(t, params.MaxIntervalDays, progress.IntervalDays)
	assert.Equal(t, domain.MaxFamiliarity, progress.Familiarity)
	assert.Equal(t, 20, progress.CorrectCount)
	assert.Equal(t, 0, progress.IncorrectCount)
}

func TestCalculateNextProgress_WorkedExample(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	progress, err := domain.NewVocabularyProgress(uuid.New(), uuid.New(), now)
	require.NoError(t, err)

	// First review correct: interval 3, familiarity 1, due in 3 days.
	progress = calculateNextProgress(progress, true, now, params)
	assert.Equal(t, 3, progress.IntervalDays)
	assert.Equal(t, 1, progress.Familiarity)
	assert.Equal(t, now.AddDate(0, 0, 3), progress.NextReviewAt)

	// Second review correct: 3 x 2.5 truncates to 7, familiarity 2.
	progress = calculateNextProgress(progress, true, now, params)
	assert.Equal(t, 7, progress.IntervalDays)
	assert.Equal(t, 2, progress.Familiarity)

	// Third review incorrect: interval resets to 1, familiarity drops to 1.
	progress = calculateNextProgress(progress, false, now, params)
	assert.Equal(t, 1, progress.IntervalDays)
	assert.Equal(t, 1, progress.Familiarity)
	assert.Equal(t, now.AddDate(0, 0, 1), progress.NextReviewAt)
}

func TestCalculateNextProgress_DoesNotMutateInput(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	original, err := domain.NewVocabularyProgress(uuid.New(), uuid.New(), now)
	require.NoError(t, err)
	snapshot := *original

	_ = calculateNextProgress(original, true, now.Add(time.Hour), params)

	assert.Equal(t, snapshot, *original)
}
