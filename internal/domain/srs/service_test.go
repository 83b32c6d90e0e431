package srs

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toeicprep/engine/internal/domain"
)

func TestNextReview_NilProgress(t *testing.T) {
	t.Parallel()
	svc := NewDefaultService()

	_, err := svc.NextReview(nil, true, time.Now())
	assert.ErrorIs(t, err, ErrNilProgress)
}

func TestNextReview_FirstCorrect(t *testing.T) {
	t.Parallel()
	svc := NewDefaultService()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	progress, err := domain.NewVocabularyProgress(uuid.New(), uuid.New(), now)
	require.NoError(t, err)

	next, err := svc.NextReview(progress, true, now)
	require.NoError(t, err)

	assert.Equal(t, 3, next.IntervalDays)
	assert.Equal(t, 1, next.Familiarity)
	assert.Equal(t, now, next.LastReviewedAt)
	assert.Equal(t, now.AddDate(0, 0, 3), next.NextReviewAt)
}

func TestNextReview_CustomParams(t *testing.T) {
	t.Parallel()
	svc := NewServiceWithParams(&Params{
		CorrectMultiplier:     2.0,
		IncorrectIntervalDays: 2,
		SeedIntervalDays:      5,
		MaxIntervalDays:       10,
	})
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	progress, err := domain.NewVocabularyProgress(uuid.New(), uuid.New(), now)
	require.NoError(t, err)

	next, err := svc.NextReview(progress, true, now)
	require.NoError(t, err)
	assert.Equal(t, 5, next.IntervalDays)

	next, err = svc.NextReview(next, true, now)
	require.NoError(t, err)
	assert.Equal(t, 10, next.IntervalDays) // 5 * 2 = 10, at the cap

	next, err = svc.NextReview(next, false, now)
	require.NoError(t, err)
	assert.Equal(t, 2, next.IntervalDays)
}
