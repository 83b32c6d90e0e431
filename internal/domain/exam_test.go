package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFor(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		examType  ExamType
		minutes   int
		part5     int
		part6     int
		part7     int
	}{
		{examType: ExamFull, minutes: 75, part5: 30, part6: 16, part7: 54},
		{examType: ExamMini30, minutes: 30, part5: 15, part6: 4, part7: 10},
		{examType: ExamMini15, minutes: 15, part5: 10, part6: 0, part7: 5},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(string(tc.examType), func(t *testing.T) {
			t.Parallel()
			cfg, err := ConfigFor(tc.examType)
			require.NoError(t, err)
			assert.Equal(t, tc.minutes, cfg.TimeLimitMinutes)
			assert.Equal(t, tc.part5, cfg.Part5Count)
			assert.Equal(t, tc.part6, cfg.Part6Count)
			assert.Equal(t, tc.part7, cfg.Part7Count)
		})
	}

	_, err := ConfigFor(ExamType("listening"))
	assert.ErrorIs(t, err, ErrInvalidExamType)
}

func TestExamSession_Deadline(t *testing.T) {
	t.Parallel()
	start := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)

	session, err := NewExamSession(uuid.New(), ExamMini15, start)
	require.NoError(t, err)

	assert.Equal(t, start.Add(15*time.Minute), session.Deadline())
	assert.False(t, session.Expired(start))
	assert.False(t, session.Expired(start.Add(14*time.Minute)))
	assert.True(t, session.Expired(start.Add(15*time.Minute)))
	assert.True(t, session.Expired(start.Add(time.Hour)))
}

func TestExamStatus_IsTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, ExamInProgress.IsTerminal())
	assert.True(t, ExamCompleted.IsTerminal())
	assert.True(t, ExamAbandoned.IsTerminal())
}

func TestAnswerChoiceIndex(t *testing.T) {
	t.Parallel()

	for choice, want := range map[string]int{"A": 0, "B": 1, "C": 2, "D": 3} {
		got, err := AnswerChoiceIndex(choice)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := AnswerChoiceIndex("E")
	assert.ErrorIs(t, err, ErrInvalidAnswerChoice)
	_, err = AnswerChoiceIndex("a")
	assert.ErrorIs(t, err, ErrInvalidAnswerChoice)
}

func TestEstimatedScore(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		correct int
		total   int
		want    int
	}{
		{name: "all wrong scores the floor", correct: 0, total: 100, want: 200},
		{name: "all correct scores the ceiling", correct: 100, total: 100, want: 990},
		{name: "nine of fifteen", correct: 9, total: 15, want: 674}, // 200 + 0.6*790 = 674
		{name: "midpoint accuracy", correct: 1, total: 2, want: 595},
		{name: "empty session scores the floor", correct: 0, total: 0, want: 200},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, EstimatedScore(tc.correct, tc.total))
		})
	}
}
