package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodKeyFor(t *testing.T) {
	t.Parallel()
	at := time.Date(2025, 7, 4, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, "2025-07-04", PeriodKeyFor(ActionReading, at))
	assert.Equal(t, "2025-07-04", PeriodKeyFor(ActionVocabulary, at))
	assert.Equal(t, "2025-07", PeriodKeyFor(ActionAIPassage, at))
}

func TestPeriodKeys_NormalizeToUTC(t *testing.T) {
	t.Parallel()

	// 23:30 in UTC+9 is 14:30 UTC the same day; 01:30 in UTC+9 is the
	// previous UTC day. Period boundaries follow UTC, not local time.
	tokyo := time.FixedZone("UTC+9", 9*60*60)
	assert.Equal(t, "2025-07-04", DailyPeriodKey(time.Date(2025, 7, 4, 23, 30, 0, 0, tokyo)))
	assert.Equal(t, "2025-07-03", DailyPeriodKey(time.Date(2025, 7, 4, 1, 30, 0, 0, tokyo)))
	assert.Equal(t, "2025-06", MonthlyPeriodKey(time.Date(2025, 7, 1, 8, 0, 0, 0, tokyo)))
}

func TestUsageCounter_Count(t *testing.T) {
	t.Parallel()
	counter := &UsageCounter{
		ReadingCount:      1,
		GrammarCount:      2,
		VocabularyCount:   3,
		AIPassageCount:    4,
		AIGrammarCount:    5,
		AIVocabularyCount: 6,
	}

	assert.Equal(t, 1, counter.Count(ActionReading))
	assert.Equal(t, 2, counter.Count(ActionGrammar))
	assert.Equal(t, 3, counter.Count(ActionVocabulary))
	assert.Equal(t, 4, counter.Count(ActionAIPassage))
	assert.Equal(t, 5, counter.Count(ActionAIGrammar))
	assert.Equal(t, 6, counter.Count(ActionAIVocabulary))
	assert.Equal(t, 0, counter.Count(ActionKind("listening")))
}
