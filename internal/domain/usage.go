package domain

import (
	"time"

	"github.com/google/uuid"
)

// UsageCounter holds one user's action counters for a single period.
// A row exists per (user, period key); it is created lazily on the first
// increment of the period and retained afterwards for analytics. Counter
// values only ever grow within a period, and all increments go through the
// store's atomic increment so concurrent requests never lose updates.
type UsageCounter struct {
	UserID            uuid.UUID `json:"user_id"`
	PeriodKey         string    `json:"period_key"` // "2006-01-02" for daily, "2006-01" for monthly
	ReadingCount      int       `json:"reading_count"`
	GrammarCount      int       `json:"grammar_count"`
	VocabularyCount   int       `json:"vocabulary_count"`
	AIPassageCount    int       `json:"ai_passage_count"`
	AIGrammarCount    int       `json:"ai_grammar_count"`
	AIVocabularyCount int       `json:"ai_vocabulary_count"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Count returns the counter value for the given action kind.
func (c *UsageCounter) Count(action ActionKind) int {
	switch action {
	case ActionReading:
		return c.ReadingCount
	case ActionGrammar:
		return c.GrammarCount
	case ActionVocabulary:
		return c.VocabularyCount
	case ActionAIPassage:
		return c.AIPassageCount
	case ActionAIGrammar:
		return c.AIGrammarCount
	case ActionAIVocabulary:
		return c.AIVocabularyCount
	default:
		return 0
	}
}

// DailyPeriodKey formats a time as the counter period key for daily actions.
func DailyPeriodKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// MonthlyPeriodKey formats a time as the counter period key for monthly actions.
func MonthlyPeriodKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// PeriodKeyFor returns the period key appropriate for the action kind.
func PeriodKeyFor(action ActionKind, t time.Time) string {
	if action.IsMonthly() {
		return MonthlyPeriodKey(t)
	}
	return DailyPeriodKey(t)
}
