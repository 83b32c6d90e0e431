package domain

import (
	"time"

	"github.com/google/uuid"
)

// ExamType determines the time limit and part composition of a timed
// assessment session.
type ExamType string

// Possible exam type values
const (
	ExamFull   ExamType = "full"
	ExamMini30 ExamType = "mini_30"
	ExamMini15 ExamType = "mini_15"
)

// IsValid reports whether the exam type is known.
func (t ExamType) IsValid() bool {
	_, ok := examConfigs[t]
	return ok
}

// ExamConfig holds the static per-exam-type composition: how many questions
// each part contributes and the session time limit.
type ExamConfig struct {
	Type             ExamType
	TimeLimitMinutes int
	Part5Count       int
	Part6Count       int
	Part7Count       int
}

// examConfigs mirrors the real TOEIC reading-section proportions for the
// full exam and scales them down for the two mini formats.
var examConfigs = map[ExamType]ExamConfig{
	ExamFull: {
		Type:             ExamFull,
		TimeLimitMinutes: 75,
		Part5Count:       30,
		Part6Count:       16,
		Part7Count:       54,
	},
	ExamMini30: {
		Type:             ExamMini30,
		TimeLimitMinutes: 30,
		Part5Count:       15,
		Part6Count:       4,
		Part7Count:       10,
	},
	ExamMini15: {
		Type:             ExamMini15,
		TimeLimitMinutes: 15,
		Part5Count:       10,
		Part6Count:       0,
		Part7Count:       5,
	},
}

// ConfigFor returns the static configuration for the given exam type.
func ConfigFor(examType ExamType) (ExamConfig, error) {
	cfg, ok := examConfigs[examType]
	if !ok {
		return ExamConfig{}, ErrInvalidExamType
	}
	return cfg, nil
}

// ExamStatus is the lifecycle state of an assessment session.
type ExamStatus string

// Possible exam status values. Completed and abandoned are terminal.
const (
	ExamInProgress ExamStatus = "in_progress"
	ExamCompleted  ExamStatus = "completed"
	ExamAbandoned  ExamStatus = "abandoned"
)

// IsTerminal reports whether the status permits no further transitions.
func (s ExamStatus) IsTerminal() bool {
	return s == ExamCompleted || s == ExamAbandoned
}

// ExamPart identifies one section of the exam. Slot order across parts is
// fixed: part 5 first, then part 6, then part 7.
type ExamPart string

// Possible exam part values
const (
	Part5 ExamPart = "part5" // grammar, incomplete sentences
	Part6 ExamPart = "part6" // grammar, text completion
	Part7 ExamPart = "part7" // reading comprehension passages
)

// ItemKind is the category of the underlying question item, which also
// determines how its stored correct answer is encoded.
type ItemKind string

// Possible item kind values
const (
	ItemGrammar ItemKind = "grammar" // correct answer is letter-coded ("A".."D")
	ItemReading ItemKind = "reading" // correct answer is index-coded (0..3)
)

// ExamSession is one assessment attempt. At most one in_progress session may
// exist per user; the store backs this with a partial unique index.
type ExamSession struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	ExamType         ExamType   `json:"exam_type"`
	Status           ExamStatus `json:"status"`
	TimeLimitMinutes int        `json:"time_limit_minutes"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// NewExamSession creates an in-progress session for the user.
func NewExamSession(userID uuid.UUID, examType ExamType, now time.Time) (*ExamSession, error) {
	if userID == uuid.Nil {
		return nil, ErrEmptyUserID
	}
	cfg, err := ConfigFor(examType)
	if err != nil {
		return nil, err
	}

	return &ExamSession{
		ID:               uuid.New(),
		UserID:           userID,
		ExamType:         examType,
		Status:           ExamInProgress,
		TimeLimitMinutes: cfg.TimeLimitMinutes,
		StartedAt:        now,
	}, nil
}

// Deadline returns the instant after which the session is overdue for
// force-completion. Elapsed time is always measured from StartedAt, never
// from a client-reported duration.
func (s *ExamSession) Deadline() time.Time {
	return s.StartedAt.Add(time.Duration(s.TimeLimitMinutes) * time.Minute)
}

// Expired reports whether the session's time limit has passed at the given
// instant.
func (s *ExamSession) Expired(now time.Time) bool {
	return !now.Before(s.Deadline())
}

// ExamSlot is an ordered, session-scoped reference into an external item
// pool. Slots are created as one atomic batch at session start and are
// immutable afterwards.
type ExamSlot struct {
	ID            uuid.UUID  `json:"id"`
	SessionID     uuid.UUID  `json:"session_id"`
	Part          ExamPart   `json:"part"`
	ItemKind      ItemKind   `json:"item_kind"`
	ItemID        uuid.UUID  `json:"item_id"`
	PassageID     *uuid.UUID `json:"passage_id,omitempty"` // set for reading slots only
	OrderIndex    int        `json:"order_index"`
	IsAIGenerated bool       `json:"is_ai_generated"`
}

// ExamAnswer is one recorded answer, keyed by (session, slot). Re-answering
// overwrites the previous row rather than duplicating it.
type ExamAnswer struct {
	SessionID        uuid.UUID `json:"session_id"`
	SlotID           uuid.UUID `json:"slot_id"`
	SelectedAnswer   string    `json:"selected_answer"` // "A".."D"
	IsCorrect        bool      `json:"is_correct"`
	TimeSpentSeconds int       `json:"time_spent_seconds"`
	AnsweredAt       time.Time `json:"answered_at"`
}

// answerChoices maps the letter choices to their 0-based index, used to
// normalize against index-coded reading answers.
var answerChoices = map[string]int{"A": 0, "B": 1, "C": 2, "D": 3}

// AnswerChoiceIndex returns the 0-based index of a letter choice.
func AnswerChoiceIndex(choice string) (int, error) {
	idx, ok := answerChoices[choice]
	if !ok {
		return -1, ErrInvalidAnswerChoice
	}
	return idx, nil
}

// ExamResult is the aggregate outcome of a completed session, written
// exactly once at completion and immutable afterwards.
type ExamResult struct {
	SessionID        uuid.UUID `json:"session_id"`
	UserID           uuid.UUID `json:"user_id"`
	TotalQuestions   int       `json:"total_questions"`
	CorrectCount     int       `json:"correct_count"`
	Part5Total       int       `json:"part5_total"`
	Part5Correct     int       `json:"part5_correct"`
	Part6Total       int       `json:"part6_total"`
	Part6Correct     int       `json:"part6_correct"`
	Part7Total       int       `json:"part7_total"`
	Part7Correct     int       `json:"part7_correct"`
	TotalTimeSeconds int       `json:"total_time_seconds"`
	EstimatedScore   int       `json:"estimated_score"` // 200-990
	CreatedAt        time.Time `json:"created_at"`
}

// EstimatedScore maps accuracy in [0,1] onto the 200-990 TOEIC scale.
func EstimatedScore(correct, total int) int {
	if total <= 0 {
		return 200
	}
	accuracy := float64(correct) / float64(total)
	return int(200 + accuracy*790 + 0.5)
}
