package domain

// PlanTier represents a user's subscription level.
type PlanTier string

// Possible plan tier values
const (
	PlanFree PlanTier = "free"
	PlanPro  PlanTier = "pro"
)

// IsValid reports whether the tier is one of the known plan tiers.
func (p PlanTier) IsValid() bool {
	switch p {
	case PlanFree, PlanPro:
		return true
	default:
		return false
	}
}

// ActionKind identifies a quota-gated user action. Daily actions are counted
// against a per-calendar-date limit, AI generation actions against a
// per-calendar-month limit.
type ActionKind string

// Possible action kind values
const (
	ActionReading      ActionKind = "reading"
	ActionGrammar      ActionKind = "grammar"
	ActionVocabulary   ActionKind = "vocabulary"
	ActionAIPassage    ActionKind = "ai_passage"
	ActionAIGrammar    ActionKind = "ai_grammar"
	ActionAIVocabulary ActionKind = "ai_vocabulary"
)

// IsValid reports whether the action kind is known.
func (a ActionKind) IsValid() bool {
	switch a {
	case ActionReading, ActionGrammar, ActionVocabulary,
		ActionAIPassage, ActionAIGrammar, ActionAIVocabulary:
		return true
	default:
		return false
	}
}

// IsMonthly reports whether the action is counted per calendar month
// rather than per calendar date.
func (a ActionKind) IsMonthly() bool {
	switch a {
	case ActionAIPassage, ActionAIGrammar, ActionAIVocabulary:
		return true
	default:
		return false
	}
}

// FeatureKind identifies a boolean plan-gated feature.
type FeatureKind string

// Possible feature kind values
const (
	FeatureMockExam          FeatureKind = "mock_exam"
	FeatureDetailedAnalytics FeatureKind = "detailed_analytics"
	FeatureReviewSchedule    FeatureKind = "review_schedule"
	FeatureBookmarks         FeatureKind = "bookmarks"
	FeatureAIGeneration      FeatureKind = "ai_generation"
)

// IsValid reports whether the feature kind is known.
func (f FeatureKind) IsValid() bool {
	switch f {
	case FeatureMockExam, FeatureDetailedAnalytics, FeatureReviewSchedule,
		FeatureBookmarks, FeatureAIGeneration:
		return true
	default:
		return false
	}
}

// PlanLimits describes the per-feature caps and feature flags of one plan
// tier. A nil limit means unlimited; zero means the action or feature is not
// available on the tier at all. Instances are immutable: Limits returns a
// copy and the package-level table is never exposed directly.
type PlanLimits struct {
	Reading             *int // daily
	Grammar             *int // daily
	Vocabulary          *int // daily
	Bookmarks           *int
	AIPassageMonthly    *int
	AIGrammarMonthly    *int
	AIVocabularyMonthly *int
	MockExamMini        bool
	MockExamFull        bool
	DetailedAnalytics   bool
	ReviewSchedule      bool
}

// planLimits is the static plan table. Pro is unlimited across the board;
// free gets daily practice caps and no Pro features.
var planLimits = map[PlanTier]PlanLimits{
	PlanFree: {
		Reading:             intPtr(5),
		Grammar:             intPtr(10),
		Vocabulary:          intPtr(20),
		Bookmarks:           intPtr(0),
		AIPassageMonthly:    intPtr(0),
		AIGrammarMonthly:    intPtr(0),
		AIVocabularyMonthly: intPtr(0),
		MockExamMini:        false,
		MockExamFull:        false,
		DetailedAnalytics:   false,
		ReviewSchedule:      false,
	},
	PlanPro: {
		Reading:             nil,
		Grammar:             nil,
		Vocabulary:          nil,
		Bookmarks:           nil,
		AIPassageMonthly:    nil,
		AIGrammarMonthly:    nil,
		AIVocabularyMonthly: nil,
		MockExamMini:        true,
		MockExamFull:        true,
		DetailedAnalytics:   true,
		ReviewSchedule:      true,
	},
}

// Limits returns the limit table for the given plan tier. Unknown tiers fall
// back to the free plan so a corrupt subscription row can never widen access.
func Limits(tier PlanTier) PlanLimits {
	limits, ok := planLimits[tier]
	if !ok {
		return planLimits[PlanFree]
	}
	return limits
}

// ActionLimit returns the cap for the given action on this plan.
// A nil return means unlimited.
func (l PlanLimits) ActionLimit(action ActionKind) *int {
	switch action {
	case ActionReading:
		return l.Reading
	case ActionGrammar:
		return l.Grammar
	case ActionVocabulary:
		return l.Vocabulary
	case ActionAIPassage:
		return l.AIPassageMonthly
	case ActionAIGrammar:
		return l.AIGrammarMonthly
	case ActionAIVocabulary:
		return l.AIVocabularyMonthly
	default:
		zero := 0
		return &zero
	}
}

// HasFeature reports whether the plan grants the given feature.
func (l PlanLimits) HasFeature(feature FeatureKind) bool {
	switch feature {
	case FeatureMockExam:
		return l.MockExamMini || l.MockExamFull
	case FeatureDetailedAnalytics:
		return l.DetailedAnalytics
	case FeatureReviewSchedule:
		return l.ReviewSchedule
	case FeatureBookmarks:
		return l.Bookmarks == nil || *l.Bookmarks != 0
	case FeatureAIGeneration:
		return limitNonZero(l.AIPassageMonthly) ||
			limitNonZero(l.AIGrammarMonthly) ||
			limitNonZero(l.AIVocabularyMonthly)
	default:
		return false
	}
}

func limitNonZero(limit *int) bool {
	return limit == nil || *limit != 0
}

func intPtr(v int) *int {
	return &v
}
