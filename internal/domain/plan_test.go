package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimits_FreePlan(t *testing.T) {
	t.Parallel()
	limits := Limits(PlanFree)

	require.NotNil(t, limits.Reading)
	assert.Equal(t, 5, *limits.Reading)
	require.NotNil(t, limits.Grammar)
	assert.Equal(t, 10, *limits.Grammar)
	require.NotNil(t, limits.Vocabulary)
	assert.Equal(t, 20, *limits.Vocabulary)

	for _, action := range []ActionKind{ActionAIPassage, ActionAIGrammar, ActionAIVocabulary} {
		limit := limits.ActionLimit(action)
		require.NotNil(t, limit, "action %s", action)
		assert.Equal(t, 0, *limit, "action %s", action)
	}

	assert.False(t, limits.HasFeature(FeatureMockExam))
	assert.False(t, limits.HasFeature(FeatureDetailedAnalytics))
	assert.False(t, limits.HasFeature(FeatureReviewSchedule))
	assert.False(t, limits.HasFeature(FeatureBookmarks))
	assert.False(t, limits.HasFeature(FeatureAIGeneration))
}

func TestLimits_ProPlanIsUnlimited(t *testing.T) {
	t.Parallel()
	limits := Limits(PlanPro)

	for _, action := range []ActionKind{
		ActionReading, ActionGrammar, ActionVocabulary,
		ActionAIPassage, ActionAIGrammar, ActionAIVocabulary,
	} {
		assert.Nil(t, limits.ActionLimit(action), "action %s", action)
	}

	for _, feature := range []FeatureKind{
		FeatureMockExam, FeatureDetailedAnalytics, FeatureReviewSchedule,
		FeatureBookmarks, FeatureAIGeneration,
	} {
		assert.True(t, limits.HasFeature(feature), "feature %s", feature)
	}
}

func TestLimits_UnknownTierFallsBackToFree(t *testing.T) {
	t.Parallel()

	// A corrupt or future tier value must never widen access.
	limits := Limits(PlanTier("enterprise"))
	assert.Equal(t, Limits(PlanFree), limits)
}

func TestActionLimit_UnknownActionIsZero(t *testing.T) {
	t.Parallel()

	limit := Limits(PlanPro).ActionLimit(ActionKind("listening"))
	require.NotNil(t, limit)
	assert.Equal(t, 0, *limit)
}

func TestActionKind_IsMonthly(t *testing.T) {
	t.Parallel()

	assert.False(t, ActionReading.IsMonthly())
	assert.False(t, ActionGrammar.IsMonthly())
	assert.False(t, ActionVocabulary.IsMonthly())
	assert.True(t, ActionAIPassage.IsMonthly())
	assert.True(t, ActionAIGrammar.IsMonthly())
	assert.True(t, ActionAIVocabulary.IsMonthly())
}
