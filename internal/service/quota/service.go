// Package quota implements the usage quota engine: per-user, per-period
// counters gating free-tier actions against plan limits, plus boolean
// plan-gated feature checks.
//
// Quota denials are results, not errors: callers branch on CheckResult.
// Allowed. Store or resolver failures surface as ErrUnavailable and MUST be
// treated as a deny (fail closed) by anything gating an action on them.
package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/toeicprep/engine/internal/domain"
)

// Common error types for the quota service
var (
	// ErrUnavailable indicates the plan resolver or counter store could not
	// be reached. Gated actions must fail closed on it.
	ErrUnavailable = errors.New("quota service unavailable")

	// ErrUnknownAction indicates an action kind outside the quota table.
	ErrUnknownAction = errors.New("unknown action kind")

	// ErrUnknownFeature indicates a feature kind outside the plan table.
	ErrUnknownFeature = errors.New("unknown feature kind")
)

// CheckResult reports whether a quota-gated action is allowed and how much
// headroom remains. A nil Limit means the plan places no cap on the action;
// Remaining is nil exactly when Limit is.
type CheckResult struct {
	Allowed   bool `json:"allowed"`
	Current   int  `json:"current"`
	Limit     *int `json:"limit"`
	Remaining *int `json:"remaining"`
}

// FeatureCheckResult reports whether a boolean plan-gated feature is
// available, with a human-readable reason when it is not.
type FeatureCheckResult struct {
	Allowed         bool   `json:"allowed"`
	Reason          string `json:"reason,omitempty"`
	UpgradeRequired bool   `json:"upgrade_required,omitempty"`
}

// DailyUsage groups the check results of the three daily practice actions.
type DailyUsage struct {
	Reading    CheckResult `json:"reading"`
	Grammar    CheckResult `json:"grammar"`
	Vocabulary CheckResult `json:"vocabulary"`
}

// FeatureFlags is the dashboard view of the plan's boolean gates.
type FeatureFlags struct {
	MockExam          bool `json:"mock_exam"`
	DetailedAnalytics bool `json:"detailed_analytics"`
	ReviewSchedule    bool `json:"review_schedule"`
	Bookmarks         bool `json:"bookmarks"`
	AIGeneration      bool `json:"ai_generation"`
}

// Summary aggregates a user's plan, daily usage, and feature flags.
type Summary struct {
	PlanTier domain.PlanTier `json:"plan_tier"`
	Daily    DailyUsage      `json:"daily"`
	Features FeatureFlags    `json:"features"`
}

// Service is the usage quota engine.
type Service interface {
	// Check reports whether the user may perform the action right now.
	// Pure read: it never mutates counters. An unlimited action
	// short-circuits to allowed without touching the counter store.
	Check(ctx context.Context, userID uuid.UUID, action domain.ActionKind) (CheckResult, error)

	// Increment counts one performed action and returns the post-increment
	// state. Call it only after the gated action succeeded. The count is a
	// single atomic statement in the store; if that statement fails the
	// last-known Check state is returned instead of a silent success.
	// Unlimited actions are still counted, for analytics.
	Increment(ctx context.Context, userID uuid.UUID, action domain.ActionKind) (CheckResult, error)

	// CheckFeature reports whether the user's plan grants the feature.
	// Pure plan lookup; counters are not involved.
	CheckFeature(ctx context.Context, userID uuid.UUID, feature domain.FeatureKind) (FeatureCheckResult, error)

	// TodayUsage returns the user's raw counters for the current day,
	// zero-valued when nothing has been counted yet.
	TodayUsage(ctx context.Context, userID uuid.UUID) (*domain.UsageCounter, error)

	// Summary aggregates plan tier, daily usage, and feature flags for
	// dashboard rendering.
	Summary(ctx context.Context, userID uuid.UUID) (*Summary, error)
}

// featureLockReasons names each Pro feature in lock messages.
var featureLockReasons = map[domain.FeatureKind]string{
	domain.FeatureMockExam:          "mock exams are a Pro plan feature",
	domain.FeatureDetailedAnalytics: "detailed analytics is a Pro plan feature",
	domain.FeatureReviewSchedule:    "review scheduling is a Pro plan feature",
	domain.FeatureBookmarks:         "bookmarks are a Pro plan feature",
	domain.FeatureAIGeneration:      "AI question generation is a Pro plan feature",
}

// newCheckResult derives the allowed/remaining state from a counter value
// and a plan limit. A nil limit means unlimited.
func newCheckResult(current int, limit *int) CheckResult {
	if limit == nil {
		return CheckResult{Allowed: true, Current: current}
	}

	remaining := *limit - current
	if remaining < 0 {
		remaining = 0
	}
	return CheckResult{
		Allowed:   current < *limit,
		Current:   current,
		Limit:     limit,
		Remaining: &remaining,
	}
}

func unavailable(stage string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, stage, err)
}
