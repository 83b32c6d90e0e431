package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/toeicprep/engine/internal/domain"
	"github.com/toeicprep/engine/internal/platform/clock"
	"github.com/toeicprep/engine/internal/platform/logger"
	"github.com/toeicprep/engine/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*quotaServiceImpl)(nil)

// quotaServiceImpl implements the Service interface.
type quotaServiceImpl struct {
	subscriptions store.SubscriptionStore
	usage         store.UsageStore
	clock         clock.Clock
	logger        *slog.Logger
}

// NewService creates a new quota Service implementation.
func NewService(
	subscriptions store.SubscriptionStore,
	usage store.UsageStore,
	clk clock.Clock,
	logger *slog.Logger,
) Service {
	if subscriptions == nil {
		panic("subscriptions cannot be nil")
	}
	if usage == nil {
		panic("usage cannot be nil")
	}
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &quotaServiceImpl{
		subscriptions: subscriptions,
		usage:         usage,
		clock:         clk,
		logger:        logger.With(slog.String("component", "quota_service")),
	}
}

// limitsOf resolves the user's plan limit table.
func (s *quotaServiceImpl) limitsOf(ctx context.Context, userID uuid.UUID) (domain.PlanLimits, error) {
	tier, err := s.subscriptions.PlanOf(ctx, userID)
	if err != nil {
		return domain.PlanLimits{}, unavailable("resolve plan", err)
	}
	return domain.Limits(tier), nil
}

// counterFor fetches the counter row for the action's current period,
// synthesizing a zero-valued counter when none exists yet.
func (s *quotaServiceImpl) counterFor(
	ctx context.Context,
	userID uuid.UUID,
	periodKey string,
) (*domain.UsageCounter, error) {
	counter, err := s.usage.Get(ctx, userID, periodKey)
	if errors.Is(err, store.ErrNotFound) {
		return &domain.UsageCounter{UserID: userID, PeriodKey: periodKey}, nil
	}
	if err != nil {
		return nil, unavailable("read usage counter", err)
	}
	return counter, nil
}

// Check implements Service.Check.
func (s *quotaServiceImpl) Check(
	ctx context.Context,
	userID uuid.UUID,
	action domain.ActionKind,
) (CheckResult, error) {
	if !action.IsValid() {
		return CheckResult{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	limits, err := s.limitsOf(ctx, userID)
	if err != nil {
		return CheckResult{}, err
	}

	limit := limits.ActionLimit(action)
	if limit == nil {
		// Unlimited: no need to read the counter at all.
		return newCheckResult(0, nil), nil
	}

	counter, err := s.counterFor(ctx, userID, domain.PeriodKeyFor(action, s.clock.Now()))
	if err != nil {
		return CheckResult{}, err
	}

	return newCheckResult(counter.Count(action), limit), nil
}

// Increment implements Service.Increment.
func (s *quotaServiceImpl) Increment(
	ctx context.Context,
	userID uuid.UUID,
	action domain.ActionKind,
) (CheckResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !action.IsValid() {
		return CheckResult{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	limits, err := s.limitsOf(ctx, userID)
	if err != nil {
		return CheckResult{}, err
	}
	limit := limits.ActionLimit(action)

	// Re-validate before counting, closing the race between the caller's
	// earlier Check and this Increment.
	if limit != nil {
		current, err := s.Check(ctx, userID, action)
		if err != nil {
			return CheckResult{}, err
		}
		if !current.Allowed {
			return current, nil
		}
	}

	periodKey := domain.PeriodKeyFor(action, s.clock.Now())
	newCount, err := s.usage.Increment(ctx, userID, periodKey, action)
	if err != nil {
		// The atomic statement failed; report the last-known state rather
		// than pretending the action was counted.
		log.Error("atomic usage increment failed",
			slog.String("user_id", userID.String()),
			slog.String("action", string(action)),
			slog.String("error", err.Error()))
		return s.Check(ctx, userID, action)
	}

	return newCheckResult(newCount, limit), nil
}

// CheckFeature implements Service.CheckFeature.
func (s *quotaServiceImpl) CheckFeature(
	ctx context.Context,
	userID uuid.UUID,
	feature domain.FeatureKind,
) (FeatureCheckResult, error) {
	if !feature.IsValid() {
		return FeatureCheckResult{}, fmt.Errorf("%w: %q", ErrUnknownFeature, feature)
	}

	limits, err := s.limitsOf(ctx, userID)
	if err != nil {
		return FeatureCheckResult{}, err
	}

	if limits.HasFeature(feature) {
		return FeatureCheckResult{Allowed: true}, nil
	}

	return FeatureCheckResult{
		Allowed:         false,
		Reason:          featureLockReasons[feature],
		UpgradeRequired: true,
	}, nil
}

// TodayUsage implements Service.TodayUsage.
func (s *quotaServiceImpl) TodayUsage(ctx context.Context, userID uuid.UUID) (*domain.UsageCounter, error) {
	return s.counterFor(ctx, userID, domain.DailyPeriodKey(s.clock.Now()))
}

// Summary implements Service.Summary.
func (s *quotaServiceImpl) Summary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	tier, err := s.subscriptions.PlanOf(ctx, userID)
	if err != nil {
		return nil, unavailable("resolve plan", err)
	}
	limits := domain.Limits(tier)

	counter, err := s.counterFor(ctx, userID, domain.DailyPeriodKey(s.clock.Now()))
	if err != nil {
		return nil, err
	}

	return &Summary{
		PlanTier: tier,
		Daily: DailyUsage{
			Reading:    newCheckResult(counter.ReadingCount, limits.Reading),
			Grammar:    newCheckResult(counter.GrammarCount, limits.Grammar),
			Vocabulary: newCheckResult(counter.VocabularyCount, limits.Vocabulary),
		},
		Features: FeatureFlags{
			MockExam:          limits.HasFeature(domain.FeatureMockExam),
			DetailedAnalytics: limits.HasFeature(domain.FeatureDetailedAnalytics),
			ReviewSchedule:    limits.HasFeature(domain.FeatureReviewSchedule),
			Bookmarks:         limits.HasFeature(domain.FeatureBookmarks),
			AIGeneration:      limits.HasFeature(domain.FeatureAIGeneration),
		},
	}, nil
}
