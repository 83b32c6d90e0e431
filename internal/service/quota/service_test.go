package quota

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toeicprep/engine/internal/domain"
	"github.com/toeicprep/engine/internal/platform/clock"
	"github.com/toeicprep/engine/internal/store"
)

// fakeSubscriptionStore returns a fixed plan tier, or an error.
type fakeSubscriptionStore struct {
	tier domain.PlanTier
	err  error
}

func (f *fakeSubscriptionStore) PlanOf(_ context.Context, _ uuid.UUID) (domain.PlanTier, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.tier, nil
}

// fakeUsageStore keeps counters in memory. Increment holds a mutex for the
// whole operation, matching the atomicity contract of the real store.
type fakeUsageStore struct {
	mu     sync.Mutex
	counts map[string]map[domain.ActionKind]int

	getErr error
	incErr error

	getCalls int
}

func newFakeUsageStore() *fakeUsageStore {
	return &fakeUsageStore{counts: make(map[string]map[domain.ActionKind]int)}
}

func (f *fakeUsageStore) key(userID uuid.UUID, periodKey string) string {
	return fmt.Sprintf("%s|%s", userID, periodKey)
}

func (f *fakeUsageStore) Get(_ context.Context, userID uuid.UUID, periodKey string) (*domain.UsageCounter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}

	actions, ok := f.counts[f.key(userID, periodKey)]
	if !ok {
		return nil, store.ErrUsageCounterNotFound
	}
	return &domain.UsageCounter{
		UserID:            userID,
		PeriodKey:         periodKey,
		ReadingCount:      actions[domain.ActionReading],
		GrammarCount:      actions[domain.ActionGrammar],
		VocabularyCount:   actions[domain.ActionVocabulary],
		AIPassageCount:    actions[domain.ActionAIPassage],
		AIGrammarCount:    actions[domain.ActionAIGrammar],
		AIVocabularyCount: actions[domain.ActionAIVocabulary],
	}, nil
}

func (f *fakeUsageStore) Increment(_ context.Context, userID uuid.UUID, periodKey string, action domain.ActionKind) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incErr != nil {
		return 0, f.incErr
	}

	k := f.key(userID, periodKey)
	if f.counts[k] == nil {
		f.counts[k] = make(map[domain.ActionKind]int)
	}
	f.counts[k][action]++
	return f.counts[k][action], nil
}

func (f *fakeUsageStore) set(userID uuid.UUID, periodKey string, action domain.ActionKind, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(userID, periodKey)
	if f.counts[k] == nil {
		f.counts[k] = make(map[domain.ActionKind]int)
	}
	f.counts[k][action] = count
}

var testInstant = time.Date(2025, 7, 4, 10, 0, 0, 0, time.UTC)

func newTestService(tier domain.PlanTier, usage *fakeUsageStore) Service {
	return NewService(
		&fakeSubscriptionStore{tier: tier},
		usage,
		clock.Frozen(testInstant),
		nil,
	)
}

func TestCheck_FreeUserUnderLimit(t *testing.T) {
	t.Parallel()
	usage := newFakeUsageStore()
	svc := newTestService(domain.PlanFree, usage)
	userID := uuid.New()

	usage.set(userID, domain.DailyPeriodKey(testInstant), domain.ActionReading, 3)

	res, err := svc.Check(context.Background(), userID, domain.ActionReading)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 3, res.Current)
	require.NotNil(t, res.Limit)
	assert.Equal(t, 5, *res.Limit)
	require.NotNil(t, res.Remaining)
	assert.Equal(t, 2, *res.Remaining)
}

func TestCheck_FreeUserAtLimit(t *testing.T) {
	t.Parallel()
	usage := newFakeUsageStore()
	svc := newTestService(domain.PlanFree, usage)
	userID := uuid.New()

	usage.set(userID, domain.DailyPeriodKey(testInstant), domain.ActionReading, 5)

	res, err := svc.Check(context.Background(), userID, domain.ActionReading)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	require.NotNil(t, res.Remaining)
	assert.Equal(t, 0, *res.Remaining)
}

func TestCheck_NoCounterRowMeansZeroUsage(t *testing.T) {
	t.Parallel()
	svc := newTestService(domain.PlanFree, newFakeUsageStore())

	res, err := svc.Check(context.Background(), uuid.New(), domain.ActionVocabulary)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Current)
	require.NotNil(t, res.Remaining)
	assert.Equal(t, 20, *res.Remaining)
}

func TestCheck_UnlimitedSkipsCounterRead(t *testing.T) {
	t.Parallel()
	usage := newFakeUsageStore()
	// Poison the counter read: an unlimited action must never reach it.
	usage.getErr = errors.New("counter store down")
	svc := newTestService(domain.PlanPro, usage)

	res, err := svc.Check(context.Background(), uuid.New(), domain.ActionReading)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Nil(t, res.Limit)
	assert.Nil(t, res.Remaining)
	assert.Equal(t, 0, usage.getCalls)
}

func TestCheck_FailsClosedOnStoreError(t *testing.T) {
	t.Parallel()
	usage := newFakeUsageStore()
	usage.getErr = errors.New("connection refused")
	svc := newTestService(domain.PlanFree, usage)

	_, err := svc.Check(context.Background(), uuid.New(), domain.ActionReading)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCheck_FailsClosedOnPlanResolverError(t *testing.T) {
	t.Parallel()
	svc := NewService(
		&fakeSubscriptionStore{err: errors.New("subscriptions down")},
		newFakeUsageStore(),
		clock.Frozen(testInstant),
		nil,
	)

	_, err := svc.Check(context.Background(), uuid.New(), domain.ActionReading)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCheck_UnknownAction(t *testing.T) {
	t.Parallel()
	svc := newTestService(domain.PlanFree, newFakeUsageStore())

	_, err := svc.Check(context.Background(), uuid.New(), domain.ActionKind("listening"))
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestIncrement_CountsAndReturnsNewState(t *testing.T) {
	t.Parallel()
	usage := newFakeUsageStore()
	svc := newTestService(domain.PlanFree, usage)
	userID := uuid.New()

	res, err := svc.Increment(context.Background(), userID, domain.ActionGrammar)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Current)
	require.NotNil(t, res.Remaining)
	assert.Equal(t, 9, *res.Remaining)
}

func TestIncrement_DeniedAtLimitWithoutCounting(t *testing.T) {
	t.Parallel()
	usage := newFakeUsageStore()
	svc := newTestService(domain.PlanFree, usage)
	userID := uuid.New()
	periodKey := domain.DailyPeriodKey(testInstant)

	usage.set(userID, periodKey, domain.ActionReading, 5)

	res, err := svc.Increment(context.Background(), userID, domain.ActionReading)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	// The denied call must not have moved the counter.
	counter, err := usage.Get(context.Background(), userID, periodKey)
	require.NoError(t, err)
	assert.Equal(t, 5, counter.ReadingCount)
}

func TestIncrement_UnlimitedActionsStillCounted(t *testing.T) {
	t.Parallel()
	usage := newFakeUsageStore()
	svc := newTestService(domain.PlanPro, usage)
	userID := uuid.New()

	res, err := svc.Increment(context.Background(), userID, domain.ActionAIPassage)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Current)
	assert.Nil(t, res.Limit)

	counter, err := usage.Get(context.Background(), userID, domain.MonthlyPeriodKey(testInstant))
	require.NoError(t, err)
	assert.Equal(t, 1, counter.AIPassageCount)
}

func TestIncrement_MonthlyActionsUseMonthlyPeriod(t *testing.T) {
	t.Parallel()
	usage := newFakeUsageStore()
	svc := newTestService(domain.PlanPro, usage)
	userID := uuid.New()

	_, err := svc.Increment(context.Background(), userID, domain.ActionAIGrammar)
	require.NoError(t, err)

	// The daily period has no row; the monthly one does.
	_, err = usage.Get(context.Background(), userID, domain.DailyPeriodKey(testInstant))
	assert.ErrorIs(t, err, store.ErrNotFound)
	counter, err := usage.Get(context.Background(), userID, domain.MonthlyPeriodKey(testInstant))
	require.NoError(t, err)
	assert.Equal(t, 1, counter.AIGrammarCount)
}

func TestIncrement_ConcurrentCallsLoseNoUpdates(t *testing.T) {
	t.Parallel()
	usage := newFakeUsageStore()
	svc := newTestService(domain.PlanPro, usage)
	userID := uuid.New()

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Increment(context.Background(), userID, domain.ActionVocabulary)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	counter, err := usage.Get(context.Background(), userID, domain.DailyPeriodKey(testInstant))
	require.NoError(t, err)
	assert.Equal(t, n, counter.VocabularyCount)
}

func TestIncrement_StoreFailureReturnsLastKnownState(t *testing.T) {
	t.Parallel()
	usage := newFakeUsageStore()
	svc := newTestService(domain.PlanFree, usage)
	userID := uuid.New()

	usage.set(userID, domain.DailyPeriodKey(testInstant), domain.ActionReading, 2)
	usage.incErr = errors.New("statement failed")

	res, err := svc.Increment(context.Background(), userID, domain.ActionReading)
	require.NoError(t, err)
	// The action was not counted; the result reflects the stored state.
	assert.Equal(t, 2, res.Current)
}

func TestCheckFeature(t *testing.T) {
	t.Parallel()

	t.Run("free plan is locked out", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(domain.PlanFree, newFakeUsageStore())

		res, err := svc.CheckFeature(context.Background(), uuid.New(), domain.FeatureMockExam)
		require.NoError(t, err)
		assert.False(t, res.Allowed)
		assert.True(t, res.UpgradeRequired)
		assert.NotEmpty(t, res.Reason)
	})

	t.Run("pro plan is allowed", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(domain.PlanPro, newFakeUsageStore())

		res, err := svc.CheckFeature(context.Background(), uuid.New(), domain.FeatureMockExam)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Empty(t, res.Reason)
	})

	t.Run("unknown feature", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(domain.PlanPro, newFakeUsageStore())

		_, err := svc.CheckFeature(context.Background(), uuid.New(), domain.FeatureKind("offline_mode"))
		assert.ErrorIs(t, err, ErrUnknownFeature)
	})
}

func TestTodayUsage_ZeroValuedWithoutRow(t *testing.T) {
	t.Parallel()
	svc := newTestService(domain.PlanFree, newFakeUsageStore())
	userID := uuid.New()

	counter, err := svc.TodayUsage(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, userID, counter.UserID)
	assert.Equal(t, domain.DailyPeriodKey(testInstant), counter.PeriodKey)
	assert.Zero(t, counter.ReadingCount)
}

func TestSummary(t *testing.T) {
	t.Parallel()
	usage := newFakeUsageStore()
	svc := newTestService(domain.PlanFree, usage)
	userID := uuid.New()

	usage.set(userID, domain.DailyPeriodKey(testInstant), domain.ActionReading, 4)

	summary, err := svc.Summary(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanFree, summary.PlanTier)
	assert.True(t, summary.Daily.Reading.Allowed)
	require.NotNil(t, summary.Daily.Reading.Remaining)
	assert.Equal(t, 1, *summary.Daily.Reading.Remaining)
	assert.False(t, summary.Features.MockExam)
	assert.False(t, summary.Features.Bookmarks)
}
