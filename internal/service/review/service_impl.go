package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/toeicprep/engine/internal/domain"
	"github.com/toeicprep/engine/internal/domain/srs"
	"github.com/toeicprep/engine/internal/platform/clock"
	"github.com/toeicprep/engine/internal/platform/logger"
	"github.com/toeicprep/engine/internal/store"
)

// defaultDueLimit caps DueItems when the caller passes a non-positive limit.
const defaultDueLimit = 20

// Verify interface compliance at compile time
var _ Service = (*reviewServiceImpl)(nil)

// reviewServiceImpl implements the Service interface.
type reviewServiceImpl struct {
	progress      store.ProgressStore
	reviews       store.ReviewStore
	subscriptions store.SubscriptionStore
	scheduler     srs.Service
	clock         clock.Clock
	logger        *slog.Logger
}

// NewService creates a new review Service implementation.
func NewService(
	progress store.ProgressStore,
	reviews store.ReviewStore,
	subscriptions store.SubscriptionStore,
	scheduler srs.Service,
	clk clock.Clock,
	logger *slog.Logger,
) Service {
	if progress == nil {
		panic("progress cannot be nil")
	}
	if reviews == nil {
		panic("reviews cannot be nil")
	}
	if subscriptions == nil {
		panic("subscriptions cannot be nil")
	}
	if scheduler == nil {
		scheduler = srs.NewDefaultService()
	}
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &reviewServiceImpl{
		progress:      progress,
		reviews:       reviews,
		subscriptions: subscriptions,
		scheduler:     scheduler,
		clock:         clk,
		logger:        logger.With(slog.String("component", "review_service")),
	}
}

// requireFeature resolves the user's plan and returns ErrFeatureLocked when
// the feature is not included.
func (s *reviewServiceImpl) requireFeature(
	ctx context.Context,
	userID uuid.UUID,
	feature domain.FeatureKind,
) error {
	tier, err := s.subscriptions.PlanOf(ctx, userID)
	if err != nil {
		return &ServiceError{Operation: "resolve plan", Message: "subscription lookup failed", Err: err}
	}
	if !domain.Limits(tier).HasFeature(feature) {
		return fmt.Errorf("%w: %s", ErrFeatureLocked, feature)
	}
	return nil
}

// RecordReview implements Service.RecordReview.
func (s *reviewServiceImpl) RecordReview(
	ctx context.Context,
	userID, vocabularyID uuid.UUID,
	wasCorrect bool,
) (*domain.VocabularyProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.clock.Now()

	current, err := s.progress.Get(ctx, userID, vocabularyID)
	if errors.Is(err, store.ErrNotFound) {
		current, err = domain.NewVocabularyProgress(userID, vocabularyID, now)
	}
	if err != nil {
		return nil, &ServiceError{Operation: "record review", Message: "load progress", Err: err}
	}

	next, err := s.scheduler.NextReview(current, wasCorrect, now)
	if err != nil {
		return nil, &ServiceError{Operation: "record review", Message: "compute schedule", Err: err}
	}

	if err := s.progress.Upsert(ctx, next); err != nil {
		return nil, &ServiceError{Operation: "record review", Message: "save progress", Err: err}
	}

	log.Debug("review recorded",
		slog.String("user_id", userID.String()),
		slog.String("vocabulary_id", vocabularyID.String()),
		slog.Bool("correct", wasCorrect),
		slog.Int("familiarity", next.Familiarity),
		slog.Int("interval_days", next.IntervalDays))

	return next, nil
}

// DueItems implements Service.DueItems.
func (s *reviewServiceImpl) DueItems(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]*domain.VocabularyProgress, error) {
	if limit <= 0 {
		limit = defaultDueLimit
	}

	due, err := s.progress.ListDue(ctx, userID, s.clock.Now(), limit)
	if err != nil {
		return nil, &ServiceError{Operation: "due items", Message: "list due progress", Err: err}
	}
	return due, nil
}

// Stats implements Service.Stats.
func (s *reviewServiceImpl) Stats(ctx context.Context, userID uuid.UUID) (*VocabularyStats, error) {
	rows, err := s.progress.ListAll(ctx, userID)
	if err != nil {
		return nil, &ServiceError{Operation: "stats", Message: "list progress", Err: err}
	}

	now := s.clock.Now()
	stats := &VocabularyStats{}
	attempts, correct := 0, 0
	for _, row := range rows {
		if row.Familiarity >= 1 {
			stats.Learned++
		}
		if row.Familiarity >= 4 {
			stats.Mastered++
		}
		if !row.NextReviewAt.After(now) {
			stats.DueNow++
		}
		attempts += row.CorrectCount + row.IncorrectCount
		correct += row.CorrectCount
	}
	if attempts > 0 {
		stats.AccuracyPercent = int(float64(correct)/float64(attempts)*100 + 0.5)
	}
	return stats, nil
}

// AddBookmark implements Service.AddBookmark.
func (s *reviewServiceImpl) AddBookmark(
	ctx context.Context,
	userID uuid.UUID,
	itemType domain.ReviewItemType,
	itemID uuid.UUID,
	note string,
) (*domain.Bookmark, error) {
	if !itemType.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidItemType, itemType)
	}
	if err := s.requireFeature(ctx, userID, domain.FeatureBookmarks); err != nil {
		return nil, err
	}

	saved, err := s.reviews.UpsertBookmark(ctx, &domain.Bookmark{
		ID:        uuid.New(),
		UserID:    userID,
		ItemType:  itemType,
		ItemID:    itemID,
		Note:      note,
		CreatedAt: s.clock.Now(),
	})
	if err != nil {
		return nil, &ServiceError{Operation: "add bookmark", Message: "save bookmark", Err: err}
	}
	return saved, nil
}

// RemoveBookmark implements Service.RemoveBookmark.
func (s *reviewServiceImpl) RemoveBookmark(
	ctx context.Context,
	userID uuid.UUID,
	itemType domain.ReviewItemType,
	itemID uuid.UUID,
) error {
	if !itemType.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidItemType, itemType)
	}
	if err := s.requireFeature(ctx, userID, domain.FeatureBookmarks); err != nil {
		return err
	}

	if err := s.reviews.DeleteBookmark(ctx, userID, itemType, itemID); err != nil {
		return &ServiceError{Operation: "remove bookmark", Message: "delete bookmark", Err: err}
	}
	return nil
}

// IsBookmarked implements Service.IsBookmarked.
func (s *reviewServiceImpl) IsBookmarked(
	ctx context.Context,
	userID uuid.UUID,
	itemType domain.ReviewItemType,
	itemID uuid.UUID,
) (bool, error) {
	if !itemType.IsValid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidItemType, itemType)
	}

	_, err := s.reviews.GetBookmark(ctx, userID, itemType, itemID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &ServiceError{Operation: "is bookmarked", Message: "load bookmark", Err: err}
	}
	return true, nil
}

// ListBookmarks implements Service.ListBookmarks.
func (s *reviewServiceImpl) ListBookmarks(
	ctx context.Context,
	userID uuid.UUID,
	itemType domain.ReviewItemType,
) ([]*domain.Bookmark, error) {
	if itemType != "" && !itemType.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidItemType, itemType)
	}
	if err := s.requireFeature(ctx, userID, domain.FeatureBookmarks); err != nil {
		return nil, err
	}

	bookmarks, err := s.reviews.ListBookmarks(ctx, userID, itemType)
	if err != nil {
		return nil, &ServiceError{Operation: "list bookmarks", Message: "list bookmarks", Err: err}
	}
	return bookmarks, nil
}

// ScheduleReview implements Service.ScheduleReview.
func (s *reviewServiceImpl) ScheduleReview(
	ctx context.Context,
	userID uuid.UUID,
	itemType domain.ReviewItemType,
	itemID uuid.UUID,
	date string,
	priority domain.ReviewPriority,
) (*domain.ScheduledReview, error) {
	if !itemType.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidItemType, itemType)
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, &ServiceError{Operation: "schedule review", Message: "invalid date", Err: err}
	}
	if priority < domain.PriorityLow || priority > domain.PriorityHigh {
		priority = domain.PriorityNormal
	}
	if err := s.requireFeature(ctx, userID, domain.FeatureReviewSchedule); err != nil {
		return nil, err
	}

	saved, err := s.reviews.UpsertScheduled(ctx, &domain.ScheduledReview{
		ID:            uuid.New(),
		UserID:        userID,
		ItemType:      itemType,
		ItemID:        itemID,
		ScheduledDate: date,
		Priority:      priority,
		CreatedAt:     s.clock.Now(),
	})
	if err != nil {
		return nil, &ServiceError{Operation: "schedule review", Message: "save schedule entry", Err: err}
	}
	return saved, nil
}

// DueSchedule implements Service.DueSchedule.
func (s *reviewServiceImpl) DueSchedule(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.ScheduledReview, error) {
	if err := s.requireFeature(ctx, userID, domain.FeatureReviewSchedule); err != nil {
		return nil, err
	}

	due, err := s.reviews.ListDueScheduled(ctx, userID, domain.DailyPeriodKey(s.clock.Now()))
	if err != nil {
		return nil, &ServiceError{Operation: "due schedule", Message: "list schedule entries", Err: err}
	}
	return due, nil
}

// CompleteScheduled implements Service.CompleteScheduled.
func (s *reviewServiceImpl) CompleteScheduled(ctx context.Context, userID, scheduleID uuid.UUID) error {
	if err := s.requireFeature(ctx, userID, domain.FeatureReviewSchedule); err != nil {
		return err
	}

	err := s.reviews.CompleteScheduled(ctx, userID, scheduleID, s.clock.Now())
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: schedule entry %s", ErrNotFound, scheduleID)
	}
	if err != nil {
		return &ServiceError{Operation: "complete scheduled", Message: "mark completed", Err: err}
	}
	return nil
}
