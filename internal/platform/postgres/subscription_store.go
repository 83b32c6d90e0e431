package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/toeicprep/engine/internal/domain"
	"github.com/toeicprep/engine/internal/store"
)

// PostgresSubscriptionStore implements the store.SubscriptionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSubscriptionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSubscriptionStore creates a new PostgreSQL implementation of the
// SubscriptionStore interface. If logger is nil, a default logger will be used.
func NewPostgresSubscriptionStore(db store.DBTX, logger *slog.Logger) *PostgresSubscriptionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSubscriptionStore{
		db:     db,
		logger: logger.With(slog.String("component", "subscription_store")),
	}
}

// Ensure PostgresSubscriptionStore implements store.SubscriptionStore
var _ store.SubscriptionStore = (*PostgresSubscriptionStore)(nil)

// PlanOf implements store.SubscriptionStore.PlanOf.
// Users without an active subscription row are on the free plan.
func (s *PostgresSubscriptionStore) PlanOf(ctx context.Context, userID uuid.UUID) (domain.PlanTier, error) {
	query := `
		SELECT plan_type
		FROM subscriptions
		WHERE user_id = $1 AND status IN ('active', 'trialing')
		ORDER BY updated_at DESC
		LIMIT 1
	`

	var planType string
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&planType)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PlanFree, nil
	}
	if err != nil {
		s.logger.Error("failed to resolve plan",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return "", unavailable("resolve plan", err)
	}

	tier := domain.PlanTier(planType)
	if !tier.IsValid() {
		// A corrupt row must never widen access.
		s.logger.Warn("unknown plan tier in subscription row, treating as free",
			slog.String("user_id", userID.String()),
			slog.String("plan_type", planType))
		return domain.PlanFree, nil
	}

	return tier, nil
}
