package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/toeicprep/engine/internal/domain"
)

// SubscriptionStore resolves users to their subscription plan tier.
type SubscriptionStore interface {
	// PlanOf returns the plan tier of the user's active subscription.
	// Users without a subscription row are on the free plan; this is not
	// an error. Returns ErrUnavailable when the store cannot be read -
	// callers gating access on the answer must fail closed.
	PlanOf(ctx context.Context, userID uuid.UUID) (domain.PlanTier, error)
}
