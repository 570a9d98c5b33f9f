package service

import (
	"context"

	"github.com/appforge/appforge/internal/config"
	"github.com/appforge/appforge/internal/domain"
	apperrors "github.com/appforge/appforge/internal/pkg/errors"
)

// freeTier is the plan applied to tenants without an active subscription.
const freeTier = "free"

// PlanResolver maps a tenant to its effective plan: the tier of the active
// subscription, or the free tier when there is none. The plan table itself
// is injected configuration.
type PlanResolver struct {
	subscriptionRepo SubscriptionRepository
	plans            config.PlansConfig
}

// NewPlanResolver creates a plan resolver.
func NewPlanResolver(subscriptionRepo SubscriptionRepository, plans config.PlansConfig) *PlanResolver {
	return &PlanResolver{
		subscriptionRepo: subscriptionRepo,
		plans:            plans,
	}
}

// PlanFor returns the effective plan configuration for a tenant.
func (r *PlanResolver) PlanFor(ctx context.Context, tenantID domain.TenantID) (config.PlanConfig, error) {
	tier := freeTier
	sub, err := r.subscriptionRepo.FindActiveByTenantID(ctx, tenantID)
	switch {
	case err == nil:
		tier = sub.Plan
	case apperrors.IsNotFound(err):
		// Free tier.
	default:
		return config.PlanConfig{}, err
	}

	plan, ok := r.plans.Get(tier)
	if !ok {
		return config.PlanConfig{}, apperrors.Internal("unknown plan tier: " + tier)
	}
	return plan, nil
}
