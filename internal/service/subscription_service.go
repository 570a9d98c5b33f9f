package service

import (
	"context"
	"fmt"
	"time"

	"github.com/appforge/appforge/internal/config"
	"github.com/appforge/appforge/internal/domain"
	"github.com/appforge/appforge/internal/payhere"
	apperrors "github.com/appforge/appforge/internal/pkg/errors"
	"github.com/appforge/appforge/internal/pkg/id"
)

// CreateSubscriptionInput represents input for creating a subscription
type CreateSubscriptionInput struct {
	Plan string `json:"plan" validate:"required"`
}

// SubscriptionService orchestrates the billing lifecycle. Outbound it signs
// checkout requests for the gateway; inbound it verifies webhook signatures
// before any state is touched.
type SubscriptionService struct {
	subscriptionRepo SubscriptionRepository
	signer           *payhere.Signer
	gateway          config.PayHereConfig
	plans            config.PlansConfig
	idGen            IDGenerator
	events           EventRecorder
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(subscriptionRepo SubscriptionRepository, signer *payhere.Signer, gateway config.PayHereConfig, plans config.PlansConfig, idGen IDGenerator, events EventRecorder) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		signer:           signer,
		gateway:          gateway,
		plans:            plans,
		idGen:            idGen,
		events:           events,
	}
}

// Create starts a subscription for a tenant and returns the signed checkout
// request the client submits to the gateway. A tenant holds at most one
// non-cancelled subscription.
func (s *SubscriptionService) Create(ctx context.Context, tenantID domain.TenantID, input CreateSubscriptionInput) (domain.Subscription, payhere.CheckoutRequest, error) {
	plan, ok := s.plans.Get(input.Plan)
	if !ok {
		return domain.Subscription{}, payhere.CheckoutRequest{}, apperrors.Validation("unknown plan: " + input.Plan)
	}

	_, err := s.subscriptionRepo.FindActiveByTenantID(ctx, tenantID)
	if err == nil {
		return domain.Subscription{}, payhere.CheckoutRequest{}, apperrors.AlreadyExists("tenant already has an active subscription")
	}
	if !apperrors.IsNotFound(err) {
		return domain.Subscription{}, payhere.CheckoutRequest{}, err
	}

	subscriptionID, err := domain.NewSubscriptionID(s.idGen.Generate(id.PrefixSubscription))
	if err != nil {
		return domain.Subscription{}, payhere.CheckoutRequest{}, err
	}

	subscription := domain.NewSubscription(subscriptionID, tenantID, input.Plan)
	if err := s.subscriptionRepo.Create(ctx, subscription); err != nil {
		return domain.Subscription{}, payhere.CheckoutRequest{}, fmt.Errorf("failed to create subscription: %w", err)
	}

	checkout := payhere.BuildCheckoutRequest(s.signer, payhere.CheckoutParams{
		CheckoutURL: s.gateway.CheckoutURL(),
		MerchantID:  s.gateway.MerchantID,
		OrderID:     id.NewOrderID(),
		Items:       "AppForge " + input.Plan + " plan",
		Amount:      plan.MonthlyPrice,
		Currency:    plan.Currency,
		Recurrence:  plan.Recurrence,
		Duration:    plan.Duration,
		ReturnURL:   s.gateway.ReturnURL,
		CancelURL:   s.gateway.CancelURL,
		NotifyURL:   s.gateway.NotifyURL,
		TenantID:    tenantID.String(),
		Reference:   subscription.ID.String(),
	})

	s.events.Record(ctx, domain.NewLifecycleEvent(
		domain.AggregateSubscription, subscription.ID.String(), tenantID, "", string(subscription.Status), "created"))

	return subscription, checkout, nil
}

// Get retrieves a subscription by ID within the tenant scope.
func (s *SubscriptionService) Get(ctx context.Context, tenantID domain.TenantID, subscriptionID domain.SubscriptionID) (domain.Subscription, error) {
	return s.subscriptionRepo.GetByID(ctx, tenantID, subscriptionID)
}

// GetActive retrieves the tenant's non-cancelled subscription.
func (s *SubscriptionService) GetActive(ctx context.Context, tenantID domain.TenantID) (domain.Subscription, error) {
	return s.subscriptionRepo.FindActiveByTenantID(ctx, tenantID)
}

// Cancel cancels a subscription on the tenant's request.
func (s *SubscriptionService) Cancel(ctx context.Context, tenantID domain.TenantID, subscriptionID domain.SubscriptionID) (domain.Subscription, error) {
	subscription, err := s.subscriptionRepo.GetByID(ctx, tenantID, subscriptionID)
	if err != nil {
		return domain.Subscription{}, err
	}

	next, err := subscription.Cancel()
	if err != nil {
		return domain.Subscription{}, err
	}

	if err := s.subscriptionRepo.Update(ctx, next); err != nil {
		return domain.Subscription{}, fmt.Errorf("failed to update subscription: %w", err)
	}

	s.events.Record(ctx, domain.NewLifecycleEvent(
		domain.AggregateSubscription, next.ID.String(), tenantID,
		string(subscription.Status), string(next.Status), "cancelled by tenant"))

	return next, nil
}

// HandleWebhook processes a gateway notification. Signature verification is
// unconditionally the first step; an unverified payload never reaches a
// lookup or mutation.
func (s *SubscriptionService) HandleWebhook(ctx context.Context, n payhere.Notification) (domain.Subscription, error) {
	if err := s.signer.VerifyNotification(n); err != nil {
		return domain.Subscription{}, err
	}

	subscription, err := s.resolveSubscription(ctx, n)
	if err != nil {
		return domain.Subscription{}, err
	}

	next, changed, err := s.applyEffect(subscription, n)
	if err != nil {
		return domain.Subscription{}, err
	}
	if !changed {
		return subscription, nil
	}

	if err := s.subscriptionRepo.Update(ctx, next); err != nil {
		return domain.Subscription{}, fmt.Errorf("failed to update subscription: %w", err)
	}

	detail := n.MessageType
	if detail == "" {
		detail = "status code " + n.StatusCode
	}
	s.events.Record(ctx, domain.NewLifecycleEvent(
		domain.AggregateSubscription, next.ID.String(), next.TenantID,
		string(subscription.Status), string(next.Status), detail))

	return next, nil
}

// resolveSubscription locates the subscription a verified notification
// refers to: by the gateway's subscription id when it already knows one,
// otherwise by the tenant and subscription id echoed back in the custom
// fields of the checkout request.
func (s *SubscriptionService) resolveSubscription(ctx context.Context, n payhere.Notification) (domain.Subscription, error) {
	if n.SubscriptionID != "" {
		subscription, err := s.subscriptionRepo.FindByPayhereSubscriptionID(ctx, n.SubscriptionID)
		if err == nil {
			return subscription, nil
		}
		if !apperrors.IsNotFound(err) {
			return domain.Subscription{}, err
		}
		// First notification for this gateway subscription: fall through to
		// the custom fields.
	}

	tenantID, err := domain.NewTenantID(n.Custom1)
	if err != nil {
		return domain.Subscription{}, apperrors.BadRequest("webhook carries no resolvable subscription reference")
	}
	subscriptionID, err := domain.NewSubscriptionID(n.Custom2)
	if err != nil {
		return domain.Subscription{}, apperrors.BadRequest("webhook carries no resolvable subscription reference")
	}
	return s.subscriptionRepo.GetByID(ctx, tenantID, subscriptionID)
}

// applyEffect maps the notification to subscription transitions. The
// returned bool reports whether anything changed.
func (s *SubscriptionService) applyEffect(subscription domain.Subscription, n payhere.Notification) (domain.Subscription, bool, error) {
	switch payhere.EffectOf(n) {
	case payhere.EffectActivate:
		next, err := subscription.Activate(n.SubscriptionID)
		return next, err == nil, err

	case payhere.EffectCancel:
		next, err := subscription.Cancel()
		return next, err == nil, err

	case payhere.EffectMarkPastDue:
		next, err := subscription.MarkPastDue()
		return next, err == nil, err

	case payhere.EffectInstallment:
		next := subscription
		changed := false
		if next.Status == domain.SubscriptionStatusPastDue {
			activated, err := next.Activate("")
			if err != nil {
				return domain.Subscription{}, false, err
			}
			next = activated
			changed = true
		}
		if n.NextOccurrenceDate != "" {
			now := time.Now().UTC()
			renewed, err := next.RenewPeriod(now, now.AddDate(0, 1, 0))
			if err != nil {
				return domain.Subscription{}, false, err
			}
			next = renewed
			changed = true
		}
		return next, changed, nil

	default:
		return subscription, false, nil
	}
}
