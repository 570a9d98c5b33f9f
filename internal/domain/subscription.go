package domain

import (
	"time"

	apperrors "github.com/appforge/appforge/internal/pkg/errors"
)

// subscriptionTransitions is the allowed-transition table for billing status.
// cancelled is terminal.
var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionStatusTrialing:  {SubscriptionStatusActive, SubscriptionStatusCancelled},
	SubscriptionStatusActive:    {SubscriptionStatusPastDue, SubscriptionStatusCancelled},
	SubscriptionStatusPastDue:   {SubscriptionStatusActive, SubscriptionStatusCancelled},
	SubscriptionStatusCancelled: {},
}

// Subscription is the aggregate root for one tenant's billing relationship
// with the payment gateway. Gateway webhooks drive its state after signature
// verification; see the payhere package.
type Subscription struct {
	ID                    SubscriptionID     `json:"id"`
	TenantID              TenantID           `json:"tenantId"`
	PayhereSubscriptionID string             `json:"payhereSubscriptionId,omitempty"`
	Plan                  string             `json:"plan"`
	Status                SubscriptionStatus `json:"status"`
	CurrentPeriodStart    time.Time          `json:"currentPeriodStart"`
	CurrentPeriodEnd      time.Time          `json:"currentPeriodEnd"`
	CreatedAt             time.Time          `json:"createdAt"`
	UpdatedAt             time.Time          `json:"updatedAt"`
	CancelledAt           *time.Time         `json:"cancelledAt,omitempty"`
}

// NewSubscription creates a fresh subscription in trialing status with the
// first period started.
func NewSubscription(id SubscriptionID, tenantID TenantID, plan string) Subscription {
	now := time.Now().UTC()
	return Subscription{
		ID:                 id,
		TenantID:           tenantID,
		Plan:               plan,
		Status:             SubscriptionStatusTrialing,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   now.AddDate(0, 1, 0),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// ReconstituteSubscription rehydrates a subscription from storage. No
// validation and no default-filling happen here.
func ReconstituteSubscription(s Subscription) Subscription {
	return s
}

func (s Subscription) transition(to SubscriptionStatus) (Subscription, error) {
	for _, allowed := range subscriptionTransitions[s.Status] {
		if allowed == to {
			s.Status = to
			s.UpdatedAt = time.Now().UTC()
			return s, nil
		}
	}
	return Subscription{}, apperrors.InvalidTransition("subscription", string(s.Status), string(to))
}

// Activate moves a trialing or past-due subscription to active. When
// externalID is non-empty it is stored as the gateway subscription id;
// otherwise any existing id is kept.
func (s Subscription) Activate(externalID string) (Subscription, error) {
	next, err := s.transition(SubscriptionStatusActive)
	if err != nil {
		return Subscription{}, err
	}
	if externalID != "" {
		next.PayhereSubscriptionID = externalID
	}
	return next, nil
}

// MarkPastDue moves an active subscription to past_due.
func (s Subscription) MarkPastDue() (Subscription, error) {
	return s.transition(SubscriptionStatusPastDue)
}

// Cancel cancels the subscription from any non-cancelled state. Calling it
// on an already-cancelled subscription fails; it never silently succeeds.
func (s Subscription) Cancel() (Subscription, error) {
	next, err := s.transition(SubscriptionStatusCancelled)
	if err != nil {
		return Subscription{}, err
	}
	now := time.Now().UTC()
	next.CancelledAt = &now
	return next, nil
}

// RenewPeriod moves the billing period forward. This is a same-state
// metadata update; the period can only advance.
func (s Subscription) RenewPeriod(start, end time.Time) (Subscription, error) {
	if s.Status == SubscriptionStatusCancelled {
		return Subscription{}, apperrors.InvalidTransition("subscription", string(s.Status), string(s.Status))
	}
	if !end.After(start) {
		return Subscription{}, apperrors.Validation("period end must be after period start")
	}
	if start.Before(s.CurrentPeriodStart) {
		return Subscription{}, apperrors.Validation("billing period cannot move backwards")
	}
	s.CurrentPeriodStart = start
	s.CurrentPeriodEnd = end
	s.UpdatedAt = time.Now().UTC()
	return s, nil
}

// ChangePlan switches the subscription to another plan tier. Same-state
// metadata update.
func (s Subscription) ChangePlan(plan string) (Subscription, error) {
	if plan == "" {
		return Subscription{}, apperrors.Validation("plan is required")
	}
	if s.Status == SubscriptionStatusCancelled {
		return Subscription{}, apperrors.InvalidTransition("subscription", string(s.Status), string(s.Status))
	}
	s.Plan = plan
	s.UpdatedAt = time.Now().UTC()
	return s, nil
}

// IsTerminal reports whether the subscription is cancelled.
func (s Subscription) IsTerminal() bool {
	return s.Status.IsTerminal()
}
