package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/appforge/appforge/internal/pkg/errors"
)

func newTestSubscription() Subscription {
	return NewSubscription(
		"sub_test0000000000000000",
		"ten_test0000000000000000",
		"starter",
	)
}

func TestNewSubscription(t *testing.T) {
	s := newTestSubscription()

	assert.Equal(t, SubscriptionStatusTrialing, s.Status)
	assert.Equal(t, "starter", s.Plan)
	assert.Empty(t, s.PayhereSubscriptionID)
	assert.True(t, s.CurrentPeriodEnd.After(s.CurrentPeriodStart))
	assert.Nil(t, s.CancelledAt)
}

func TestSubscriptionLifecycle(t *testing.T) {
	// trial → active → past_due → active → cancelled, the gateway-driven
	// path for a paying tenant whose card bounces once.
	s := newTestSubscription()

	s, err := s.Activate("ph_9021")
	require.NoError(t, err)
	assert.Equal(t, SubscriptionStatusActive, s.Status)
	assert.Equal(t, "ph_9021", s.PayhereSubscriptionID)

	s, err = s.MarkPastDue()
	require.NoError(t, err)
	assert.Equal(t, SubscriptionStatusPastDue, s.Status)

	s, err = s.Activate("")
	require.NoError(t, err)
	assert.Equal(t, SubscriptionStatusActive, s.Status)
	// An empty external id keeps the stored one.
	assert.Equal(t, "ph_9021", s.PayhereSubscriptionID)

	s, err = s.Cancel()
	require.NoError(t, err)
	assert.Equal(t, SubscriptionStatusCancelled, s.Status)
	assert.NotNil(t, s.CancelledAt)
	assert.True(t, s.IsTerminal())
}

func TestSubscriptionCancelIsTerminal(t *testing.T) {
	s := newTestSubscription()
	s, err := s.Cancel()
	require.NoError(t, err)

	// Cancelling twice fails rather than silently succeeding.
	_, err = s.Cancel()
	assert.True(t, apperrors.IsInvalidTransition(err))

	_, err = s.Activate("ph_1")
	assert.True(t, apperrors.IsInvalidTransition(err))
	_, err = s.MarkPastDue()
	assert.True(t, apperrors.IsInvalidTransition(err))
}

func TestSubscriptionInvalidTransitions(t *testing.T) {
	s := newTestSubscription()

	// Trialing cannot go past_due without activating first.
	_, err := s.MarkPastDue()
	assert.True(t, apperrors.IsInvalidTransition(err))

	active, err := s.Activate("ph_1")
	require.NoError(t, err)

	// Active → active is not a transition.
	_, err = active.Activate("ph_2")
	assert.True(t, apperrors.IsInvalidTransition(err))
}

func TestSubscriptionRenewPeriod(t *testing.T) {
	s := newTestSubscription()
	s, err := s.Activate("ph_1")
	require.NoError(t, err)

	start := s.CurrentPeriodEnd
	end := start.AddDate(0, 1, 0)

	renewed, err := s.RenewPeriod(start, end)
	require.NoError(t, err)
	assert.Equal(t, start, renewed.CurrentPeriodStart)
	assert.Equal(t, end, renewed.CurrentPeriodEnd)
	// Status is untouched.
	assert.Equal(t, SubscriptionStatusActive, renewed.Status)

	t.Run("end must be after start", func(t *testing.T) {
		_, err := s.RenewPeriod(start, start)
		assert.True(t, apperrors.IsValidation(err))
		_, err = s.RenewPeriod(start, start.Add(-time.Hour))
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("period cannot move backwards", func(t *testing.T) {
		past := s.CurrentPeriodStart.AddDate(0, -1, 0)
		_, err := s.RenewPeriod(past, past.AddDate(0, 1, 0))
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("rejected once cancelled", func(t *testing.T) {
		cancelled, err := s.Cancel()
		require.NoError(t, err)
		_, err = cancelled.RenewPeriod(start, end)
		assert.True(t, apperrors.IsInvalidTransition(err))
	})
}

func TestSubscriptionChangePlan(t *testing.T) {
	s := newTestSubscription()
	s, err := s.Activate("ph_1")
	require.NoError(t, err)

	changed, err := s.ChangePlan("pro")
	require.NoError(t, err)
	assert.Equal(t, "pro", changed.Plan)
	assert.Equal(t, SubscriptionStatusActive, changed.Status)

	_, err = s.ChangePlan("")
	assert.True(t, apperrors.IsValidation(err))

	cancelled, err := s.Cancel()
	require.NoError(t, err)
	_, err = cancelled.ChangePlan("pro")
	assert.True(t, apperrors.IsInvalidTransition(err))
}

func TestReconstituteSubscription(t *testing.T) {
	s := newTestSubscription()
	s, err := s.Activate("ph_1")
	require.NoError(t, err)

	got := ReconstituteSubscription(s)
	assert.Equal(t, s, got)
}
