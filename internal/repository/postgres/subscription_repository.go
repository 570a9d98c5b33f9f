package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/appforge/appforge/internal/domain"
	"github.com/appforge/appforge/internal/pkg/database"
	apperrors "github.com/appforge/appforge/internal/pkg/errors"
)

// SubscriptionRepository handles subscription data operations in PostgreSQL
type SubscriptionRepository struct {
	db *database.PostgresDB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *database.PostgresDB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Create inserts a new subscription
func (r *SubscriptionRepository) Create(ctx context.Context, subscription domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, tenant_id, payhere_subscription_id, plan, status, current_period_start, current_period_end, created_at, updated_at, cancelled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		subscription.ID.String(),
		subscription.TenantID.String(),
		subscription.PayhereSubscriptionID,
		subscription.Plan,
		string(subscription.Status),
		subscription.CurrentPeriodStart,
		subscription.CurrentPeriodEnd,
		subscription.CreatedAt,
		subscription.UpdatedAt,
		subscription.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

// Update persists a new subscription snapshot
func (r *SubscriptionRepository) Update(ctx context.Context, subscription domain.Subscription) error {
	query := `
		UPDATE subscriptions
		SET payhere_subscription_id = $3, plan = $4, status = $5, current_period_start = $6, current_period_end = $7, updated_at = $8, cancelled_at = $9
		WHERE tenant_id = $1 AND id = $2
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		subscription.TenantID.String(),
		subscription.ID.String(),
		subscription.PayhereSubscriptionID,
		subscription.Plan,
		string(subscription.Status),
		subscription.CurrentPeriodStart,
		subscription.CurrentPeriodEnd,
		subscription.UpdatedAt,
		subscription.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("subscription")
	}

	return nil
}

// GetByID retrieves a subscription by ID within the tenant scope
func (r *SubscriptionRepository) GetByID(ctx context.Context, tenantID domain.TenantID, id domain.SubscriptionID) (domain.Subscription, error) {
	query := subscriptionSelect + ` WHERE tenant_id = $1 AND id = $2`

	subscription, err := scanSubscription(r.db.Pool.QueryRow(ctx, query, tenantID.String(), id.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Subscription{}, apperrors.NotFound("subscription")
		}
		return domain.Subscription{}, fmt.Errorf("failed to get subscription: %w", err)
	}

	return subscription, nil
}

// FindActiveByTenantID returns the tenant's non-cancelled subscription, or
// NotFound when there is none
func (r *SubscriptionRepository) FindActiveByTenantID(ctx context.Context, tenantID domain.TenantID) (domain.Subscription, error) {
	query := subscriptionSelect + `
		WHERE tenant_id = $1 AND status != $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	subscription, err := scanSubscription(r.db.Pool.QueryRow(ctx, query,
		tenantID.String(), string(domain.SubscriptionStatusCancelled)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Subscription{}, apperrors.NotFound("subscription")
		}
		return domain.Subscription{}, fmt.Errorf("failed to find active subscription: %w", err)
	}

	return subscription, nil
}

// FindByPayhereSubscriptionID resolves a subscription by the gateway's id
func (r *SubscriptionRepository) FindByPayhereSubscriptionID(ctx context.Context, payhereSubscriptionID string) (domain.Subscription, error) {
	if payhereSubscriptionID == "" {
		return domain.Subscription{}, apperrors.NotFound("subscription")
	}

	query := subscriptionSelect + ` WHERE payhere_subscription_id = $1`

	subscription, err := scanSubscription(r.db.Pool.QueryRow(ctx, query, payhereSubscriptionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Subscription{}, apperrors.NotFound("subscription")
		}
		return domain.Subscription{}, fmt.Errorf("failed to find subscription by gateway id: %w", err)
	}

	return subscription, nil
}

const subscriptionSelect = `
	SELECT id, tenant_id, payhere_subscription_id, plan, status, current_period_start, current_period_end, created_at, updated_at, cancelled_at
	FROM subscriptions`

func scanSubscription(row pgx.Row) (domain.Subscription, error) {
	var s domain.Subscription
	var id, tenantID, status string

	err := row.Scan(
		&id,
		&tenantID,
		&s.PayhereSubscriptionID,
		&s.Plan,
		&status,
		&s.CurrentPeriodStart,
		&s.CurrentPeriodEnd,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.CancelledAt,
	)
	if err != nil {
		return domain.Subscription{}, err
	}

	s.ID = domain.SubscriptionID(id)
	s.TenantID = domain.TenantID(tenantID)
	s.Status = domain.SubscriptionStatus(status)
	return domain.ReconstituteSubscription(s), nil
}
