package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/appforge/appforge/internal/domain"
	"github.com/appforge/appforge/internal/payhere"
	"github.com/appforge/appforge/internal/service"
)

type subscriptionService interface {
	Create(ctx context.Context, tenantID domain.TenantID, input service.CreateSubscriptionInput) (domain.Subscription, payhere.CheckoutRequest, error)
	Get(ctx context.Context, tenantID domain.TenantID, subscriptionID domain.SubscriptionID) (domain.Subscription, error)
	GetActive(ctx context.Context, tenantID domain.TenantID) (domain.Subscription, error)
	Cancel(ctx context.Context, tenantID domain.TenantID, subscriptionID domain.SubscriptionID) (domain.Subscription, error)
}

// SubscriptionsHandler handles subscription endpoints
type SubscriptionsHandler struct {
	subscriptions subscriptionService
	logger        *zap.Logger
}

// NewSubscriptionsHandler creates a new subscriptions handler
func NewSubscriptionsHandler(subscriptions subscriptionService, logger *zap.Logger) *SubscriptionsHandler {
	return &SubscriptionsHandler{
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// CreateSubscriptionResponse pairs the created subscription with the
// checkout request the frontend posts to the payment gateway.
type CreateSubscriptionResponse struct {
	Subscription domain.Subscription     `json:"subscription"`
	Checkout     payhere.CheckoutRequest `json:"checkout"`
}

// CreateSubscription handles POST /v1/subscriptions
func (h *SubscriptionsHandler) CreateSubscription(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	var input service.CreateSubscriptionInput
	if err := parseBody(c, &input); err != nil {
		return respondError(c, h.logger, err)
	}

	subscription, checkout, err := h.subscriptions.Create(c.Context(), tenantID, input)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(CreateSubscriptionResponse{
		Subscription: subscription,
		Checkout:     checkout,
	})
}

// GetSubscription handles GET /v1/subscriptions/:subscriptionId
func (h *SubscriptionsHandler) GetSubscription(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	subscriptionID, err := domain.NewSubscriptionID(c.Params("subscriptionId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	subscription, err := h.subscriptions.Get(c.Context(), tenantID, subscriptionID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(subscription)
}

// GetActiveSubscription handles GET /v1/subscriptions/active
func (h *SubscriptionsHandler) GetActiveSubscription(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	subscription, err := h.subscriptions.GetActive(c.Context(), tenantID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(subscription)
}

// CancelSubscription handles DELETE /v1/subscriptions/:subscriptionId
func (h *SubscriptionsHandler) CancelSubscription(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	subscriptionID, err := domain.NewSubscriptionID(c.Params("subscriptionId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	subscription, err := h.subscriptions.Cancel(c.Context(), tenantID, subscriptionID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(subscription)
}

// RegisterRoutes registers subscription routes on an authenticated router group
func (h *SubscriptionsHandler) RegisterRoutes(v1 fiber.Router) {
	v1.Post("/subscriptions", h.CreateSubscription)
	v1.Get("/subscriptions/active", h.GetActiveSubscription)
	v1.Get("/subscriptions/:subscriptionId", h.GetSubscription)
	v1.Delete("/subscriptions/:subscriptionId", h.CancelSubscription)
}
