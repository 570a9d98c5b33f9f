package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/appforge/appforge/internal/domain"
	"github.com/appforge/appforge/internal/middleware"
	"github.com/appforge/appforge/internal/payhere"
	apperrors "github.com/appforge/appforge/internal/pkg/errors"
)

type webhookService interface {
	HandleWebhook(ctx context.Context, n payhere.Notification) (domain.Subscription, error)
}

// PayHereWebhookHandler handles payment gateway notifications. The gateway
// posts form-encoded bodies and authenticates itself solely through the
// md5sig field, so this route sits outside the JWT-protected group.
type PayHereWebhookHandler struct {
	subscriptions webhookService
	logger        *zap.Logger
}

// NewPayHereWebhookHandler creates a new webhook handler
func NewPayHereWebhookHandler(subscriptions webhookService, logger *zap.Logger) *PayHereWebhookHandler {
	return &PayHereWebhookHandler{
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// HandleNotification handles POST /webhooks/payhere
func (h *PayHereWebhookHandler) HandleNotification(c *fiber.Ctx) error {
	var n payhere.Notification
	if err := c.BodyParser(&n); err != nil {
		middleware.RecordWebhook("malformed")
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "Bad Request",
			Message: "invalid notification body",
		})
	}

	subscription, err := h.subscriptions.HandleWebhook(c.Context(), n)
	if err != nil {
		switch {
		case apperrors.IsWebhookVerificationFailed(err):
			h.logger.Warn("rejected webhook with bad signature",
				zap.String("order_id", n.OrderID),
				zap.String("message_type", n.MessageType),
				zap.String("ip", c.IP()),
			)
			middleware.RecordWebhook("rejected")
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "Unauthorized",
				Message: "signature verification failed",
			})
		case apperrors.IsNotFound(err) || apperrors.HasCode(err, apperrors.CodeBadRequest):
			middleware.RecordWebhook("unresolvable")
			return respondError(c, h.logger, err)
		default:
			middleware.RecordWebhook("error")
			return respondError(c, h.logger, err)
		}
	}

	h.logger.Info("processed payment notification",
		zap.String("order_id", n.OrderID),
		zap.String("message_type", n.MessageType),
		zap.String("status_code", n.StatusCode),
		zap.String("subscription_id", subscription.ID.String()),
		zap.String("subscription_status", string(subscription.Status)),
	)
	middleware.RecordWebhook("processed")

	return c.JSON(fiber.Map{
		"status": "ok",
	})
}

// RegisterRoutes registers the webhook route. No auth middleware: the
// signature check inside the service is the authentication.
func (h *PayHereWebhookHandler) RegisterRoutes(app *fiber.App) {
	app.Post("/webhooks/payhere", h.HandleNotification)
}
