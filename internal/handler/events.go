package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/appforge/appforge/internal/domain"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
)

type eventStore interface {
	ListByAggregate(ctx context.Context, tenantID domain.TenantID, aggregateID string, limit int) ([]domain.LifecycleEvent, error)
	ListByTenant(ctx context.Context, tenantID domain.TenantID, since time.Time, limit int) ([]domain.LifecycleEvent, error)
}

// EventsHandler exposes the lifecycle audit trail
type EventsHandler struct {
	events eventStore
	logger *zap.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(events eventStore, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{
		events: events,
		logger: logger,
	}
}

// ListAggregateEvents handles GET /v1/events/:aggregateId
func (h *EventsHandler) ListAggregateEvents(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	aggregateID := c.Params("aggregateId")
	limit := clampEventLimit(parseQueryInt(c, "limit", defaultEventLimit))

	events, err := h.events.ListByAggregate(c.Context(), tenantID, aggregateID, limit)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"data": events,
	})
}

// ListTenantEvents handles GET /v1/events
func (h *EventsHandler) ListTenantEvents(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	since := time.Now().AddDate(0, 0, -7)
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Error:   "Bad Request",
				Message: "since must be an RFC3339 timestamp",
			})
		}
		since = parsed
	}

	limit := clampEventLimit(parseQueryInt(c, "limit", defaultEventLimit))

	events, err := h.events.ListByTenant(c.Context(), tenantID, since, limit)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"data": events,
	})
}

func clampEventLimit(limit int) int {
	if limit <= 0 {
		return defaultEventLimit
	}
	if limit > maxEventLimit {
		return maxEventLimit
	}
	return limit
}

// RegisterRoutes registers event routes on an authenticated router group
func (h *EventsHandler) RegisterRoutes(v1 fiber.Router) {
	v1.Get("/events", h.ListTenantEvents)
	v1.Get("/events/:aggregateId", h.ListAggregateEvents)
}
