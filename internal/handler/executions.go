package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/appforge/appforge/internal/domain"
	"github.com/appforge/appforge/internal/pkg/pagination"
	"github.com/appforge/appforge/internal/service"
)

type executionService interface {
	Start(ctx context.Context, tenantID domain.TenantID, input service.StartExecutionInput) (domain.AgentExecution, error)
	Get(ctx context.Context, tenantID domain.TenantID, executionID domain.ExecutionID) (domain.AgentExecution, error)
	ListByProject(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID, cursor string, limit int) (pagination.Page[domain.AgentExecution], error)
	Update(ctx context.Context, tenantID domain.TenantID, executionID domain.ExecutionID, input service.UpdateExecutionInput) (domain.AgentExecution, error)
}

// ExecutionsHandler handles agent execution endpoints
type ExecutionsHandler struct {
	executions executionService
	logger     *zap.Logger
}

// NewExecutionsHandler creates a new executions handler
func NewExecutionsHandler(executions executionService, logger *zap.Logger) *ExecutionsHandler {
	return &ExecutionsHandler{
		executions: executions,
		logger:     logger,
	}
}

// StartExecution handles POST /v1/executions
func (h *ExecutionsHandler) StartExecution(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	var input service.StartExecutionInput
	if err := parseBody(c, &input); err != nil {
		return respondError(c, h.logger, err)
	}

	execution, err := h.executions.Start(c.Context(), tenantID, input)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(execution)
}

// GetExecution handles GET /v1/executions/:executionId
func (h *ExecutionsHandler) GetExecution(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	executionID, err := domain.NewExecutionID(c.Params("executionId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	execution, err := h.executions.Get(c.Context(), tenantID, executionID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(execution)
}

// ListExecutions handles GET /v1/projects/:projectId/executions
func (h *ExecutionsHandler) ListExecutions(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	projectID, err := domain.NewProjectID(c.Params("projectId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	cursor := c.Query("cursor")
	limit := parseQueryInt(c, "limit", 0)

	page, err := h.executions.ListByProject(c.Context(), tenantID, projectID, cursor, limit)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(page)
}

// UpdateExecution handles POST /v1/executions/:executionId/actions.
// Actions cover the human side of the pipeline: approve a review gate,
// cancel a run, retry a failed one.
func (h *ExecutionsHandler) UpdateExecution(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	executionID, err := domain.NewExecutionID(c.Params("executionId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var input service.UpdateExecutionInput
	if err := parseBody(c, &input); err != nil {
		return respondError(c, h.logger, err)
	}

	execution, err := h.executions.Update(c.Context(), tenantID, executionID, input)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(execution)
}

// RegisterRoutes registers execution routes on an authenticated router group
func (h *ExecutionsHandler) RegisterRoutes(v1 fiber.Router) {
	v1.Post("/executions", h.StartExecution)
	v1.Get("/executions/:executionId", h.GetExecution)
	v1.Post("/executions/:executionId/actions", h.UpdateExecution)
	v1.Get("/projects/:projectId/executions", h.ListExecutions)
}
