package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/appforge/appforge/internal/domain"
	"github.com/appforge/appforge/internal/pkg/pagination"
	"github.com/appforge/appforge/internal/service"
)

type deploymentService interface {
	Start(ctx context.Context, tenantID domain.TenantID, input service.StartDeploymentInput) (domain.Deployment, error)
	Get(ctx context.Context, tenantID domain.TenantID, deploymentID domain.DeploymentID) (domain.Deployment, error)
	ListByProject(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID, cursor string, limit int) (pagination.Page[domain.Deployment], error)
	Update(ctx context.Context, tenantID domain.TenantID, deploymentID domain.DeploymentID, input service.UpdateDeploymentInput) (domain.Deployment, error)
}

// DeploymentsHandler handles deployment endpoints
type DeploymentsHandler struct {
	deployments deploymentService
	logger      *zap.Logger
}

// NewDeploymentsHandler creates a new deployments handler
func NewDeploymentsHandler(deployments deploymentService, logger *zap.Logger) *DeploymentsHandler {
	return &DeploymentsHandler{
		deployments: deployments,
		logger:      logger,
	}
}

// StartDeployment handles POST /v1/deployments
func (h *DeploymentsHandler) StartDeployment(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	var input service.StartDeploymentInput
	if err := parseBody(c, &input); err != nil {
		return respondError(c, h.logger, err)
	}

	deployment, err := h.deployments.Start(c.Context(), tenantID, input)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(deployment)
}

// GetDeployment handles GET /v1/deployments/:deploymentId. The response
// includes the full log trail.
func (h *DeploymentsHandler) GetDeployment(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	deploymentID, err := domain.NewDeploymentID(c.Params("deploymentId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	deployment, err := h.deployments.Get(c.Context(), tenantID, deploymentID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(deployment)
}

// ListDeployments handles GET /v1/projects/:projectId/deployments
func (h *DeploymentsHandler) ListDeployments(c *fiber.Ctx) error {
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

	page, err := h.deployments.ListByProject(c.Context(), tenantID, projectID, cursor, limit)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(page)
}

// UpdateDeployment handles POST /v1/deployments/:deploymentId/actions
func (h *DeploymentsHandler) UpdateDeployment(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	deploymentID, err := domain.NewDeploymentID(c.Params("deploymentId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var input service.UpdateDeploymentInput
	if err := parseBody(c, &input); err != nil {
		return respondError(c, h.logger, err)
	}

	deployment, err := h.deployments.Update(c.Context(), tenantID, deploymentID, input)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(deployment)
}

// RegisterRoutes registers deployment routes on an authenticated router group
func (h *DeploymentsHandler) RegisterRoutes(v1 fiber.Router) {
	v1.Post("/deployments", h.StartDeployment)
	v1.Get("/deployments/:deploymentId", h.GetDeployment)
	v1.Post("/deployments/:deploymentId/actions", h.UpdateDeployment)
	v1.Get("/projects/:projectId/deployments", h.ListDeployments)
}
