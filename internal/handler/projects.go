package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/appforge/appforge/internal/domain"
	"github.com/appforge/appforge/internal/pkg/pagination"
	"github.com/appforge/appforge/internal/service"
)

type projectService interface {
	Create(ctx context.Context, tenantID domain.TenantID, input service.CreateProjectInput) (domain.Project, error)
	Get(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID) (domain.Project, error)
	List(ctx context.Context, tenantID domain.TenantID, cursor string, limit int) (pagination.Page[domain.Project], error)
	UpdateStatus(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID, input service.UpdateProjectStatusInput) (domain.Project, error)
	SetRepoURL(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID, repoURL string) (domain.Project, error)
	Delete(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID) error
}

// SetRepoURLRequest carries the generated repository URL for a project.
type SetRepoURLRequest struct {
	RepoURL string `json:"repoUrl" validate:"required,url"`
}

// ProjectsHandler handles project endpoints
type ProjectsHandler struct {
	projects projectService
	logger   *zap.Logger
}

// NewProjectsHandler creates a new projects handler
func NewProjectsHandler(projects projectService, logger *zap.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		projects: projects,
		logger:   logger,
	}
}

// CreateProject handles POST /v1/projects
func (h *ProjectsHandler) CreateProject(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	var input service.CreateProjectInput
	if err := parseBody(c, &input); err != nil {
		return respondError(c, h.logger, err)
	}

	project, err := h.projects.Create(c.Context(), tenantID, input)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(project)
}

// GetProject handles GET /v1/projects/:projectId
func (h *ProjectsHandler) GetProject(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	projectID, err := domain.NewProjectID(c.Params("projectId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	project, err := h.projects.Get(c.Context(), tenantID, projectID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(project)
}

// ListProjects handles GET /v1/projects
func (h *ProjectsHandler) ListProjects(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	cursor := c.Query("cursor")
	limit := parseQueryInt(c, "limit", 0)

	page, err := h.projects.List(c.Context(), tenantID, cursor, limit)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(page)
}

// UpdateProjectStatus handles POST /v1/projects/:projectId/actions
func (h *ProjectsHandler) UpdateProjectStatus(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	projectID, err := domain.NewProjectID(c.Params("projectId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var input service.UpdateProjectStatusInput
	if err := parseBody(c, &input); err != nil {
		return respondError(c, h.logger, err)
	}

	project, err := h.projects.UpdateStatus(c.Context(), tenantID, projectID, input)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(project)
}

// SetRepoURL handles PUT /v1/projects/:projectId/repo
func (h *ProjectsHandler) SetRepoURL(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	projectID, err := domain.NewProjectID(c.Params("projectId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var req SetRepoURLRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.logger, err)
	}

	project, err := h.projects.SetRepoURL(c.Context(), tenantID, projectID, req.RepoURL)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(project)
}

// DeleteProject handles DELETE /v1/projects/:projectId
func (h *ProjectsHandler) DeleteProject(c *fiber.Ctx) error {
	tenantID, err := RequireTenantID(c)
	if err != nil {
		return err
	}

	projectID, err := domain.NewProjectID(c.Params("projectId"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	if err := h.projects.Delete(c.Context(), tenantID, projectID); err != nil {
		return respondError(c, h.logger, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RegisterRoutes registers project routes on an authenticated router group
func (h *ProjectsHandler) RegisterRoutes(v1 fiber.Router) {
	v1.Get("/projects", h.ListProjects)
	v1.Post("/projects", h.CreateProject)
	v1.Get("/projects/:projectId", h.GetProject)
	v1.Post("/projects/:projectId/actions", h.UpdateProjectStatus)
	v1.Put("/projects/:projectId/repo", h.SetRepoURL)
	v1.Delete("/projects/:projectId", h.DeleteProject)
}
