package service

import (
	"context"
	"fmt"

	"github.com/appforge/appforge/internal/domain"
	apperrors "github.com/appforge/appforge/internal/pkg/errors"
	"github.com/appforge/appforge/internal/pkg/id"
	"github.com/appforge/appforge/internal/pkg/pagination"
)

// CreateProjectInput represents input for creating a project
type CreateProjectInput struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	TemplateID  string `json:"templateId,omitempty"`
}

// UpdateProjectStatusInput represents a requested project state change
type UpdateProjectStatusInput struct {
	Action      string `json:"action" validate:"required"`
	DeployedURL string `json:"deployedUrl,omitempty"`
}

// ProjectService orchestrates the project lifecycle: it validates input,
// loads the current snapshot, invokes one transition, and persists the
// result.
type ProjectService struct {
	projectRepo ProjectRepository
	planner     *PlanResolver
	idGen       IDGenerator
	events      EventRecorder
}

// NewProjectService creates a new project service
func NewProjectService(projectRepo ProjectRepository, planner *PlanResolver, idGen IDGenerator, events EventRecorder) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		planner:     planner,
		idGen:       idGen,
		events:      events,
	}
}

// Create creates a new project in draft status. The tenant's plan caps how
// many projects it may hold.
func (s *ProjectService) Create(ctx context.Context, tenantID domain.TenantID, input CreateProjectInput) (domain.Project, error) {
	name, err := domain.NewProjectName(input.Name)
	if err != nil {
		return domain.Project{}, err
	}
	description, err := domain.NewDescription(input.Description)
	if err != nil {
		return domain.Project{}, err
	}

	plan, err := s.planner.PlanFor(ctx, tenantID)
	if err != nil {
		return domain.Project{}, err
	}
	count, err := s.projectRepo.CountByTenantID(ctx, tenantID)
	if err != nil {
		return domain.Project{}, fmt.Errorf("failed to count projects: %w", err)
	}
	if count >= plan.MaxProjects {
		return domain.Project{}, apperrors.LimitExceeded(
			fmt.Sprintf("plan allows at most %d projects", plan.MaxProjects))
	}

	projectID, err := domain.NewProjectID(s.idGen.Generate(id.PrefixProject))
	if err != nil {
		return domain.Project{}, err
	}

	project := domain.NewProject(projectID, tenantID, name, description, input.TemplateID)
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return domain.Project{}, fmt.Errorf("failed to create project: %w", err)
	}

	s.events.Record(ctx, domain.NewLifecycleEvent(
		domain.AggregateProject, project.ID.String(), tenantID, "", string(project.Status), "created"))

	return project, nil
}

// Get retrieves a project by ID within the tenant scope.
func (s *ProjectService) Get(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID) (domain.Project, error) {
	return s.projectRepo.GetByID(ctx, tenantID, projectID)
}

// List retrieves a page of the tenant's projects.
func (s *ProjectService) List(ctx context.Context, tenantID domain.TenantID, cursor string, limit int) (pagination.Page[domain.Project], error) {
	c, err := pagination.DecodeCursor(cursor)
	if err != nil {
		return pagination.Page[domain.Project]{}, apperrors.BadRequest("invalid cursor")
	}
	limit = normalizeLimit(limit)

	projects, err := s.projectRepo.ListByTenantID(ctx, tenantID, c, limit)
	if err != nil {
		return pagination.Page[domain.Project]{}, fmt.Errorf("failed to list projects: %w", err)
	}

	return pagination.NewPage(projects, limit, func(p domain.Project) *pagination.Cursor {
		return pagination.NewCursor(p.ID.String(), p.CreatedAt)
	}), nil
}

// UpdateStatus applies one lifecycle action to a project.
func (s *ProjectService) UpdateStatus(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID, input UpdateProjectStatusInput) (domain.Project, error) {
	action := domain.ProjectAction(input.Action)
	if !action.IsValid() {
		return domain.Project{}, apperrors.Validation("unknown project action: " + input.Action)
	}

	project, err := s.projectRepo.GetByID(ctx, tenantID, projectID)
	if err != nil {
		return domain.Project{}, err
	}

	next, err := project.Apply(action, input.DeployedURL)
	if err != nil {
		return domain.Project{}, err
	}

	if err := s.projectRepo.Update(ctx, next); err != nil {
		return domain.Project{}, fmt.Errorf("failed to update project: %w", err)
	}

	s.events.Record(ctx, domain.NewLifecycleEvent(
		domain.AggregateProject, next.ID.String(), tenantID,
		string(project.Status), string(next.Status), string(action)))

	return next, nil
}

// SetRepoURL records the generated repository URL on a project. This is a
// same-state metadata update, not a transition.
func (s *ProjectService) SetRepoURL(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID, repoURL string) (domain.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, tenantID, projectID)
	if err != nil {
		return domain.Project{}, err
	}

	next, err := project.SetRepoURL(repoURL)
	if err != nil {
		return domain.Project{}, err
	}

	if err := s.projectRepo.Update(ctx, next); err != nil {
		return domain.Project{}, fmt.Errorf("failed to update project: %w", err)
	}
	return next, nil
}

// Delete removes a project. Projects that are deploying or live cannot be
// deleted.
func (s *ProjectService) Delete(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID) error {
	project, err := s.projectRepo.GetByID(ctx, tenantID, projectID)
	if err != nil {
		return err
	}

	if !project.CanBeDeleted() {
		return apperrors.InvalidTransition("project", string(project.Status), "deleted")
	}

	if err := s.projectRepo.Delete(ctx, tenantID, projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.events.Record(ctx, domain.NewLifecycleEvent(
		domain.AggregateProject, project.ID.String(), tenantID,
		string(project.Status), "", "deleted"))

	return nil
}
