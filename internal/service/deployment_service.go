package service

import (
	"context"
	"fmt"

	"github.com/appforge/appforge/internal/domain"
	apperrors "github.com/appforge/appforge/internal/pkg/errors"
	"github.com/appforge/appforge/internal/pkg/id"
	"github.com/appforge/appforge/internal/pkg/pagination"
)

// StartDeploymentInput represents input for starting a deployment
type StartDeploymentInput struct {
	ProjectID string `json:"projectId" validate:"required"`
	Version   string `json:"version" validate:"required"`
}

// UpdateDeploymentInput represents a requested deployment state change
type UpdateDeploymentInput struct {
	Action       string `json:"action" validate:"required"`
	DeployedURL  string `json:"deployedUrl,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// DeploymentService orchestrates deployments: one in-progress deployment
// per project at a time.
type DeploymentService struct {
	deploymentRepo DeploymentRepository
	projectRepo    ProjectRepository
	idGen          IDGenerator
	events         EventRecorder
}

// NewDeploymentService creates a new deployment service
func NewDeploymentService(deploymentRepo DeploymentRepository, projectRepo ProjectRepository, idGen IDGenerator, events EventRecorder) *DeploymentService {
	return &DeploymentService{
		deploymentRepo: deploymentRepo,
		projectRepo:    projectRepo,
		idGen:          idGen,
		events:         events,
	}
}

// Start begins a new deployment of a project version.
func (s *DeploymentService) Start(ctx context.Context, tenantID domain.TenantID, input StartDeploymentInput) (domain.Deployment, error) {
	projectID, err := domain.NewProjectID(input.ProjectID)
	if err != nil {
		return domain.Deployment{}, err
	}
	if input.Version == "" {
		return domain.Deployment{}, apperrors.Validation("version is required")
	}
	if _, err := s.projectRepo.GetByID(ctx, tenantID, projectID); err != nil {
		return domain.Deployment{}, err
	}

	_, err = s.deploymentRepo.FindActiveByProjectID(ctx, tenantID, projectID)
	if err == nil {
		return domain.Deployment{}, apperrors.AlreadyRunning("project already has a deployment in progress")
	}
	if !apperrors.IsNotFound(err) {
		return domain.Deployment{}, err
	}

	deploymentID, err := domain.NewDeploymentID(s.idGen.Generate(id.PrefixDeployment))
	if err != nil {
		return domain.Deployment{}, err
	}

	deployment := domain.NewDeployment(deploymentID, projectID, tenantID, input.Version)
	if err := s.deploymentRepo.Create(ctx, deployment); err != nil {
		return domain.Deployment{}, fmt.Errorf("failed to create deployment: %w", err)
	}

	s.events.Record(ctx, domain.NewLifecycleEvent(
		domain.AggregateDeployment, deployment.ID.String(), tenantID, "", string(deployment.Status), "started"))

	return deployment, nil
}

// Get retrieves a deployment by ID within the tenant scope.
func (s *DeploymentService) Get(ctx context.Context, tenantID domain.TenantID, deploymentID domain.DeploymentID) (domain.Deployment, error) {
	return s.deploymentRepo.GetByID(ctx, tenantID, deploymentID)
}

// ListByProject retrieves a page of a project's deployments.
func (s *DeploymentService) ListByProject(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID, cursor string, limit int) (pagination.Page[domain.Deployment], error) {
	c, err := pagination.DecodeCursor(cursor)
	if err != nil {
		return pagination.Page[domain.Deployment]{}, apperrors.BadRequest("invalid cursor")
	}
	limit = normalizeLimit(limit)

	deployments, err := s.deploymentRepo.ListByProjectID(ctx, tenantID, projectID, c, limit)
	if err != nil {
		return pagination.Page[domain.Deployment]{}, fmt.Errorf("failed to list deployments: %w", err)
	}

	return pagination.NewPage(deployments, limit, func(d domain.Deployment) *pagination.Cursor {
		return pagination.NewCursor(d.ID.String(), d.StartedAt)
	}), nil
}

// Update applies one lifecycle action to a deployment.
func (s *DeploymentService) Update(ctx context.Context, tenantID domain.TenantID, deploymentID domain.DeploymentID, input UpdateDeploymentInput) (domain.Deployment, error) {
	action := domain.DeploymentAction(input.Action)
	if !action.IsValid() {
		return domain.Deployment{}, apperrors.Validation("unknown deployment action: " + input.Action)
	}

	deployment, err := s.deploymentRepo.GetByID(ctx, tenantID, deploymentID)
	if err != nil {
		return domain.Deployment{}, err
	}

	next, err := deployment.Apply(action, input.DeployedURL, input.ErrorMessage)
	if err != nil {
		return domain.Deployment{}, err
	}

	if err := s.deploymentRepo.Update(ctx, next); err != nil {
		return domain.Deployment{}, fmt.Errorf("failed to update deployment: %w", err)
	}

	s.events.Record(ctx, domain.NewLifecycleEvent(
		domain.AggregateDeployment, next.ID.String(), tenantID,
		string(deployment.Status), string(next.Status), string(action)))

	return next, nil
}

// AppendLog appends one timestamped entry to a deployment's log. Logging is
// orthogonal to state and works in any status.
func (s *DeploymentService) AppendLog(ctx context.Context, tenantID domain.TenantID, deploymentID domain.DeploymentID, message string) (domain.Deployment, error) {
	if message == "" {
		return domain.Deployment{}, apperrors.Validation("log message is required")
	}

	deployment, err := s.deploymentRepo.GetByID(ctx, tenantID, deploymentID)
	if err != nil {
		return domain.Deployment{}, err
	}

	next := deployment.AppendLog(message)
	if err := s.deploymentRepo.Update(ctx, next); err != nil {
		return domain.Deployment{}, fmt.Errorf("failed to update deployment: %w", err)
	}
	return next, nil
}
