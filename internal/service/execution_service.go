package service

import (
	"context"
	"fmt"

	"github.com/appforge/appforge/internal/domain"
	apperrors "github.com/appforge/appforge/internal/pkg/errors"
	"github.com/appforge/appforge/internal/pkg/id"
	"github.com/appforge/appforge/internal/pkg/pagination"
)

// StartExecutionInput represents input for starting an agent execution
type StartExecutionInput struct {
	ProjectID    string `json:"projectId" validate:"required"`
	TokensBudget int64  `json:"tokensBudget,omitempty" validate:"min=0"`
}

// UpdateExecutionInput represents a requested execution state change
type UpdateExecutionInput struct {
	Action string `json:"action" validate:"required,oneof=approve cancel retry"`
}

// ExecutionService orchestrates agent executions: one running execution per
// project, token budget taken from the tenant's plan unless overridden.
type ExecutionService struct {
	executionRepo ExecutionRepository
	projectRepo   ProjectRepository
	planner       *PlanResolver
	idGen         IDGenerator
	events        EventRecorder
}

// NewExecutionService creates a new execution service
func NewExecutionService(executionRepo ExecutionRepository, projectRepo ProjectRepository, planner *PlanResolver, idGen IDGenerator, events EventRecorder) *ExecutionService {
	return &ExecutionService{
		executionRepo: executionRepo,
		projectRepo:   projectRepo,
		planner:       planner,
		idGen:         idGen,
		events:        events,
	}
}

// Start begins a new execution for a project. At most one non-terminal
// execution may exist per project at a time.
func (s *ExecutionService) Start(ctx context.Context, tenantID domain.TenantID, input StartExecutionInput) (domain.AgentExecution, error) {
	projectID, err := domain.NewProjectID(input.ProjectID)
	if err != nil {
		return domain.AgentExecution{}, err
	}
	if _, err := s.projectRepo.GetByID(ctx, tenantID, projectID); err != nil {
		return domain.AgentExecution{}, err
	}

	_, err = s.executionRepo.FindRunningByProjectID(ctx, tenantID, projectID)
	if err == nil {
		return domain.AgentExecution{}, apperrors.AlreadyRunning("project already has a running execution")
	}
	if !apperrors.IsNotFound(err) {
		return domain.AgentExecution{}, err
	}

	budget := input.TokensBudget
	if budget <= 0 {
		plan, err := s.planner.PlanFor(ctx, tenantID)
		if err != nil {
			return domain.AgentExecution{}, err
		}
		budget = plan.TokenBudget
	}

	executionID, err := domain.NewExecutionID(s.idGen.Generate(id.PrefixExecution))
	if err != nil {
		return domain.AgentExecution{}, err
	}

	execution := domain.NewAgentExecution(executionID, projectID, tenantID, budget)
	if err := s.executionRepo.Create(ctx, execution); err != nil {
		return domain.AgentExecution{}, fmt.Errorf("failed to create execution: %w", err)
	}

	s.events.Record(ctx, domain.NewLifecycleEvent(
		domain.AggregateExecution, execution.ID.String(), tenantID, "", string(execution.Status), "started"))

	return execution, nil
}

// Get retrieves an execution by ID within the tenant scope.
func (s *ExecutionService) Get(ctx context.Context, tenantID domain.TenantID, executionID domain.ExecutionID) (domain.AgentExecution, error) {
	return s.executionRepo.GetByID(ctx, tenantID, executionID)
}

// ListByProject retrieves a page of a project's executions.
func (s *ExecutionService) ListByProject(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID, cursor string, limit int) (pagination.Page[domain.AgentExecution], error) {
	c, err := pagination.DecodeCursor(cursor)
	if err != nil {
		return pagination.Page[domain.AgentExecution]{}, apperrors.BadRequest("invalid cursor")
	}
	limit = normalizeLimit(limit)

	executions, err := s.executionRepo.ListByProjectID(ctx, tenantID, projectID, c, limit)
	if err != nil {
		return pagination.Page[domain.AgentExecution]{}, fmt.Errorf("failed to list executions: %w", err)
	}

	return pagination.NewPage(executions, limit, func(e domain.AgentExecution) *pagination.Cursor {
		return pagination.NewCursor(e.ID.String(), e.StartedAt)
	}), nil
}

// Update applies an approve, cancel or retry action to an execution.
func (s *ExecutionService) Update(ctx context.Context, tenantID domain.TenantID, executionID domain.ExecutionID, input UpdateExecutionInput) (domain.AgentExecution, error) {
	action := domain.ExecutionAction(input.Action)
	if !action.IsValid() {
		return domain.AgentExecution{}, apperrors.Validation("unknown execution action: " + input.Action)
	}

	execution, err := s.executionRepo.GetByID(ctx, tenantID, executionID)
	if err != nil {
		return domain.AgentExecution{}, err
	}

	next, err := execution.Apply(action)
	if err != nil {
		return domain.AgentExecution{}, err
	}

	if err := s.executionRepo.Update(ctx, next); err != nil {
		return domain.AgentExecution{}, fmt.Errorf("failed to update execution: %w", err)
	}

	s.events.Record(ctx, domain.NewLifecycleEvent(
		domain.AggregateExecution, next.ID.String(), tenantID,
		string(execution.Status), string(next.Status), string(action)))

	return next, nil
}

// RecordTokenUsage adds token consumption to a running execution. The
// budget check is atomic: a rejected call leaves the stored total unchanged.
func (s *ExecutionService) RecordTokenUsage(ctx context.Context, tenantID domain.TenantID, executionID domain.ExecutionID, tokens int64) (domain.AgentExecution, error) {
	execution, err := s.executionRepo.GetByID(ctx, tenantID, executionID)
	if err != nil {
		return domain.AgentExecution{}, err
	}

	next, err := execution.RecordTokenUsage(tokens)
	if err != nil {
		return domain.AgentExecution{}, err
	}

	if err := s.executionRepo.Update(ctx, next); err != nil {
		return domain.AgentExecution{}, fmt.Errorf("failed to update execution: %w", err)
	}
	return next, nil
}

// CompleteStep marks the current pipeline step completed and advances to
// the next one, completing the execution after the final step.
func (s *ExecutionService) CompleteStep(ctx context.Context, tenantID domain.TenantID, executionID domain.ExecutionID) (domain.AgentExecution, error) {
	execution, err := s.executionRepo.GetByID(ctx, tenantID, executionID)
	if err != nil {
		return domain.AgentExecution{}, err
	}

	next, err := execution.CompleteCurrentStep()
	if err != nil {
		return domain.AgentExecution{}, err
	}

	if err := s.executionRepo.Update(ctx, next); err != nil {
		return domain.AgentExecution{}, fmt.Errorf("failed to update execution: %w", err)
	}

	s.events.Record(ctx, domain.NewLifecycleEvent(
		domain.AggregateExecution, next.ID.String(), tenantID,
		string(execution.Status), string(next.Status), "step completed: "+string(execution.CurrentStep)))

	return next, nil
}

// Pause suspends a running execution for human review.
func (s *ExecutionService) Pause(ctx context.Context, tenantID domain.TenantID, executionID domain.ExecutionID) (domain.AgentExecution, error) {
	execution, err := s.executionRepo.GetByID(ctx, tenantID, executionID)
	if err != nil {
		return domain.AgentExecution{}, err
	}

	next, err := execution.WaitForHuman()
	if err != nil {
		return domain.AgentExecution{}, err
	}

	if err := s.executionRepo.Update(ctx, next); err != nil {
		return domain.AgentExecution{}, fmt.Errorf("failed to update execution: %w", err)
	}

	s.events.Record(ctx, domain.NewLifecycleEvent(
		domain.AggregateExecution, next.ID.String(), tenantID,
		string(execution.Status), string(next.Status), "awaiting human review"))

	return next, nil
}

// Fail marks an execution failed with the given message. Called by the
// pipeline worker when a step errors out.
func (s *ExecutionService) Fail(ctx context.Context, tenantID domain.TenantID, executionID domain.ExecutionID, message string) (domain.AgentExecution, error) {
	execution, err := s.executionRepo.GetByID(ctx, tenantID, executionID)
	if err != nil {
		return domain.AgentExecution{}, err
	}

	next, err := execution.Fail(message)
	if err != nil {
		return domain.AgentExecution{}, err
	}

	if err := s.executionRepo.Update(ctx, next); err != nil {
		return domain.AgentExecution{}, fmt.Errorf("failed to update execution: %w", err)
	}

	s.events.Record(ctx, domain.NewLifecycleEvent(
		domain.AggregateExecution, next.ID.String(), tenantID,
		string(execution.Status), string(next.Status), message))

	return next, nil
}
