package worker

import (
	"context"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/appforge/appforge/internal/domain"
	"github.com/appforge/appforge/internal/service"
)

// ExecutionDispatcher wraps the execution service so that starting an
// execution also enqueues its first pipeline step. All other methods pass
// straight through to the embedded service.
type ExecutionDispatcher struct {
	*service.ExecutionService
	logger *zap.Logger
	client taskEnqueuer
}

// NewExecutionDispatcher creates a new execution dispatcher
func NewExecutionDispatcher(executions *service.ExecutionService, client taskEnqueuer, logger *zap.Logger) *ExecutionDispatcher {
	return &ExecutionDispatcher{
		ExecutionService: executions,
		logger:           logger,
		client:           client,
	}
}

// Start begins a new execution and queues the pipeline task that drives it.
// If the task cannot be queued the execution is failed so the project is not
// blocked by a run that will never advance.
func (d *ExecutionDispatcher) Start(ctx context.Context, tenantID domain.TenantID, input service.StartExecutionInput) (domain.AgentExecution, error) {
	execution, err := d.ExecutionService.Start(ctx, tenantID, input)
	if err != nil {
		return domain.AgentExecution{}, err
	}

	task, err := NewPipelineStepTask(PipelineStepPayload{
		TenantID:    tenantID.String(),
		ExecutionID: execution.ID.String(),
	})
	if err == nil {
		_, err = d.client.Enqueue(task, asynq.Queue("default"))
	}
	if err != nil {
		d.logger.Error("could not queue pipeline for execution",
			zap.String("execution_id", execution.ID.String()),
			zap.Error(err),
		)
		if failed, failErr := d.ExecutionService.Fail(ctx, tenantID, execution.ID, "pipeline could not be queued"); failErr == nil {
			return failed, err
		}
		return execution, err
	}

	return execution, nil
}

// DeploymentDispatcher wraps the deployment service so that starting a
// deployment also queues its bootstrap stage.
type DeploymentDispatcher struct {
	*service.DeploymentService
	logger *zap.Logger
	client taskEnqueuer
}

// NewDeploymentDispatcher creates a new deployment dispatcher
func NewDeploymentDispatcher(deployments *service.DeploymentService, client taskEnqueuer, logger *zap.Logger) *DeploymentDispatcher {
	return &DeploymentDispatcher{
		DeploymentService: deployments,
		logger:            logger,
		client:            client,
	}
}

// Start creates a new deployment and queues its first stage. A deployment
// whose stage task cannot be queued is marked failed immediately.
func (d *DeploymentDispatcher) Start(ctx context.Context, tenantID domain.TenantID, input service.StartDeploymentInput) (domain.Deployment, error) {
	deployment, err := d.DeploymentService.Start(ctx, tenantID, input)
	if err != nil {
		return domain.Deployment{}, err
	}

	task, err := NewDeploymentStageTask(DeploymentStagePayload{
		TenantID:     tenantID.String(),
		DeploymentID: deployment.ID.String(),
		ProjectID:    deployment.ProjectID.String(),
		Version:      deployment.Version,
		Stage:        StageBootstrap,
	})
	if err == nil {
		_, err = d.client.Enqueue(task, asynq.Queue("critical"))
	}
	if err != nil {
		d.logger.Error("could not queue deployment stages",
			zap.String("deployment_id", deployment.ID.String()),
			zap.Error(err),
		)
		if failed, failErr := d.DeploymentService.Update(ctx, tenantID, deployment.ID, service.UpdateDeploymentInput{
			Action:       string(domain.DeploymentActionMarkFailed),
			ErrorMessage: "deployment stages could not be queued",
		}); failErr == nil {
			return failed, err
		}
		return deployment, err
	}

	return deployment, nil
}
