package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/appforge/appforge/internal/domain"
	"github.com/appforge/appforge/internal/middleware"
	apperrors "github.com/appforge/appforge/internal/pkg/errors"
)

// humanGates are the pipeline steps that need a human sign-off before the
// run may continue. On reaching one the worker parks the execution in
// waiting_for_human; the approve action over the API resumes it.
var humanGates = map[domain.PipelineStep]bool{
	domain.StepSpecReview:   true,
	domain.StepQAValidation: true,
}

// gatePollInterval is how long a parked execution waits before the worker
// checks whether it has been approved.
const gatePollInterval = 30 * time.Second

type executionControl interface {
	Get(ctx context.Context, tenantID domain.TenantID, executionID domain.ExecutionID) (domain.AgentExecution, error)
	RecordTokenUsage(ctx context.Context, tenantID domain.TenantID, executionID domain.ExecutionID, tokens int64) (domain.AgentExecution, error)
	CompleteStep(ctx context.Context, tenantID domain.TenantID, executionID domain.ExecutionID) (domain.AgentExecution, error)
	Pause(ctx context.Context, tenantID domain.TenantID, executionID domain.ExecutionID) (domain.AgentExecution, error)
	Fail(ctx context.Context, tenantID domain.TenantID, executionID domain.ExecutionID, message string) (domain.AgentExecution, error)
}

type taskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// PipelineWorker advances agent executions through the generation pipeline
type PipelineWorker struct {
	logger     *zap.Logger
	executions executionControl
	client     taskEnqueuer
}

// NewPipelineWorker creates a new pipeline worker
func NewPipelineWorker(logger *zap.Logger, executions executionControl, client taskEnqueuer) *PipelineWorker {
	return &PipelineWorker{
		logger:     logger,
		executions: executions,
		client:     client,
	}
}

// ProcessStepTask processes one pipeline step for an execution
func (w *PipelineWorker) ProcessStepTask(ctx context.Context, t *asynq.Task) error {
	var payload PipelineStepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal pipeline step payload: %w", err)
	}

	tenantID, err := domain.NewTenantID(payload.TenantID)
	if err != nil {
		return fmt.Errorf("invalid tenant id in payload: %w", err)
	}
	executionID, err := domain.NewExecutionID(payload.ExecutionID)
	if err != nil {
		return fmt.Errorf("invalid execution id in payload: %w", err)
	}

	execution, err := w.executions.Get(ctx, tenantID, executionID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			w.logger.Warn("dropping step task for unknown execution",
				zap.String("execution_id", payload.ExecutionID),
			)
			return nil
		}
		return err
	}

	switch execution.Status {
	case domain.ExecutionStatusWaitingForHuman:
		// Parked at a gate. Check back later; approval arrives over the API.
		return w.requeue(payload, asynq.ProcessIn(gatePollInterval))
	case domain.ExecutionStatusRunning:
		// fall through
	default:
		w.logger.Info("dropping step task for settled execution",
			zap.String("execution_id", payload.ExecutionID),
			zap.String("status", string(execution.Status)),
		)
		return nil
	}

	step := execution.CurrentStep

	if payload.TokensUsed > 0 {
		execution, err = w.executions.RecordTokenUsage(ctx, tenantID, executionID, payload.TokensUsed)
		if err != nil {
			if apperrors.IsTokenBudgetExceeded(err) {
				_, failErr := w.executions.Fail(ctx, tenantID, executionID, err.Error())
				if failErr != nil {
					return failErr
				}
				w.logger.Warn("execution failed on token budget",
					zap.String("execution_id", payload.ExecutionID),
					zap.String("step", string(step)),
				)
				return nil
			}
			return err
		}
		middleware.RecordTokensConsumed(tenantID.String(), payload.TokensUsed)
	}

	execution, err = w.executions.CompleteStep(ctx, tenantID, executionID)
	if err != nil {
		return err
	}
	middleware.RecordStepCompleted(string(step))

	w.logger.Info("completed pipeline step",
		zap.String("execution_id", payload.ExecutionID),
		zap.String("step", string(step)),
		zap.Int("progress_percent", execution.ProgressPercent()),
	)

	if execution.Status == domain.ExecutionStatusCompleted {
		w.logger.Info("execution completed",
			zap.String("execution_id", payload.ExecutionID),
		)
		return nil
	}

	if humanGates[execution.CurrentStep] {
		if _, err := w.executions.Pause(ctx, tenantID, executionID); err != nil {
			return err
		}
		w.logger.Info("execution parked for human review",
			zap.String("execution_id", payload.ExecutionID),
			zap.String("gate", string(execution.CurrentStep)),
		)
		return w.requeue(PipelineStepPayload{
			TenantID:    payload.TenantID,
			ExecutionID: payload.ExecutionID,
		}, asynq.ProcessIn(gatePollInterval))
	}

	return w.requeue(PipelineStepPayload{
		TenantID:    payload.TenantID,
		ExecutionID: payload.ExecutionID,
	})
}

func (w *PipelineWorker) requeue(payload PipelineStepPayload, opts ...asynq.Option) error {
	task, err := NewPipelineStepTask(payload)
	if err != nil {
		return err
	}
	opts = append([]asynq.Option{asynq.Queue("default")}, opts...)
	_, err = w.client.Enqueue(task, opts...)
	return err
}
