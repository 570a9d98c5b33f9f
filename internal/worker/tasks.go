package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TypePipelineStep is the task type for one generation pipeline step
	TypePipelineStep = "pipeline:step"
	// TypeDeploymentStage is the task type for one deployment stage
	TypeDeploymentStage = "deployment:stage"
)

// Deployment stages as carried in task payloads
const (
	StageBootstrap = "bootstrap"
	StageDeploy    = "deploy"
	StageVerify    = "verify"
)

// PipelineStepPayload is the payload for pipeline step tasks. TokensUsed is
// what the agent runtime reports for the step about to be completed.
type PipelineStepPayload struct {
	TenantID    string `json:"tenant_id"`
	ExecutionID string `json:"execution_id"`
	TokensUsed  int64  `json:"tokens_used"`
}

// NewPipelineStepTask creates a pipeline step task
func NewPipelineStepTask(payload PipelineStepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pipeline step payload: %w", err)
	}
	return asynq.NewTask(TypePipelineStep, data, asynq.MaxRetry(3), asynq.Timeout(10*time.Minute)), nil
}

// DeploymentStagePayload is the payload for deployment stage tasks.
// ArtifactPath points at the generated bundle on the worker filesystem; it
// is uploaded to object storage during the deploy stage.
type DeploymentStagePayload struct {
	TenantID     string `json:"tenant_id"`
	DeploymentID string `json:"deployment_id"`
	ProjectID    string `json:"project_id"`
	Version      string `json:"version"`
	Stage        string `json:"stage"`
	ArtifactPath string `json:"artifact_path,omitempty"`
}

// NewDeploymentStageTask creates a deployment stage task
func NewDeploymentStageTask(payload DeploymentStagePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deployment stage payload: %w", err)
	}
	return asynq.NewTask(TypeDeploymentStage, data, asynq.MaxRetry(3), asynq.Timeout(15*time.Minute)), nil
}
