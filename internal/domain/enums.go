package domain

// ProjectStatus represents the lifecycle state of a project
type ProjectStatus string

const (
	ProjectStatusDraft          ProjectStatus = "draft"
	ProjectStatusSpecReview     ProjectStatus = "spec_review"
	ProjectStatusDesigning      ProjectStatus = "designing"
	ProjectStatusGenerating     ProjectStatus = "generating"
	ProjectStatusQAReview       ProjectStatus = "qa_review"
	ProjectStatusSecurityReview ProjectStatus = "security_review"
	ProjectStatusDeploying      ProjectStatus = "deploying"
	ProjectStatusLive           ProjectStatus = "live"
	ProjectStatusFailed         ProjectStatus = "failed"
)

// IsValid checks if the project status is valid
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusDraft, ProjectStatusSpecReview, ProjectStatusDesigning,
		ProjectStatusGenerating, ProjectStatusQAReview, ProjectStatusSecurityReview,
		ProjectStatusDeploying, ProjectStatusLive, ProjectStatusFailed:
		return true
	}
	return false
}

// ProjectAction represents a requested project status change
type ProjectAction string

const (
	ProjectActionSubmitForReview ProjectAction = "submit_for_review"
	ProjectActionApproveSpec     ProjectAction = "approve_spec"
	ProjectActionStartGeneration ProjectAction = "start_generation"
	ProjectActionSubmitForQA     ProjectAction = "submit_for_qa"
	ProjectActionApproveQA       ProjectAction = "approve_qa"
	ProjectActionStartDeployment ProjectAction = "start_deployment"
	ProjectActionMarkLive        ProjectAction = "mark_live"
	ProjectActionMarkFailed      ProjectAction = "mark_failed"
	ProjectActionRestart         ProjectAction = "restart"
)

// IsValid checks if the project action is valid
func (a ProjectAction) IsValid() bool {
	switch a {
	case ProjectActionSubmitForReview, ProjectActionApproveSpec, ProjectActionStartGeneration,
		ProjectActionSubmitForQA, ProjectActionApproveQA, ProjectActionStartDeployment,
		ProjectActionMarkLive, ProjectActionMarkFailed, ProjectActionRestart:
		return true
	}
	return false
}

// ExecutionStatus represents the state of an agent execution
type ExecutionStatus string

const (
	ExecutionStatusRunning         ExecutionStatus = "running"
	ExecutionStatusWaitingForHuman ExecutionStatus = "waiting_for_human"
	ExecutionStatusCompleted       ExecutionStatus = "completed"
	ExecutionStatusFailed          ExecutionStatus = "failed"
	ExecutionStatusCancelled       ExecutionStatus = "cancelled"
)

// IsValid checks if the execution status is valid
func (s ExecutionStatus) IsValid() bool {
	switch s {
	case ExecutionStatusRunning, ExecutionStatusWaitingForHuman, ExecutionStatusCompleted,
		ExecutionStatusFailed, ExecutionStatusCancelled:
		return true
	}
	return false
}

// IsTerminal checks if the execution status is terminal
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed || s == ExecutionStatusCancelled
}

// ExecutionAction represents a requested execution state change
type ExecutionAction string

const (
	ExecutionActionApprove ExecutionAction = "approve"
	ExecutionActionCancel  ExecutionAction = "cancel"
	ExecutionActionRetry   ExecutionAction = "retry"
)

// IsValid checks if the execution action is valid
func (a ExecutionAction) IsValid() bool {
	switch a {
	case ExecutionActionApprove, ExecutionActionCancel, ExecutionActionRetry:
		return true
	}
	return false
}

// PipelineStep identifies one step of the generation pipeline
type PipelineStep string

const (
	StepRequirementAnalysis PipelineStep = "requirement_analysis"
	StepSpecReview          PipelineStep = "spec_review"
	StepSystemDesign        PipelineStep = "system_design"
	StepCodeGeneration      PipelineStep = "code_generation"
	StepAssembly            PipelineStep = "assembly"
	StepQAValidation        PipelineStep = "qa_validation"
	StepSecurityReview      PipelineStep = "security_review"
	StepRepositorySetup     PipelineStep = "repository_setup"
	StepDeployment          PipelineStep = "deployment"
	StepVerification        PipelineStep = "verification"
)

// PipelineSteps is the fixed execution order of the generation pipeline.
// The ledger inside an AgentExecution always holds exactly these steps in
// exactly this order.
var PipelineSteps = []PipelineStep{
	StepRequirementAnalysis,
	StepSpecReview,
	StepSystemDesign,
	StepCodeGeneration,
	StepAssembly,
	StepQAValidation,
	StepSecurityReview,
	StepRepositorySetup,
	StepDeployment,
	StepVerification,
}

// IsValid checks if the pipeline step is valid
func (s PipelineStep) IsValid() bool {
	for _, step := range PipelineSteps {
		if s == step {
			return true
		}
	}
	return false
}

// StepStatus represents the state of one step ledger entry
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// IsValid checks if the step status is valid
func (s StepStatus) IsValid() bool {
	switch s {
	case StepStatusPending, StepStatusRunning, StepStatusCompleted, StepStatusFailed:
		return true
	}
	return false
}

// DeploymentStatus represents the state of a deployment
type DeploymentStatus string

const (
	DeploymentStatusPending       DeploymentStatus = "pending"
	DeploymentStatusBootstrapping DeploymentStatus = "bootstrapping"
	DeploymentStatusDeploying     DeploymentStatus = "deploying"
	DeploymentStatusVerifying     DeploymentStatus = "verifying"
	DeploymentStatusSucceeded     DeploymentStatus = "succeeded"
	DeploymentStatusFailed        DeploymentStatus = "failed"
	DeploymentStatusRollingBack   DeploymentStatus = "rolling_back"
)

// IsValid checks if the deployment status is valid
func (s DeploymentStatus) IsValid() bool {
	switch s {
	case DeploymentStatusPending, DeploymentStatusBootstrapping, DeploymentStatusDeploying,
		DeploymentStatusVerifying, DeploymentStatusSucceeded, DeploymentStatusFailed,
		DeploymentStatusRollingBack:
		return true
	}
	return false
}

// IsTerminal checks if the deployment status is terminal
func (s DeploymentStatus) IsTerminal() bool {
	return s == DeploymentStatusSucceeded || s == DeploymentStatusFailed
}

// IsInProgress checks if the deployment is actively being worked on
func (s DeploymentStatus) IsInProgress() bool {
	switch s {
	case DeploymentStatusPending, DeploymentStatusBootstrapping, DeploymentStatusDeploying,
		DeploymentStatusVerifying, DeploymentStatusRollingBack:
		return true
	}
	return false
}

// DeploymentAction represents a requested deployment state change
type DeploymentAction string

const (
	DeploymentActionStartBootstrap    DeploymentAction = "start_bootstrap"
	DeploymentActionStartDeploy       DeploymentAction = "start_deploy"
	DeploymentActionStartVerification DeploymentAction = "start_verification"
	DeploymentActionMarkSucceeded     DeploymentAction = "mark_succeeded"
	DeploymentActionMarkFailed        DeploymentAction = "mark_failed"
	DeploymentActionStartRollback     DeploymentAction = "start_rollback"
	DeploymentActionRetry             DeploymentAction = "retry"
)

// IsValid checks if the deployment action is valid
func (a DeploymentAction) IsValid() bool {
	switch a {
	case DeploymentActionStartBootstrap, DeploymentActionStartDeploy,
		DeploymentActionStartVerification, DeploymentActionMarkSucceeded,
		DeploymentActionMarkFailed, DeploymentActionStartRollback, DeploymentActionRetry:
		return true
	}
	return false
}

// SubscriptionStatus represents the billing state of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusTrialing  SubscriptionStatus = "trialing"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPastDue   SubscriptionStatus = "past_due"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// IsValid checks if the subscription status is valid
func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionStatusTrialing, SubscriptionStatusActive,
		SubscriptionStatusPastDue, SubscriptionStatusCancelled:
		return true
	}
	return false
}

// IsTerminal checks if the subscription status is terminal
func (s SubscriptionStatus) IsTerminal() bool {
	return s == SubscriptionStatusCancelled
}
