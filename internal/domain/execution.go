package domain

import (
	"math"
	"time"

	apperrors "github.com/appforge/appforge/internal/pkg/errors"
)

// cancelledMessage is recorded on the execution when it is cancelled.
const cancelledMessage = "execution cancelled by user"

// executionTransitions is the allowed-transition table for execution status.
var executionTransitions = map[ExecutionStatus][]ExecutionStatus{
	ExecutionStatusRunning: {
		ExecutionStatusWaitingForHuman,
		ExecutionStatusCompleted,
		ExecutionStatusFailed,
		ExecutionStatusCancelled,
	},
	ExecutionStatusWaitingForHuman: {
		ExecutionStatusRunning,
		ExecutionStatusFailed,
		ExecutionStatusCancelled,
	},
	ExecutionStatusFailed:    {ExecutionStatusRunning},
	ExecutionStatusCompleted: {},
	ExecutionStatusCancelled: {},
}

// StepRecord is one entry of the step ledger: the per-step bookkeeping of
// status, timestamps, token usage and error message.
type StepRecord struct {
	Step         PipelineStep `json:"step"`
	Status       StepStatus   `json:"status"`
	TokensUsed   int64        `json:"tokensUsed"`
	StartedAt    *time.Time   `json:"startedAt,omitempty"`
	CompletedAt  *time.Time   `json:"completedAt,omitempty"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
}

// AgentExecution is the aggregate root for one run of the generation
// pipeline. It owns an ordered, fixed-size step ledger and a token budget
// that caps cumulative consumption. All mutation methods return a new
// instance; the ledger is deep-copied on every mutation so earlier snapshots
// never alias the new one.
type AgentExecution struct {
	ID           ExecutionID     `json:"id"`
	ProjectID    ProjectID       `json:"projectId"`
	TenantID     TenantID        `json:"tenantId"`
	Status       ExecutionStatus `json:"status"`
	CurrentStep  PipelineStep    `json:"currentStep"`
	TokensUsed   int64           `json:"tokensUsed"`
	TokensBudget int64           `json:"tokensBudget"`
	Steps        []StepRecord    `json:"steps"`
	StartedAt    time.Time       `json:"startedAt"`
	CompletedAt  *time.Time      `json:"completedAt,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
}

// NewAgentExecution creates a fresh execution: step one running, the rest
// pending, status running.
func NewAgentExecution(id ExecutionID, projectID ProjectID, tenantID TenantID, tokensBudget int64) AgentExecution {
	now := time.Now().UTC()
	steps := make([]StepRecord, len(PipelineSteps))
	for i, step := range PipelineSteps {
		steps[i] = StepRecord{Step: step, Status: StepStatusPending}
	}
	steps[0].Status = StepStatusRunning
	steps[0].StartedAt = &now

	return AgentExecution{
		ID:           id,
		ProjectID:    projectID,
		TenantID:     tenantID,
		Status:       ExecutionStatusRunning,
		CurrentStep:  PipelineSteps[0],
		TokensBudget: tokensBudget,
		Steps:        steps,
		StartedAt:    now,
	}
}

// ReconstituteExecution rehydrates an execution from storage. The ledger
// slice is copied so the caller's backing array is not shared; nothing is
// validated or defaulted.
func ReconstituteExecution(e AgentExecution) AgentExecution {
	e.Steps = append([]StepRecord(nil), e.Steps...)
	return e
}

// clone returns a copy whose step ledger does not alias the receiver's.
func (e AgentExecution) clone() AgentExecution {
	e.Steps = append([]StepRecord(nil), e.Steps...)
	return e
}

func (e AgentExecution) transition(to ExecutionStatus) (AgentExecution, error) {
	for _, allowed := range executionTransitions[e.Status] {
		if allowed == to {
			next := e.clone()
			next.Status = to
			return next, nil
		}
	}
	return AgentExecution{}, apperrors.InvalidTransition("execution", string(e.Status), string(to))
}

// currentStepIndex returns the ledger index of the current step.
func (e AgentExecution) currentStepIndex() int {
	for i, rec := range e.Steps {
		if rec.Step == e.CurrentStep {
			return i
		}
	}
	return -1
}

// RecordTokenUsage adds tokens to the running total and the current step's
// counter. The call is rejected atomically when the new total would exceed
// the budget: no partial credit is applied.
func (e AgentExecution) RecordTokenUsage(tokens int64) (AgentExecution, error) {
	if tokens <= 0 {
		return AgentExecution{}, apperrors.Validation("token count must be positive")
	}
	if e.Status != ExecutionStatusRunning {
		return AgentExecution{}, apperrors.InvalidTransition("execution", string(e.Status), string(ExecutionStatusRunning))
	}
	if e.TokensUsed+tokens > e.TokensBudget {
		return AgentExecution{}, apperrors.TokenBudgetExceeded(e.TokensUsed+tokens, e.TokensBudget)
	}

	next := e.clone()
	next.TokensUsed += tokens
	if i := next.currentStepIndex(); i >= 0 {
		next.Steps[i].TokensUsed += tokens
	}
	return next, nil
}

// CompleteCurrentStep marks the active step completed. When it was the last
// step the whole execution completes; otherwise the next step starts
// running. This is the only way the pipeline advances: steps cannot be
// skipped or reordered.
func (e AgentExecution) CompleteCurrentStep() (AgentExecution, error) {
	if e.Status != ExecutionStatusRunning {
		return AgentExecution{}, apperrors.InvalidTransition("execution", string(e.Status), string(ExecutionStatusRunning))
	}
	i := e.currentStepIndex()
	if i < 0 {
		return AgentExecution{}, apperrors.Internal("current step missing from ledger")
	}

	now := time.Now().UTC()
	next := e.clone()
	next.Steps[i].Status = StepStatusCompleted
	next.Steps[i].CompletedAt = &now

	if i == len(next.Steps)-1 {
		next.Status = ExecutionStatusCompleted
		next.CompletedAt = &now
		return next, nil
	}

	next.Steps[i+1].Status = StepStatusRunning
	next.Steps[i+1].StartedAt = &now
	next.CurrentStep = next.Steps[i+1].Step
	return next, nil
}

// WaitForHuman pauses the execution for human approval. Step state and token
// counters are untouched.
func (e AgentExecution) WaitForHuman() (AgentExecution, error) {
	return e.transition(ExecutionStatusWaitingForHuman)
}

// Resume returns a paused execution to running. Only waiting_for_human
// resumes; a failed execution goes back to running through Retry.
func (e AgentExecution) Resume() (AgentExecution, error) {
	if e.Status != ExecutionStatusWaitingForHuman {
		return AgentExecution{}, apperrors.InvalidTransition("execution", string(e.Status), string(ExecutionStatusRunning))
	}
	return e.transition(ExecutionStatusRunning)
}

// Fail marks the execution failed and attaches the message to the running
// step.
func (e AgentExecution) Fail(message string) (AgentExecution, error) {
	next, err := e.transition(ExecutionStatusFailed)
	if err != nil {
		return AgentExecution{}, err
	}
	now := time.Now().UTC()
	next.CompletedAt = &now
	next.ErrorMessage = message
	if i := next.currentStepIndex(); i >= 0 && next.Steps[i].Status == StepStatusRunning {
		next.Steps[i].Status = StepStatusFailed
		next.Steps[i].ErrorMessage = message
	}
	return next, nil
}

// Cancel cancels the execution. Allowed only while running or waiting for
// human approval.
func (e AgentExecution) Cancel() (AgentExecution, error) {
	next, err := e.transition(ExecutionStatusCancelled)
	if err != nil {
		return AgentExecution{}, err
	}
	now := time.Now().UTC()
	next.CompletedAt = &now
	next.ErrorMessage = cancelledMessage
	return next, nil
}

// Retry returns a failed execution to running: the failed step's error is
// cleared and the step re-marked running. Token usage is not reset.
func (e AgentExecution) Retry() (AgentExecution, error) {
	if e.Status != ExecutionStatusFailed {
		return AgentExecution{}, apperrors.InvalidTransition("execution", string(e.Status), string(ExecutionStatusRunning))
	}
	next, err := e.transition(ExecutionStatusRunning)
	if err != nil {
		return AgentExecution{}, err
	}
	now := time.Now().UTC()
	next.CompletedAt = nil
	next.ErrorMessage = ""
	if i := next.currentStepIndex(); i >= 0 && next.Steps[i].Status == StepStatusFailed {
		next.Steps[i].Status = StepStatusRunning
		next.Steps[i].ErrorMessage = ""
		next.Steps[i].StartedAt = &now
	}
	return next, nil
}

// IsTerminal reports whether the execution has finished.
func (e AgentExecution) IsTerminal() bool {
	return e.Status.IsTerminal()
}

// ProgressPercent returns the completed share of the pipeline, rounded to
// the nearest whole percent.
func (e AgentExecution) ProgressPercent() int {
	if len(e.Steps) == 0 {
		return 0
	}
	completed := 0
	for _, rec := range e.Steps {
		if rec.Status == StepStatusCompleted {
			completed++
		}
	}
	return int(math.Round(100 * float64(completed) / float64(len(e.Steps))))
}

// TokenBudgetRemaining returns the unspent part of the budget.
func (e AgentExecution) TokenBudgetRemaining() int64 {
	return e.TokensBudget - e.TokensUsed
}

// TokenBudgetPercent returns the consumed share of the budget. A zero budget
// reports 100 to avoid division by zero.
func (e AgentExecution) TokenBudgetPercent() int {
	if e.TokensBudget == 0 {
		return 100
	}
	return int(math.Round(100 * float64(e.TokensUsed) / float64(e.TokensBudget)))
}

// Apply dispatches a requested action to the matching method.
func (e AgentExecution) Apply(action ExecutionAction) (AgentExecution, error) {
	switch action {
	case ExecutionActionApprove:
		return e.Resume()
	case ExecutionActionCancel:
		return e.Cancel()
	case ExecutionActionRetry:
		return e.Retry()
	default:
		return AgentExecution{}, apperrors.Validation("unknown execution action: " + string(action))
	}
}
