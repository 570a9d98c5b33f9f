package domain

import (
	"time"

	apperrors "github.com/appforge/appforge/internal/pkg/errors"
)

// deploymentTransitions is the allowed-transition table for deployments.
var deploymentTransitions = map[DeploymentStatus][]DeploymentStatus{
	DeploymentStatusPending:       {DeploymentStatusBootstrapping, DeploymentStatusFailed},
	DeploymentStatusBootstrapping: {DeploymentStatusDeploying, DeploymentStatusFailed},
	DeploymentStatusDeploying:     {DeploymentStatusVerifying, DeploymentStatusFailed},
	DeploymentStatusVerifying:     {DeploymentStatusSucceeded, DeploymentStatusFailed},
	DeploymentStatusFailed:        {DeploymentStatusRollingBack, DeploymentStatusPending},
	DeploymentStatusRollingBack:   {DeploymentStatusPending},
	DeploymentStatusSucceeded:     {},
}

// Deployment is the aggregate root for provisioning one version of a project.
// It carries an append-only log: entries are never removed or reordered, and
// logging never fails or changes status.
type Deployment struct {
	ID           DeploymentID     `json:"id"`
	ProjectID    ProjectID        `json:"projectId"`
	TenantID     TenantID         `json:"tenantId"`
	Version      string           `json:"version"`
	Status       DeploymentStatus `json:"status"`
	Logs         []string         `json:"logs"`
	DeployedURL  string           `json:"deployedUrl,omitempty"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
	StartedAt    time.Time        `json:"startedAt"`
	CompletedAt  *time.Time       `json:"completedAt,omitempty"`
}

// NewDeployment creates a fresh deployment in pending status.
func NewDeployment(id DeploymentID, projectID ProjectID, tenantID TenantID, version string) Deployment {
	return Deployment{
		ID:        id,
		ProjectID: projectID,
		TenantID:  tenantID,
		Version:   version,
		Status:    DeploymentStatusPending,
		StartedAt: time.Now().UTC(),
	}
}

// ReconstituteDeployment rehydrates a deployment from storage. The log
// slice is copied so the caller's backing array is not shared; nothing is
// validated or defaulted.
func ReconstituteDeployment(d Deployment) Deployment {
	d.Logs = append([]string(nil), d.Logs...)
	return d
}

func (d Deployment) clone() Deployment {
	d.Logs = append([]string(nil), d.Logs...)
	return d
}

func (d Deployment) transition(to DeploymentStatus) (Deployment, error) {
	for _, allowed := range deploymentTransitions[d.Status] {
		if allowed == to {
			next := d.clone()
			next.Status = to
			return next, nil
		}
	}
	return Deployment{}, apperrors.InvalidTransition("deployment", string(d.Status), string(to))
}

// StartBootstrap begins infrastructure bootstrap.
func (d Deployment) StartBootstrap() (Deployment, error) {
	return d.transition(DeploymentStatusBootstrapping)
}

// StartDeploy begins the application rollout.
func (d Deployment) StartDeploy() (Deployment, error) {
	return d.transition(DeploymentStatusDeploying)
}

// StartVerification begins post-deploy verification.
func (d Deployment) StartVerification() (Deployment, error) {
	return d.transition(DeploymentStatusVerifying)
}

// MarkSucceeded records the deployed URL and completes the deployment.
func (d Deployment) MarkSucceeded(deployedURL string) (Deployment, error) {
	if deployedURL == "" {
		return Deployment{}, apperrors.Validation("deployed URL is required to mark a deployment succeeded")
	}
	next, err := d.transition(DeploymentStatusSucceeded)
	if err != nil {
		return Deployment{}, err
	}
	now := time.Now().UTC()
	next.DeployedURL = deployedURL
	next.CompletedAt = &now
	return next, nil
}

// MarkFailed records the error message and fails the deployment.
func (d Deployment) MarkFailed(message string) (Deployment, error) {
	if message == "" {
		return Deployment{}, apperrors.Validation("error message is required to mark a deployment failed")
	}
	next, err := d.transition(DeploymentStatusFailed)
	if err != nil {
		return Deployment{}, err
	}
	now := time.Now().UTC()
	next.ErrorMessage = message
	next.CompletedAt = &now
	return next, nil
}

// StartRollback begins rolling back a failed deployment.
func (d Deployment) StartRollback() (Deployment, error) {
	return d.transition(DeploymentStatusRollingBack)
}

// Retry returns the deployment to pending. Allowed directly from failed or
// after a rollback.
func (d Deployment) Retry() (Deployment, error) {
	next, err := d.transition(DeploymentStatusPending)
	if err != nil {
		return Deployment{}, err
	}
	next.ErrorMessage = ""
	next.CompletedAt = nil
	return next, nil
}

// AppendLog appends a timestamped entry to the log. It is orthogonal to
// state: it never fails and never changes status.
func (d Deployment) AppendLog(message string) Deployment {
	next := d.clone()
	entry := "[" + time.Now().UTC().Format(time.RFC3339) + "] " + message
	next.Logs = append(next.Logs, entry)
	return next
}

// IsTerminal reports whether the deployment has finished.
func (d Deployment) IsTerminal() bool {
	return d.Status.IsTerminal()
}

// IsInProgress reports whether the deployment is still being worked on.
func (d Deployment) IsInProgress() bool {
	return d.Status.IsInProgress()
}

// Apply dispatches a requested action to the matching method. deployedURL
// and errorMessage are consulted only by the actions that need them.
func (d Deployment) Apply(action DeploymentAction, deployedURL, errorMessage string) (Deployment, error) {
	switch action {
	case DeploymentActionStartBootstrap:
		return d.StartBootstrap()
	case DeploymentActionStartDeploy:
		return d.StartDeploy()
	case DeploymentActionStartVerification:
		return d.StartVerification()
	case DeploymentActionMarkSucceeded:
		return d.MarkSucceeded(deployedURL)
	case DeploymentActionMarkFailed:
		return d.MarkFailed(errorMessage)
	case DeploymentActionStartRollback:
		return d.StartRollback()
	case DeploymentActionRetry:
		return d.Retry()
	default:
		return Deployment{}, apperrors.Validation("unknown deployment action: " + string(action))
	}
}
