package domain

import (
	"time"

	apperrors "github.com/appforge/appforge/internal/pkg/errors"
)

// projectTransitions is the allowed-transition table. A status change is
// legal only when the target appears in the set for the current status.
var projectTransitions = map[ProjectStatus][]ProjectStatus{
	ProjectStatusDraft:          {ProjectStatusSpecReview, ProjectStatusFailed},
	ProjectStatusSpecReview:     {ProjectStatusDesigning, ProjectStatusFailed},
	ProjectStatusDesigning:      {ProjectStatusGenerating, ProjectStatusFailed},
	ProjectStatusGenerating:     {ProjectStatusQAReview, ProjectStatusFailed},
	ProjectStatusQAReview:       {ProjectStatusSecurityReview, ProjectStatusFailed},
	ProjectStatusSecurityReview: {ProjectStatusDeploying, ProjectStatusFailed},
	ProjectStatusDeploying:      {ProjectStatusLive, ProjectStatusFailed},
	ProjectStatusLive:           {},
	ProjectStatusFailed:         {ProjectStatusDraft},
}

// Project is the aggregate root for one application being specified, built
// and deployed. All mutation methods return a new instance.
type Project struct {
	ID          ProjectID     `json:"id"`
	TenantID    TenantID      `json:"tenantId"`
	Name        ProjectName   `json:"name"`
	Description Description   `json:"description,omitempty"`
	TemplateID  string        `json:"templateId,omitempty"`
	Status      ProjectStatus `json:"status"`
	RepoURL     string        `json:"repoUrl,omitempty"`
	DeployedURL string        `json:"deployedUrl,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// NewProject creates a fresh project in draft status.
func NewProject(id ProjectID, tenantID TenantID, name ProjectName, description Description, templateID string) Project {
	now := time.Now().UTC()
	return Project{
		ID:          id,
		TenantID:    tenantID,
		Name:        name,
		Description: description,
		TemplateID:  templateID,
		Status:      ProjectStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ReconstituteProject rehydrates a project from storage. No validation and
// no default-filling happen here.
func ReconstituteProject(p Project) Project {
	return p
}

// transition moves the project to the target status if the transition table
// allows it.
func (p Project) transition(to ProjectStatus) (Project, error) {
	for _, allowed := range projectTransitions[p.Status] {
		if allowed == to {
			p.Status = to
			p.UpdatedAt = time.Now().UTC()
			return p, nil
		}
	}
	return Project{}, apperrors.InvalidTransition("project", string(p.Status), string(to))
}

// SubmitForReview moves a draft project into specification review.
func (p Project) SubmitForReview() (Project, error) {
	return p.transition(ProjectStatusSpecReview)
}

// ApproveSpec approves the specification and starts design.
func (p Project) ApproveSpec() (Project, error) {
	return p.transition(ProjectStatusDesigning)
}

// StartGeneration moves the project into code generation.
func (p Project) StartGeneration() (Project, error) {
	return p.transition(ProjectStatusGenerating)
}

// SubmitForQA moves the generated project into QA review.
func (p Project) SubmitForQA() (Project, error) {
	return p.transition(ProjectStatusQAReview)
}

// ApproveQA approves QA and starts security review.
func (p Project) ApproveQA() (Project, error) {
	return p.transition(ProjectStatusSecurityReview)
}

// StartDeployment moves the project into deployment.
func (p Project) StartDeployment() (Project, error) {
	return p.transition(ProjectStatusDeploying)
}

// MarkLive records the deployed URL and marks the project live. live is
// terminal for forward progress.
func (p Project) MarkLive(deployedURL string) (Project, error) {
	if deployedURL == "" {
		return Project{}, apperrors.Validation("deployed URL is required to mark a project live")
	}
	next, err := p.transition(ProjectStatusLive)
	if err != nil {
		return Project{}, err
	}
	next.DeployedURL = deployedURL
	return next, nil
}

// MarkFailed marks the project failed. Available from every non-terminal
// state except live.
func (p Project) MarkFailed() (Project, error) {
	return p.transition(ProjectStatusFailed)
}

// Restart returns a failed project to draft for a manual restart.
func (p Project) Restart() (Project, error) {
	return p.transition(ProjectStatusDraft)
}

// SetRepoURL records the source repository URL. This is a same-state
// metadata update, not a transition.
func (p Project) SetRepoURL(repoURL string) (Project, error) {
	if repoURL == "" {
		return Project{}, apperrors.Validation("repo URL is required")
	}
	p.RepoURL = repoURL
	p.UpdatedAt = time.Now().UTC()
	return p, nil
}

// CanBeDeleted reports whether the project is in a state that permits
// deletion. Actively deploying or live projects cannot be deleted.
func (p Project) CanBeDeleted() bool {
	return p.Status != ProjectStatusDeploying && p.Status != ProjectStatusLive
}

// Apply dispatches a requested action to the matching transition method.
func (p Project) Apply(action ProjectAction, deployedURL string) (Project, error) {
	switch action {
	case ProjectActionSubmitForReview:
		return p.SubmitForReview()
	case ProjectActionApproveSpec:
		return p.ApproveSpec()
	case ProjectActionStartGeneration:
		return p.StartGeneration()
	case ProjectActionSubmitForQA:
		return p.SubmitForQA()
	case ProjectActionApproveQA:
		return p.ApproveQA()
	case ProjectActionStartDeployment:
		return p.StartDeployment()
	case ProjectActionMarkLive:
		return p.MarkLive(deployedURL)
	case ProjectActionMarkFailed:
		return p.MarkFailed()
	case ProjectActionRestart:
		return p.Restart()
	default:
		return Project{}, apperrors.Validation("unknown project action: " + string(action))
	}
}
