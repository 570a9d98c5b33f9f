package service

import (
	"context"

	"github.com/appforge/appforge/internal/domain"
	"github.com/appforge/appforge/internal/pkg/pagination"
)

// IDGenerator mints prefixed aggregate identifiers. Implemented by
// internal/pkg/id.
type IDGenerator interface {
	Generate(prefix string) string
}

// EventRecorder receives one lifecycle event per successful transition.
// Recording is fire-and-forget: implementations log failures instead of
// propagating them, so a slow or down audit store never blocks a request.
type EventRecorder interface {
	Record(ctx context.Context, event domain.LifecycleEvent)
}

// ProjectRepository defines project persistence. Every lookup is scoped by
// tenant; list queries use limit+1 fetching for cursor pagination.
type ProjectRepository interface {
	Create(ctx context.Context, project domain.Project) error
	Update(ctx context.Context, project domain.Project) error
	GetByID(ctx context.Context, tenantID domain.TenantID, id domain.ProjectID) (domain.Project, error)
	ListByTenantID(ctx context.Context, tenantID domain.TenantID, cursor *pagination.Cursor, limit int) ([]domain.Project, error)
	CountByTenantID(ctx context.Context, tenantID domain.TenantID) (int, error)
	Delete(ctx context.Context, tenantID domain.TenantID, id domain.ProjectID) error
}

// ExecutionRepository defines agent execution persistence.
type ExecutionRepository interface {
	Create(ctx context.Context, execution domain.AgentExecution) error
	Update(ctx context.Context, execution domain.AgentExecution) error
	GetByID(ctx context.Context, tenantID domain.TenantID, id domain.ExecutionID) (domain.AgentExecution, error)
	ListByProjectID(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID, cursor *pagination.Cursor, limit int) ([]domain.AgentExecution, error)
	// FindRunningByProjectID returns the non-terminal execution for a
	// project, or NotFound when there is none.
	FindRunningByProjectID(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID) (domain.AgentExecution, error)
}

// DeploymentRepository defines deployment persistence.
type DeploymentRepository interface {
	Create(ctx context.Context, deployment domain.Deployment) error
	Update(ctx context.Context, deployment domain.Deployment) error
	GetByID(ctx context.Context, tenantID domain.TenantID, id domain.DeploymentID) (domain.Deployment, error)
	ListByProjectID(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID, cursor *pagination.Cursor, limit int) ([]domain.Deployment, error)
	// FindActiveByProjectID returns the in-progress deployment for a
	// project, or NotFound when there is none.
	FindActiveByProjectID(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID) (domain.Deployment, error)
}

// SubscriptionRepository defines subscription persistence.
type SubscriptionRepository interface {
	Create(ctx context.Context, subscription domain.Subscription) error
	Update(ctx context.Context, subscription domain.Subscription) error
	GetByID(ctx context.Context, tenantID domain.TenantID, id domain.SubscriptionID) (domain.Subscription, error)
	// FindActiveByTenantID returns the tenant's non-cancelled subscription,
	// or NotFound when there is none.
	FindActiveByTenantID(ctx context.Context, tenantID domain.TenantID) (domain.Subscription, error)
	// FindByPayhereSubscriptionID resolves a subscription by the gateway's
	// subscription id. Not tenant-scoped: the caller authenticates the
	// payload by signature, not by session.
	FindByPayhereSubscriptionID(ctx context.Context, payhereSubscriptionID string) (domain.Subscription, error)
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// normalizeLimit clamps a requested page size to the allowed range.
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}
