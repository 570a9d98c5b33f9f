package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/appforge/appforge/internal/domain"
	"github.com/appforge/appforge/internal/pkg/pagination"
)

// MockProjectRepository is a mock implementation of ProjectRepository
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) Create(ctx context.Context, project domain.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) Update(ctx context.Context, project domain.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) GetByID(ctx context.Context, tenantID domain.TenantID, id domain.ProjectID) (domain.Project, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Get(0).(domain.Project), args.Error(1)
}

func (m *MockProjectRepository) ListByTenantID(ctx context.Context, tenantID domain.TenantID, cursor *pagination.Cursor, limit int) ([]domain.Project, error) {
	args := m.Called(ctx, tenantID, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Project), args.Error(1)
}

func (m *MockProjectRepository) CountByTenantID(ctx context.Context, tenantID domain.TenantID) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

func (m *MockProjectRepository) Delete(ctx context.Context, tenantID domain.TenantID, id domain.ProjectID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

// MockExecutionRepository is a mock implementation of ExecutionRepository
type MockExecutionRepository struct {
	mock.Mock
}

func (m *MockExecutionRepository) Create(ctx context.Context, execution domain.AgentExecution) error {
	args := m.Called(ctx, execution)
	return args.Error(0)
}

func (m *MockExecutionRepository) Update(ctx context.Context, execution domain.AgentExecution) error {
	args := m.Called(ctx, execution)
	return args.Error(0)
}

func (m *MockExecutionRepository) GetByID(ctx context.Context, tenantID domain.TenantID, id domain.ExecutionID) (domain.AgentExecution, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Get(0).(domain.AgentExecution), args.Error(1)
}

func (m *MockExecutionRepository) ListByProjectID(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID, cursor *pagination.Cursor, limit int) ([]domain.AgentExecution, error) {
	args := m.Called(ctx, tenantID, projectID, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AgentExecution), args.Error(1)
}

func (m *MockExecutionRepository) FindRunningByProjectID(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID) (domain.AgentExecution, error) {
	args := m.Called(ctx, tenantID, projectID)
	return args.Get(0).(domain.AgentExecution), args.Error(1)
}

// MockDeploymentRepository is a mock implementation of DeploymentRepository
type MockDeploymentRepository struct {
	mock.Mock
}

func (m *MockDeploymentRepository) Create(ctx context.Context, deployment domain.Deployment) error {
	args := m.Called(ctx, deployment)
	return args.Error(0)
}

func (m *MockDeploymentRepository) Update(ctx context.Context, deployment domain.Deployment) error {
	args := m.Called(ctx, deployment)
	return args.Error(0)
}

func (m *MockDeploymentRepository) GetByID(ctx context.Context, tenantID domain.TenantID, id domain.DeploymentID) (domain.Deployment, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Get(0).(domain.Deployment), args.Error(1)
}

func (m *MockDeploymentRepository) ListByProjectID(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID, cursor *pagination.Cursor, limit int) ([]domain.Deployment, error) {
	args := m.Called(ctx, tenantID, projectID, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Deployment), args.Error(1)
}

func (m *MockDeploymentRepository) FindActiveByProjectID(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID) (domain.Deployment, error) {
	args := m.Called(ctx, tenantID, projectID)
	return args.Get(0).(domain.Deployment), args.Error(1)
}

// MockSubscriptionRepository is a mock implementation of SubscriptionRepository
type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, subscription domain.Subscription) error {
	args := m.Called(ctx, subscription)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) Update(ctx context.Context, subscription domain.Subscription) error {
	args := m.Called(ctx, subscription)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) GetByID(ctx context.Context, tenantID domain.TenantID, id domain.SubscriptionID) (domain.Subscription, error) {
	args := m.Called(ctx, tenantID, id)
	return args.Get(0).(domain.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindActiveByTenantID(ctx context.Context, tenantID domain.TenantID) (domain.Subscription, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(domain.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) FindByPayhereSubscriptionID(ctx context.Context, payhereSubscriptionID string) (domain.Subscription, error) {
	args := m.Called(ctx, payhereSubscriptionID)
	return args.Get(0).(domain.Subscription), args.Error(1)
}

// stubIDGenerator returns a fixed identifier for any prefix.
type stubIDGenerator struct {
	next string
}

func (g *stubIDGenerator) Generate(prefix string) string {
	if g.next != "" {
		return g.next
	}
	return prefix + "_test0000000000000000000"
}

// recordedEvents captures lifecycle events for assertions.
type recordedEvents struct {
	events []domain.LifecycleEvent
}

func (r *recordedEvents) Record(_ context.Context, event domain.LifecycleEvent) {
	r.events = append(r.events, event)
}
