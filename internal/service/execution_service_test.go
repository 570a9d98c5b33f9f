package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/appforge/appforge/internal/domain"
	apperrors "github.com/appforge/appforge/internal/pkg/errors"
)

const testProjectID = domain.ProjectID("prj_test0000000000000000")

func testProject(t *testing.T) domain.Project {
	t.Helper()
	name, err := domain.NewProjectName("Invoice Portal")
	require.NoError(t, err)
	return domain.NewProject(testProjectID, testTenantID, name, "", "")
}

func TestExecutionService_Start(t *testing.T) {
	t.Run("starts with the plan's token budget", func(t *testing.T) {
		executionRepo := new(MockExecutionRepository)
		projectRepo := new(MockProjectRepository)
		planner, _ := freeTierResolver(t)
		events := &recordedEvents{}
		svc := NewExecutionService(executionRepo, projectRepo, planner, &stubIDGenerator{}, events)

		projectRepo.On("GetByID", mock.Anything, testTenantID, testProjectID).Return(testProject(t), nil)
		executionRepo.On("FindRunningByProjectID", mock.Anything, testTenantID, testProjectID).
			Return(domain.AgentExecution{}, apperrors.NotFound("execution"))
		executionRepo.On("Create", mock.Anything, mock.AnythingOfType("domain.AgentExecution")).Return(nil)

		execution, err := svc.Start(context.Background(), testTenantID, StartExecutionInput{
			ProjectID: testProjectID.String(),
		})

		require.NoError(t, err)
		assert.Equal(t, domain.ExecutionStatusRunning, execution.Status)
		// Free plan budget.
		assert.Equal(t, int64(100000), execution.TokensBudget)
		assert.Equal(t, domain.StepRequirementAnalysis, execution.CurrentStep)
		executionRepo.AssertExpectations(t)
		require.Len(t, events.events, 1)
	})

	t.Run("explicit budget overrides the plan", func(t *testing.T) {
		executionRepo := new(MockExecutionRepository)
		projectRepo := new(MockProjectRepository)
		planner, subRepo := freeTierResolver(t)
		svc := NewExecutionService(executionRepo, projectRepo, planner, &stubIDGenerator{}, &recordedEvents{})

		projectRepo.On("GetByID", mock.Anything, testTenantID, testProjectID).Return(testProject(t), nil)
		executionRepo.On("FindRunningByProjectID", mock.Anything, testTenantID, testProjectID).
			Return(domain.AgentExecution{}, apperrors.NotFound("execution"))
		executionRepo.On("Create", mock.Anything, mock.AnythingOfType("domain.AgentExecution")).Return(nil)

		execution, err := svc.Start(context.Background(), testTenantID, StartExecutionInput{
			ProjectID:    testProjectID.String(),
			TokensBudget: 5000,
		})

		require.NoError(t, err)
		assert.Equal(t, int64(5000), execution.TokensBudget)
		subRepo.AssertNotCalled(t, "FindActiveByTenantID", mock.Anything, mock.Anything)
	})

	t.Run("one running execution per project", func(t *testing.T) {
		executionRepo := new(MockExecutionRepository)
		projectRepo := new(MockProjectRepository)
		planner, _ := freeTierResolver(t)
		svc := NewExecutionService(executionRepo, projectRepo, planner, &stubIDGenerator{}, &recordedEvents{})

		running := domain.NewAgentExecution("exe_running0000000000000", testProjectID, testTenantID, 1000)
		projectRepo.On("GetByID", mock.Anything, testTenantID, testProjectID).Return(testProject(t), nil)
		executionRepo.On("FindRunningByProjectID", mock.Anything, testTenantID, testProjectID).Return(running, nil)

		_, err := svc.Start(context.Background(), testTenantID, StartExecutionInput{
			ProjectID: testProjectID.String(),
		})

		assert.True(t, apperrors.IsAlreadyRunning(err))
		executionRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown project", func(t *testing.T) {
		executionRepo := new(MockExecutionRepository)
		projectRepo := new(MockProjectRepository)
		planner, _ := freeTierResolver(t)
		svc := NewExecutionService(executionRepo, projectRepo, planner, &stubIDGenerator{}, &recordedEvents{})

		projectRepo.On("GetByID", mock.Anything, testTenantID, testProjectID).
			Return(domain.Project{}, apperrors.NotFound("project"))

		_, err := svc.Start(context.Background(), testTenantID, StartExecutionInput{
			ProjectID: testProjectID.String(),
		})

		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestExecutionService_RecordTokenUsage(t *testing.T) {
	t.Run("persists the new totals", func(t *testing.T) {
		executionRepo := new(MockExecutionRepository)
		svc := NewExecutionService(executionRepo, nil, nil, &stubIDGenerator{}, &recordedEvents{})

		execution := domain.NewAgentExecution("exe_test0000000000000000", testProjectID, testTenantID, 1000)
		executionRepo.On("GetByID", mock.Anything, testTenantID, execution.ID).Return(execution, nil)
		executionRepo.On("Update", mock.Anything, mock.MatchedBy(func(e domain.AgentExecution) bool {
			return e.TokensUsed == 300
		})).Return(nil)

		updated, err := svc.RecordTokenUsage(context.Background(), testTenantID, execution.ID, 300)

		require.NoError(t, err)
		assert.Equal(t, int64(300), updated.TokensUsed)
		executionRepo.AssertExpectations(t)
	})

	t.Run("budget rejection writes nothing", func(t *testing.T) {
		executionRepo := new(MockExecutionRepository)
		svc := NewExecutionService(executionRepo, nil, nil, &stubIDGenerator{}, &recordedEvents{})

		execution := domain.NewAgentExecution("exe_test0000000000000000", testProjectID, testTenantID, 100)
		executionRepo.On("GetByID", mock.Anything, testTenantID, execution.ID).Return(execution, nil)

		_, err := svc.RecordTokenUsage(context.Background(), testTenantID, execution.ID, 101)

		assert.True(t, apperrors.IsTokenBudgetExceeded(err))
		executionRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestExecutionService_Update(t *testing.T) {
	t.Run("approve resumes a paused execution", func(t *testing.T) {
		executionRepo := new(MockExecutionRepository)
		events := &recordedEvents{}
		svc := NewExecutionService(executionRepo, nil, nil, &stubIDGenerator{}, events)

		execution := domain.NewAgentExecution("exe_test0000000000000000", testProjectID, testTenantID, 1000)
		paused, err := execution.WaitForHuman()
		require.NoError(t, err)

		executionRepo.On("GetByID", mock.Anything, testTenantID, execution.ID).Return(paused, nil)
		executionRepo.On("Update", mock.Anything, mock.MatchedBy(func(e domain.AgentExecution) bool {
			return e.Status == domain.ExecutionStatusRunning
		})).Return(nil)

		updated, err := svc.Update(context.Background(), testTenantID, execution.ID, UpdateExecutionInput{Action: "approve"})

		require.NoError(t, err)
		assert.Equal(t, domain.ExecutionStatusRunning, updated.Status)
		require.Len(t, events.events, 1)
		assert.Equal(t, string(domain.ExecutionStatusWaitingForHuman), events.events[0].FromStatus)
	})

	t.Run("unknown action", func(t *testing.T) {
		executionRepo := new(MockExecutionRepository)
		svc := NewExecutionService(executionRepo, nil, nil, &stubIDGenerator{}, &recordedEvents{})

		_, err := svc.Update(context.Background(), testTenantID, "exe_test0000000000000000", UpdateExecutionInput{Action: "pause"})

		assert.True(t, apperrors.IsValidation(err))
		executionRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestExecutionService_CompleteStep(t *testing.T) {
	executionRepo := new(MockExecutionRepository)
	events := &recordedEvents{}
	svc := NewExecutionService(executionRepo, nil, nil, &stubIDGenerator{}, events)

	execution := domain.NewAgentExecution("exe_test0000000000000000", testProjectID, testTenantID, 1000)
	executionRepo.On("GetByID", mock.Anything, testTenantID, execution.ID).Return(execution, nil)
	executionRepo.On("Update", mock.Anything, mock.MatchedBy(func(e domain.AgentExecution) bool {
		return e.CurrentStep == domain.StepSpecReview
	})).Return(nil)

	updated, err := svc.CompleteStep(context.Background(), testTenantID, execution.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.StepSpecReview, updated.CurrentStep)
	executionRepo.AssertExpectations(t)
}

func TestExecutionService_Fail(t *testing.T) {
	executionRepo := new(MockExecutionRepository)
	svc := NewExecutionService(executionRepo, nil, nil, &stubIDGenerator{}, &recordedEvents{})

	execution := domain.NewAgentExecution("exe_test0000000000000000", testProjectID, testTenantID, 1000)
	executionRepo.On("GetByID", mock.Anything, testTenantID, execution.ID).Return(execution, nil)
	executionRepo.On("Update", mock.Anything, mock.MatchedBy(func(e domain.AgentExecution) bool {
		return e.Status == domain.ExecutionStatusFailed && e.ErrorMessage == "generation failed"
	})).Return(nil)

	updated, err := svc.Fail(context.Background(), testTenantID, execution.ID, "generation failed")

	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionStatusFailed, updated.Status)
}
