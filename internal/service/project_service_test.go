package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/appforge/appforge/internal/config"
	"github.com/appforge/appforge/internal/domain"
	apperrors "github.com/appforge/appforge/internal/pkg/errors"
	"github.com/appforge/appforge/internal/pkg/pagination"
)

const testTenantID = domain.TenantID("ten_test0000000000000000")

func testPlans() config.PlansConfig {
	return config.PlansConfig{
		"free": {MonthlyPrice: "0.00", Currency: "USD", TokenBudget: 100000, MaxProjects: 1},
		"pro":  {MonthlyPrice: "29.00", Currency: "USD", Recurrence: "1 Month", Duration: "Forever", TokenBudget: 2000000, MaxProjects: 10},
	}
}

// freeTierResolver is a plan resolver whose tenant has no subscription.
func freeTierResolver(t *testing.T) (*PlanResolver, *MockSubscriptionRepository) {
	t.Helper()
	subRepo := new(MockSubscriptionRepository)
	subRepo.On("FindActiveByTenantID", mock.Anything, mock.Anything).
		Return(domain.Subscription{}, apperrors.NotFound("subscription")).Maybe()
	return NewPlanResolver(subRepo, testPlans()), subRepo
}

func TestProjectService_Create(t *testing.T) {
	t.Run("creates a draft project", func(t *testing.T) {
		projectRepo := new(MockProjectRepository)
		planner, _ := freeTierResolver(t)
		events := &recordedEvents{}
		svc := NewProjectService(projectRepo, planner, &stubIDGenerator{}, events)

		projectRepo.On("CountByTenantID", mock.Anything, testTenantID).Return(0, nil)
		projectRepo.On("Create", mock.Anything, mock.AnythingOfType("domain.Project")).Return(nil)

		project, err := svc.Create(context.Background(), testTenantID, CreateProjectInput{
			Name:        "Invoice Portal",
			Description: "internal invoicing tool",
			TemplateID:  "tpl_saas",
		})

		require.NoError(t, err)
		assert.Equal(t, domain.ProjectStatusDraft, project.Status)
		assert.Equal(t, "Invoice Portal", project.Name.String())
		assert.Equal(t, testTenantID, project.TenantID)
		projectRepo.AssertExpectations(t)

		require.Len(t, events.events, 1)
		assert.Equal(t, domain.AggregateProject, events.events[0].AggregateKind)
		assert.Equal(t, string(domain.ProjectStatusDraft), events.events[0].ToStatus)
	})

	t.Run("enforces the plan project limit", func(t *testing.T) {
		projectRepo := new(MockProjectRepository)
		planner, _ := freeTierResolver(t)
		svc := NewProjectService(projectRepo, planner, &stubIDGenerator{}, &recordedEvents{})

		// Free plan allows one project.
		projectRepo.On("CountByTenantID", mock.Anything, testTenantID).Return(1, nil)

		_, err := svc.Create(context.Background(), testTenantID, CreateProjectInput{Name: "Another"})

		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeLimitExceeded))
		projectRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects an invalid name before touching storage", func(t *testing.T) {
		projectRepo := new(MockProjectRepository)
		planner, _ := freeTierResolver(t)
		svc := NewProjectService(projectRepo, planner, &stubIDGenerator{}, &recordedEvents{})

		_, err := svc.Create(context.Background(), testTenantID, CreateProjectInput{Name: "x"})

		assert.True(t, apperrors.IsValidation(err))
		projectRepo.AssertNotCalled(t, "CountByTenantID", mock.Anything, mock.Anything)
	})
}

func TestProjectService_UpdateStatus(t *testing.T) {
	t.Run("applies a lifecycle action and persists the new snapshot", func(t *testing.T) {
		projectRepo := new(MockProjectRepository)
		planner, _ := freeTierResolver(t)
		events := &recordedEvents{}
		svc := NewProjectService(projectRepo, planner, &stubIDGenerator{}, events)

		name, _ := domain.NewProjectName("Invoice Portal")
		project := domain.NewProject("prj_test0000000000000000", testTenantID, name, "", "")

		projectRepo.On("GetByID", mock.Anything, testTenantID, project.ID).Return(project, nil)
		projectRepo.On("Update", mock.Anything, mock.MatchedBy(func(p domain.Project) bool {
			return p.Status == domain.ProjectStatusSpecReview
		})).Return(nil)

		updated, err := svc.UpdateStatus(context.Background(), testTenantID, project.ID, UpdateProjectStatusInput{
			Action: "submit_for_review",
		})

		require.NoError(t, err)
		assert.Equal(t, domain.ProjectStatusSpecReview, updated.Status)
		projectRepo.AssertExpectations(t)

		require.Len(t, events.events, 1)
		assert.Equal(t, string(domain.ProjectStatusDraft), events.events[0].FromStatus)
		assert.Equal(t, string(domain.ProjectStatusSpecReview), events.events[0].ToStatus)
	})

	t.Run("invalid transition is rejected without a write", func(t *testing.T) {
		projectRepo := new(MockProjectRepository)
		planner, _ := freeTierResolver(t)
		svc := NewProjectService(projectRepo, planner, &stubIDGenerator{}, &recordedEvents{})

		name, _ := domain.NewProjectName("Invoice Portal")
		project := domain.NewProject("prj_test0000000000000000", testTenantID, name, "", "")
		projectRepo.On("GetByID", mock.Anything, testTenantID, project.ID).Return(project, nil)

		_, err := svc.UpdateStatus(context.Background(), testTenantID, project.ID, UpdateProjectStatusInput{
			Action: "mark_live",
		})

		assert.True(t, apperrors.IsInvalidTransition(err))
		projectRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("unknown action is a validation error", func(t *testing.T) {
		projectRepo := new(MockProjectRepository)
		planner, _ := freeTierResolver(t)
		svc := NewProjectService(projectRepo, planner, &stubIDGenerator{}, &recordedEvents{})

		_, err := svc.UpdateStatus(context.Background(), testTenantID, "prj_test0000000000000000", UpdateProjectStatusInput{
			Action: "explode",
		})

		assert.True(t, apperrors.IsValidation(err))
		projectRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestProjectService_Delete(t *testing.T) {
	liveProject := func() domain.Project {
		name, _ := domain.NewProjectName("Invoice Portal")
		p := domain.NewProject("prj_test0000000000000000", testTenantID, name, "", "")
		for _, action := range []domain.ProjectAction{
			domain.ProjectActionSubmitForReview,
			domain.ProjectActionApproveSpec,
			domain.ProjectActionStartGeneration,
			domain.ProjectActionSubmitForQA,
			domain.ProjectActionApproveQA,
			domain.ProjectActionStartDeployment,
		} {
			p, _ = p.Apply(action, "")
		}
		p, _ = p.MarkLive("https://app.example.com")
		return p
	}

	t.Run("deletes a draft project", func(t *testing.T) {
		projectRepo := new(MockProjectRepository)
		planner, _ := freeTierResolver(t)
		svc := NewProjectService(projectRepo, planner, &stubIDGenerator{}, &recordedEvents{})

		name, _ := domain.NewProjectName("Invoice Portal")
		project := domain.NewProject("prj_test0000000000000000", testTenantID, name, "", "")

		projectRepo.On("GetByID", mock.Anything, testTenantID, project.ID).Return(project, nil)
		projectRepo.On("Delete", mock.Anything, testTenantID, project.ID).Return(nil)

		require.NoError(t, svc.Delete(context.Background(), testTenantID, project.ID))
		projectRepo.AssertExpectations(t)
	})

	t.Run("live projects cannot be deleted", func(t *testing.T) {
		projectRepo := new(MockProjectRepository)
		planner, _ := freeTierResolver(t)
		svc := NewProjectService(projectRepo, planner, &stubIDGenerator{}, &recordedEvents{})

		project := liveProject()
		projectRepo.On("GetByID", mock.Anything, testTenantID, project.ID).Return(project, nil)

		err := svc.Delete(context.Background(), testTenantID, project.ID)

		assert.True(t, apperrors.IsInvalidTransition(err))
		projectRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestProjectService_List(t *testing.T) {
	projectRepo := new(MockProjectRepository)
	planner, _ := freeTierResolver(t)
	svc := NewProjectService(projectRepo, planner, &stubIDGenerator{}, &recordedEvents{})

	name, _ := domain.NewProjectName("Invoice Portal")
	projects := []domain.Project{
		domain.NewProject("prj_a0000000000000000000000", testTenantID, name, "", ""),
		domain.NewProject("prj_b0000000000000000000000", testTenantID, name, "", ""),
		domain.NewProject("prj_c0000000000000000000000", testTenantID, name, "", ""),
	}
	// limit+1 rows back means there is a further page.
	projectRepo.On("ListByTenantID", mock.Anything, testTenantID, (*pagination.Cursor)(nil), 2).
		Return(projects, nil)

	page, err := svc.List(context.Background(), testTenantID, "", 2)

	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.HasMore)
	assert.NotEmpty(t, page.NextCursor)
}
