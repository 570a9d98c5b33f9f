package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/appforge/appforge/internal/domain"
	apperrors "github.com/appforge/appforge/internal/pkg/errors"
	"github.com/appforge/appforge/internal/pkg/pagination"
	"github.com/appforge/appforge/internal/service"
)

type mockProjectService struct {
	mock.Mock
}

func (m *mockProjectService) Create(ctx context.Context, tenantID domain.TenantID, input service.CreateProjectInput) (domain.Project, error) {
	args := m.Called(ctx, tenantID, input)
	return args.Get(0).(domain.Project), args.Error(1)
}

func (m *mockProjectService) Get(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID) (domain.Project, error) {
	args := m.Called(ctx, tenantID, projectID)
	return args.Get(0).(domain.Project), args.Error(1)
}

func (m *mockProjectService) List(ctx context.Context, tenantID domain.TenantID, cursor string, limit int) (pagination.Page[domain.Project], error) {
	args := m.Called(ctx, tenantID, cursor, limit)
	return args.Get(0).(pagination.Page[domain.Project]), args.Error(1)
}

func (m *mockProjectService) UpdateStatus(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID, input service.UpdateProjectStatusInput) (domain.Project, error) {
	args := m.Called(ctx, tenantID, projectID, input)
	return args.Get(0).(domain.Project), args.Error(1)
}

func (m *mockProjectService) SetRepoURL(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID, repoURL string) (domain.Project, error) {
	args := m.Called(ctx, tenantID, projectID, repoURL)
	return args.Get(0).(domain.Project), args.Error(1)
}

func (m *mockProjectService) Delete(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID) error {
	args := m.Called(ctx, tenantID, projectID)
	return args.Error(0)
}

func setupProjectsApp(svc *mockProjectService) *fiber.App {
	app := fiber.New()
	v1 := app.Group("/v1", withTenant(testTenant))
	NewProjectsHandler(svc, zap.NewNop()).RegisterRoutes(v1)
	return app
}

func testProject() domain.Project {
	name, _ := domain.NewProjectName("Invoice Portal")
	return domain.NewProject("prj_handler00000000000000", testTenant, name, "", "")
}

func TestCreateProject(t *testing.T) {
	t.Run("creates project from valid body", func(t *testing.T) {
		svc := new(mockProjectService)
		app := setupProjectsApp(svc)

		project := testProject()
		svc.On("Create", mock.Anything, testTenant, service.CreateProjectInput{Name: "Invoice Portal"}).
			Return(project, nil)

		body, _ := json.Marshal(map[string]string{"name": "Invoice Portal"})
		req := httptest.NewRequest(http.MethodPost, "/v1/projects", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var got domain.Project
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, project.ID, got.ID)
		assert.Equal(t, domain.ProjectStatusDraft, got.Status)

		svc.AssertExpectations(t)
	})

	t.Run("rejects missing name before reaching the service", func(t *testing.T) {
		svc := new(mockProjectService)
		app := setupProjectsApp(svc)

		req := httptest.NewRequest(http.MethodPost, "/v1/projects", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		svc.AssertNotCalled(t, "Create")
	})

	t.Run("maps plan limit errors to 403", func(t *testing.T) {
		svc := new(mockProjectService)
		app := setupProjectsApp(svc)

		svc.On("Create", mock.Anything, testTenant, mock.Anything).
			Return(domain.Project{}, apperrors.LimitExceeded("plan allows at most 1 project"))

		body, _ := json.Marshal(map[string]string{"name": "Invoice Portal"})
		req := httptest.NewRequest(http.MethodPost, "/v1/projects", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, apperrors.GetStatusCode(apperrors.LimitExceeded("")), resp.StatusCode)

		var got ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, apperrors.CodeLimitExceeded, got.Code)
	})
}

func TestGetProject(t *testing.T) {
	t.Run("returns project", func(t *testing.T) {
		svc := new(mockProjectService)
		app := setupProjectsApp(svc)

		project := testProject()
		svc.On("Get", mock.Anything, testTenant, project.ID).Return(project, nil)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/projects/"+project.ID.String(), nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("maps not found to 404", func(t *testing.T) {
		svc := new(mockProjectService)
		app := setupProjectsApp(svc)

		svc.On("Get", mock.Anything, testTenant, mock.Anything).
			Return(domain.Project{}, apperrors.NotFound("project"))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/projects/prj_missing0000000000000", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("rejects malformed project id", func(t *testing.T) {
		svc := new(mockProjectService)
		app := setupProjectsApp(svc)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/projects/not-an-id", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		svc.AssertNotCalled(t, "Get")
	})
}

func TestListProjects(t *testing.T) {
	svc := new(mockProjectService)
	app := setupProjectsApp(svc)

	page := pagination.Page[domain.Project]{
		Items:      []domain.Project{testProject()},
		HasMore:    true,
		NextCursor: "eyJ0IjoxfQ",
	}
	svc.On("List", mock.Anything, testTenant, "", 2).Return(page, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/projects?limit=2", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, true, got["hasMore"])
}

func TestUpdateProjectStatus(t *testing.T) {
	t.Run("applies action", func(t *testing.T) {
		svc := new(mockProjectService)
		app := setupProjectsApp(svc)

		project := testProject()
		reviewing, err := project.SubmitForReview()
		require.NoError(t, err)

		svc.On("UpdateStatus", mock.Anything, testTenant, project.ID,
			service.UpdateProjectStatusInput{Action: "submit_for_review"}).
			Return(reviewing, nil)

		body, _ := json.Marshal(map[string]string{"action": "submit_for_review"})
		req := httptest.NewRequest(http.MethodPost, "/v1/projects/"+project.ID.String()+"/actions", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var got domain.Project
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, domain.ProjectStatusSpecReview, got.Status)
	})

	t.Run("maps illegal transitions to 409", func(t *testing.T) {
		svc := new(mockProjectService)
		app := setupProjectsApp(svc)

		project := testProject()
		svc.On("UpdateStatus", mock.Anything, testTenant, project.ID, mock.Anything).
			Return(domain.Project{}, apperrors.InvalidTransition("project", "draft", "live"))

		body, _ := json.Marshal(map[string]string{"action": "mark_live"})
		req := httptest.NewRequest(http.MethodPost, "/v1/projects/"+project.ID.String()+"/actions", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})
}

func TestSetRepoURL(t *testing.T) {
	t.Run("stores the generated repository", func(t *testing.T) {
		svc := new(mockProjectService)
		app := setupProjectsApp(svc)

		project := testProject()
		updated, err := project.SetRepoURL("https://git.appforge.dev/acme/invoice-portal")
		require.NoError(t, err)

		svc.On("SetRepoURL", mock.Anything, testTenant, project.ID,
			"https://git.appforge.dev/acme/invoice-portal").Return(updated, nil)

		body, _ := json.Marshal(map[string]string{"repoUrl": "https://git.appforge.dev/acme/invoice-portal"})
		req := httptest.NewRequest(http.MethodPut, "/v1/projects/"+project.ID.String()+"/repo", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("rejects a non-url body", func(t *testing.T) {
		svc := new(mockProjectService)
		app := setupProjectsApp(svc)

		body, _ := json.Marshal(map[string]string{"repoUrl": "not a url"})
		req := httptest.NewRequest(http.MethodPut, "/v1/projects/"+testProject().ID.String()+"/repo", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		svc.AssertNotCalled(t, "SetRepoURL")
	})
}

func TestDeleteProject(t *testing.T) {
	svc := new(mockProjectService)
	app := setupProjectsApp(svc)

	project := testProject()
	svc.On("Delete", mock.Anything, testTenant, project.ID).Return(nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/v1/projects/"+project.ID.String(), nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestRequireTenantID_Missing(t *testing.T) {
	svc := new(mockProjectService)
	app := fiber.New()
	NewProjectsHandler(svc, zap.NewNop()).RegisterRoutes(app.Group("/v1"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/projects", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
