// Package testutil provides shared test fixtures for the AppForge API.
package testutil

import (
	"github.com/gofiber/fiber/v2"

	"github.com/appforge/appforge/internal/domain"
	"github.com/appforge/appforge/internal/middleware"
	"github.com/appforge/appforge/internal/pkg/id"
)

// NewTestProject creates a draft project for a tenant with default values.
func NewTestProject(tenantID domain.TenantID) domain.Project {
	name, err := domain.NewProjectName("test-project")
	if err != nil {
		panic(err)
	}
	projectID, err := domain.NewProjectID(id.NewProjectID())
	if err != nil {
		panic(err)
	}
	return domain.NewProject(projectID, tenantID, name, "", "")
}

// NewTestExecution creates a running execution against a project.
func NewTestExecution(tenantID domain.TenantID, projectID domain.ProjectID, budget int64) domain.AgentExecution {
	executionID, err := domain.NewExecutionID(id.NewExecutionID())
	if err != nil {
		panic(err)
	}
	return domain.NewAgentExecution(executionID, projectID, tenantID, budget)
}

// NewTestDeployment creates a pending deployment for a project.
func NewTestDeployment(tenantID domain.TenantID, projectID domain.ProjectID) domain.Deployment {
	deploymentID, err := domain.NewDeploymentID(id.NewDeploymentID())
	if err != nil {
		panic(err)
	}
	return domain.NewDeployment(deploymentID, projectID, tenantID, "v1")
}

// NewTestSubscription creates a trialing subscription on the given plan.
func NewTestSubscription(tenantID domain.TenantID, plan string) domain.Subscription {
	subscriptionID, err := domain.NewSubscriptionID(id.NewSubscriptionID())
	if err != nil {
		panic(err)
	}
	return domain.NewSubscription(subscriptionID, tenantID, plan)
}

// NewTestTenantID generates a fresh tenant identifier.
func NewTestTenantID() domain.TenantID {
	tenantID, err := domain.NewTenantID(id.NewTenantID())
	if err != nil {
		panic(err)
	}
	return tenantID
}

// TenantMiddleware sets the tenant ID in context the way the auth
// middleware would. Use this in tests to simulate authenticated requests.
func TenantMiddleware(tenantID domain.TenantID) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(string(middleware.ContextKeyTenantID), tenantID)
		return c.Next()
	}
}
