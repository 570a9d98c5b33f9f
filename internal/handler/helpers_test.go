package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/appforge/appforge/internal/domain"
	"github.com/appforge/appforge/internal/testutil"
)

const testTenant = domain.TenantID("ten_handler00000000000000")

// withTenant injects a tenant into the request context the way the auth
// middleware would after validating a token.
func withTenant(tenantID domain.TenantID) fiber.Handler {
	return testutil.TenantMiddleware(tenantID)
}
