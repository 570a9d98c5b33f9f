package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/appforge/appforge/internal/config"
	"github.com/appforge/appforge/internal/domain"
)

// ContextKey type for context keys
type ContextKey string

const (
	ContextKeyTenantID ContextKey = "tenantID"
	ContextKeySubject  ContextKey = "subject"
)

// TenantClaims are the JWT claims issued to tenant users. The tenant_id
// claim is what every downstream query is scoped by.
type TenantClaims struct {
	TenantID string `json:"tenant_id"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates tenant bearer tokens
type AuthMiddleware struct {
	secret []byte
	issuer string
	expiry time.Duration
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(cfg config.JWTConfig) *AuthMiddleware {
	return &AuthMiddleware{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		expiry: cfg.Expiry,
	}
}

// RequireTenant validates the bearer token and stores the tenant ID in the
// request context
func (m *AuthMiddleware) RequireTenant() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Authorization header required",
			})
		}

		claims, err := m.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Invalid or expired token",
			})
		}

		tenantID, err := domain.NewTenantID(claims.TenantID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized",
				"message": "Invalid tenant ID in token",
			})
		}

		c.Locals(string(ContextKeyTenantID), tenantID)
		c.Locals(string(ContextKeySubject), claims.Subject)

		return c.Next()
	}
}

// ValidateToken parses and verifies a tenant token
func (m *AuthMiddleware) ValidateToken(tokenString string) (*TenantClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TenantClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*TenantClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.TenantID == "" {
		return nil, fmt.Errorf("token missing tenant_id claim")
	}

	return claims, nil
}

// IssueToken signs a token for a tenant user. Used by provisioning tooling
// and tests; there is no interactive login flow in this service.
func (m *AuthMiddleware) IssueToken(tenantID domain.TenantID, subject string) (string, error) {
	now := time.Now()
	claims := TenantClaims{
		TenantID: tenantID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// extractBearerToken extracts the token from the Authorization header
func extractBearerToken(c *fiber.Ctx) string {
	auth := c.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// GetTenantID gets the tenant ID from context
func GetTenantID(c *fiber.Ctx) (domain.TenantID, bool) {
	tenantID, ok := c.Locals(string(ContextKeyTenantID)).(domain.TenantID)
	return tenantID, ok
}

// GetSubject gets the token subject from context
func GetSubject(c *fiber.Ctx) (string, bool) {
	subject, ok := c.Locals(string(ContextKeySubject)).(string)
	return subject, ok
}
