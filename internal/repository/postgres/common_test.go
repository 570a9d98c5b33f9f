package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/appforge/appforge/internal/config"
	"github.com/appforge/appforge/internal/pkg/database"
)

// getTestDB returns a database connection for integration tests. Tests are
// skipped when POSTGRES_TEST_HOST is not set.
func getTestDB(t *testing.T) *database.PostgresDB {
	if os.Getenv("POSTGRES_TEST_HOST") == "" {
		t.Skip("Skipping integration test: POSTGRES_TEST_HOST not set")
		return nil
	}

	cfg := config.PostgresConfig{
		Host:     os.Getenv("POSTGRES_TEST_HOST"),
		Port:     5432,
		User:     os.Getenv("POSTGRES_TEST_USER"),
		Password: os.Getenv("POSTGRES_TEST_PASS"),
		Database: os.Getenv("POSTGRES_TEST_DB"),
		SSLMode:  "disable",
		MaxConns: 5,
		MinConns: 1,
	}

	if cfg.Database == "" {
		cfg.Database = "test_appforge"
	}
	if cfg.User == "" {
		cfg.User = "postgres"
	}

	db, err := database.NewPostgres(context.Background(), cfg)
	if err != nil {
		t.Skipf("Skipping integration test: failed to connect to PostgreSQL: %v", err)
		return nil
	}

	return db
}

// cleanupTenant removes all rows owned by a test tenant
func cleanupTenant(t *testing.T, db *database.PostgresDB, tenantID string) {
	t.Helper()
	ctx := context.Background()
	for _, table := range []string{"agent_executions", "deployments", "subscriptions", "projects"} {
		_, _ = db.Pool.Exec(ctx, "DELETE FROM "+table+" WHERE tenant_id = $1", tenantID)
	}
}
