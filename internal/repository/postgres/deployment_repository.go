package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/appforge/appforge/internal/domain"
	"github.com/appforge/appforge/internal/pkg/database"
	apperrors "github.com/appforge/appforge/internal/pkg/errors"
	"github.com/appforge/appforge/internal/pkg/pagination"
)

// DeploymentRepository handles deployment data operations in PostgreSQL.
// The append-only log is stored as a JSONB array.
type DeploymentRepository struct {
	db *database.PostgresDB
}

// NewDeploymentRepository creates a new deployment repository
func NewDeploymentRepository(db *database.PostgresDB) *DeploymentRepository {
	return &DeploymentRepository{db: db}
}

// Create inserts a new deployment
func (r *DeploymentRepository) Create(ctx context.Context, deployment domain.Deployment) error {
	logs, err := marshalLogs(deployment.Logs)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO deployments (id, project_id, tenant_id, version, status, logs, deployed_url, error_message, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.db.Pool.Exec(ctx, query,
		deployment.ID.String(),
		deployment.ProjectID.String(),
		deployment.TenantID.String(),
		deployment.Version,
		string(deployment.Status),
		logs,
		deployment.DeployedURL,
		deployment.ErrorMessage,
		deployment.StartedAt,
		deployment.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create deployment: %w", err)
	}

	return nil
}

// Update persists a new deployment snapshot
func (r *DeploymentRepository) Update(ctx context.Context, deployment domain.Deployment) error {
	logs, err := marshalLogs(deployment.Logs)
	if err != nil {
		return err
	}

	query := `
		UPDATE deployments
		SET status = $3, logs = $4, deployed_url = $5, error_message = $6, completed_at = $7
		WHERE tenant_id = $1 AND id = $2
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		deployment.TenantID.String(),
		deployment.ID.String(),
		string(deployment.Status),
		logs,
		deployment.DeployedURL,
		deployment.ErrorMessage,
		deployment.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update deployment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("deployment")
	}

	return nil
}

// GetByID retrieves a deployment by ID within the tenant scope
func (r *DeploymentRepository) GetByID(ctx context.Context, tenantID domain.TenantID, id domain.DeploymentID) (domain.Deployment, error) {
	query := deploymentSelect + ` WHERE tenant_id = $1 AND id = $2`

	deployment, err := scanDeployment(r.db.Pool.QueryRow(ctx, query, tenantID.String(), id.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Deployment{}, apperrors.NotFound("deployment")
		}
		return domain.Deployment{}, fmt.Errorf("failed to get deployment: %w", err)
	}

	return deployment, nil
}

// ListByProjectID retrieves deployments for a project, newest first
func (r *DeploymentRepository) ListByProjectID(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID, cursor *pagination.Cursor, limit int) ([]domain.Deployment, error) {
	query := deploymentSelect + ` WHERE tenant_id = $1 AND project_id = $2`
	args := []any{tenantID.String(), projectID.String()}

	if cursor != nil {
		query += ` AND (started_at, id) < ($3, $4)`
		args = append(args, cursor.Timestamp, cursor.ID)
	}
	query += fmt.Sprintf(` ORDER BY started_at DESC, id DESC LIMIT %d`, limit+1)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}
	defer rows.Close()

	var deployments []domain.Deployment
	for rows.Next() {
		deployment, err := scanDeployment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deployment: %w", err)
		}
		deployments = append(deployments, deployment)
	}

	return deployments, rows.Err()
}

// FindActiveByProjectID returns the project's in-progress deployment, or
// NotFound when there is none
func (r *DeploymentRepository) FindActiveByProjectID(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID) (domain.Deployment, error) {
	query := deploymentSelect + `
		WHERE tenant_id = $1 AND project_id = $2 AND status IN ($3, $4, $5, $6, $7)
		ORDER BY started_at DESC
		LIMIT 1
	`

	deployment, err := scanDeployment(r.db.Pool.QueryRow(ctx, query,
		tenantID.String(),
		projectID.String(),
		string(domain.DeploymentStatusPending),
		string(domain.DeploymentStatusBootstrapping),
		string(domain.DeploymentStatusDeploying),
		string(domain.DeploymentStatusVerifying),
		string(domain.DeploymentStatusRollingBack),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Deployment{}, apperrors.NotFound("deployment")
		}
		return domain.Deployment{}, fmt.Errorf("failed to find active deployment: %w", err)
	}

	return deployment, nil
}

const deploymentSelect = `
	SELECT id, project_id, tenant_id, version, status, logs, deployed_url, error_message, started_at, completed_at
	FROM deployments`

func marshalLogs(logs []string) ([]byte, error) {
	if logs == nil {
		logs = []string{}
	}
	data, err := json.Marshal(logs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deployment logs: %w", err)
	}
	return data, nil
}

func scanDeployment(row pgx.Row) (domain.Deployment, error) {
	var d domain.Deployment
	var id, projectID, tenantID, status string
	var logs []byte

	err := row.Scan(
		&id,
		&projectID,
		&tenantID,
		&d.Version,
		&status,
		&logs,
		&d.DeployedURL,
		&d.ErrorMessage,
		&d.StartedAt,
		&d.CompletedAt,
	)
	if err != nil {
		return domain.Deployment{}, err
	}

	if err := json.Unmarshal(logs, &d.Logs); err != nil {
		return domain.Deployment{}, fmt.Errorf("failed to unmarshal deployment logs: %w", err)
	}

	d.ID = domain.DeploymentID(id)
	d.ProjectID = domain.ProjectID(projectID)
	d.TenantID = domain.TenantID(tenantID)
	d.Status = domain.DeploymentStatus(status)
	return domain.ReconstituteDeployment(d), nil
}
