package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/appforge/appforge/internal/domain"
	"github.com/appforge/appforge/internal/pkg/database"
	apperrors "github.com/appforge/appforge/internal/pkg/errors"
	"github.com/appforge/appforge/internal/pkg/pagination"
)

// ProjectRepository handles project data operations in PostgreSQL
type ProjectRepository struct {
	db *database.PostgresDB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *database.PostgresDB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts a new project
func (r *ProjectRepository) Create(ctx context.Context, project domain.Project) error {
	query := `
		INSERT INTO projects (id, tenant_id, name, description, template_id, status, repo_url, deployed_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		project.ID.String(),
		project.TenantID.String(),
		project.Name.String(),
		project.Description.String(),
		project.TemplateID,
		string(project.Status),
		project.RepoURL,
		project.DeployedURL,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// Update persists a new project snapshot
func (r *ProjectRepository) Update(ctx context.Context, project domain.Project) error {
	query := `
		UPDATE projects
		SET name = $3, description = $4, status = $5, repo_url = $6, deployed_url = $7, updated_at = $8
		WHERE tenant_id = $1 AND id = $2
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		project.TenantID.String(),
		project.ID.String(),
		project.Name.String(),
		project.Description.String(),
		string(project.Status),
		project.RepoURL,
		project.DeployedURL,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("project")
	}

	return nil
}

// GetByID retrieves a project by ID within the tenant scope
func (r *ProjectRepository) GetByID(ctx context.Context, tenantID domain.TenantID, id domain.ProjectID) (domain.Project, error) {
	query := `
		SELECT id, tenant_id, name, description, template_id, status, repo_url, deployed_url, created_at, updated_at
		FROM projects
		WHERE tenant_id = $1 AND id = $2
	`

	project, err := scanProject(r.db.Pool.QueryRow(ctx, query, tenantID.String(), id.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Project{}, apperrors.NotFound("project")
		}
		return domain.Project{}, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

// ListByTenantID retrieves projects for a tenant, newest first, using
// limit+1 keyset pagination.
func (r *ProjectRepository) ListByTenantID(ctx context.Context, tenantID domain.TenantID, cursor *pagination.Cursor, limit int) ([]domain.Project, error) {
	query := `
		SELECT id, tenant_id, name, description, template_id, status, repo_url, deployed_url, created_at, updated_at
		FROM projects
		WHERE tenant_id = $1
	`
	args := []any{tenantID.String()}

	if cursor != nil {
		query += ` AND (created_at, id) < ($2, $3)`
		args = append(args, cursor.Timestamp, cursor.ID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT %d`, limit+1)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	return projects, rows.Err()
}

// CountByTenantID returns the number of projects a tenant holds
func (r *ProjectRepository) CountByTenantID(ctx context.Context, tenantID domain.TenantID) (int, error) {
	var count int
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM projects WHERE tenant_id = $1`, tenantID.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return count, nil
}

// Delete removes a project
func (r *ProjectRepository) Delete(ctx context.Context, tenantID domain.TenantID, id domain.ProjectID) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM projects WHERE tenant_id = $1 AND id = $2`, tenantID.String(), id.String())
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("project")
	}
	return nil
}

func scanProject(row pgx.Row) (domain.Project, error) {
	var p domain.Project
	var id, tenantID, name, description, status string

	err := row.Scan(
		&id,
		&tenantID,
		&name,
		&description,
		&p.TemplateID,
		&status,
		&p.RepoURL,
		&p.DeployedURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return domain.Project{}, err
	}

	p.ID = domain.ProjectID(id)
	p.TenantID = domain.TenantID(tenantID)
	p.Name = domain.ProjectName(name)
	p.Description = domain.Description(description)
	p.Status = domain.ProjectStatus(status)
	return domain.ReconstituteProject(p), nil
}
