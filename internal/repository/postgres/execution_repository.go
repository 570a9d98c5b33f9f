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

// ExecutionRepository handles agent execution data operations in PostgreSQL.
// The step ledger is stored as a JSONB column so its fixed order survives
// round trips untouched.
type ExecutionRepository struct {
	db *database.PostgresDB
}

// NewExecutionRepository creates a new execution repository
func NewExecutionRepository(db *database.PostgresDB) *ExecutionRepository {
	return &ExecutionRepository{db: db}
}

// Create inserts a new execution
func (r *ExecutionRepository) Create(ctx context.Context, execution domain.AgentExecution) error {
	steps, err := json.Marshal(execution.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal step ledger: %w", err)
	}

	query := `
		INSERT INTO agent_executions (id, project_id, tenant_id, status, current_step, tokens_used, tokens_budget, steps, started_at, completed_at, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.db.Pool.Exec(ctx, query,
		execution.ID.String(),
		execution.ProjectID.String(),
		execution.TenantID.String(),
		string(execution.Status),
		string(execution.CurrentStep),
		execution.TokensUsed,
		execution.TokensBudget,
		steps,
		execution.StartedAt,
		execution.CompletedAt,
		execution.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to create execution: %w", err)
	}

	return nil
}

// Update persists a new execution snapshot
func (r *ExecutionRepository) Update(ctx context.Context, execution domain.AgentExecution) error {
	steps, err := json.Marshal(execution.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal step ledger: %w", err)
	}

	query := `
		UPDATE agent_executions
		SET status = $3, current_step = $4, tokens_used = $5, steps = $6, completed_at = $7, error_message = $8
		WHERE tenant_id = $1 AND id = $2
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		execution.TenantID.String(),
		execution.ID.String(),
		string(execution.Status),
		string(execution.CurrentStep),
		execution.TokensUsed,
		steps,
		execution.CompletedAt,
		execution.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to update execution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("execution")
	}

	return nil
}

// GetByID retrieves an execution by ID within the tenant scope
func (r *ExecutionRepository) GetByID(ctx context.Context, tenantID domain.TenantID, id domain.ExecutionID) (domain.AgentExecution, error) {
	query := executionSelect + ` WHERE tenant_id = $1 AND id = $2`

	execution, err := scanExecution(r.db.Pool.QueryRow(ctx, query, tenantID.String(), id.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AgentExecution{}, apperrors.NotFound("execution")
		}
		return domain.AgentExecution{}, fmt.Errorf("failed to get execution: %w", err)
	}

	return execution, nil
}

// ListByProjectID retrieves executions for a project, newest first
func (r *ExecutionRepository) ListByProjectID(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID, cursor *pagination.Cursor, limit int) ([]domain.AgentExecution, error) {
	query := executionSelect + ` WHERE tenant_id = $1 AND project_id = $2`
	args := []any{tenantID.String(), projectID.String()}

	if cursor != nil {
		query += ` AND (started_at, id) < ($3, $4)`
		args = append(args, cursor.Timestamp, cursor.ID)
	}
	query += fmt.Sprintf(` ORDER BY started_at DESC, id DESC LIMIT %d`, limit+1)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	var executions []domain.AgentExecution
	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		executions = append(executions, execution)
	}

	return executions, rows.Err()
}

// FindRunningByProjectID returns the project's non-terminal execution, or
// NotFound when there is none
func (r *ExecutionRepository) FindRunningByProjectID(ctx context.Context, tenantID domain.TenantID, projectID domain.ProjectID) (domain.AgentExecution, error) {
	query := executionSelect + `
		WHERE tenant_id = $1 AND project_id = $2 AND status IN ($3, $4)
		ORDER BY started_at DESC
		LIMIT 1
	`

	execution, err := scanExecution(r.db.Pool.QueryRow(ctx, query,
		tenantID.String(),
		projectID.String(),
		string(domain.ExecutionStatusRunning),
		string(domain.ExecutionStatusWaitingForHuman),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AgentExecution{}, apperrors.NotFound("execution")
		}
		return domain.AgentExecution{}, fmt.Errorf("failed to find running execution: %w", err)
	}

	return execution, nil
}

const executionSelect = `
	SELECT id, project_id, tenant_id, status, current_step, tokens_used, tokens_budget, steps, started_at, completed_at, error_message
	FROM agent_executions`

func scanExecution(row pgx.Row) (domain.AgentExecution, error) {
	var e domain.AgentExecution
	var id, projectID, tenantID, status, currentStep string
	var steps []byte

	err := row.Scan(
		&id,
		&projectID,
		&tenantID,
		&status,
		&currentStep,
		&e.TokensUsed,
		&e.TokensBudget,
		&steps,
		&e.StartedAt,
		&e.CompletedAt,
		&e.ErrorMessage,
	)
	if err != nil {
		return domain.AgentExecution{}, err
	}

	if err := json.Unmarshal(steps, &e.Steps); err != nil {
		return domain.AgentExecution{}, fmt.Errorf("failed to unmarshal step ledger: %w", err)
	}

	e.ID = domain.ExecutionID(id)
	e.ProjectID = domain.ProjectID(projectID)
	e.TenantID = domain.TenantID(tenantID)
	e.Status = domain.ExecutionStatus(status)
	e.CurrentStep = domain.PipelineStep(currentStep)
	return domain.ReconstituteExecution(e), nil
}
