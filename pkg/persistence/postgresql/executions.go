package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/persistence"
)

const executionColumns = `id, organization_id, workflow_id, client_id, status,
	actions_completed, trigger_data, error_message, started_at, completed_at`

// ExecutionRepository handles workflow execution rows.
type ExecutionRepository struct {
	db *sql.DB
}

func (r *ExecutionRepository) Save(ctx context.Context, execution *models.WorkflowExecution) error {
	actionsJSON, err := json.Marshal(execution.ActionsCompleted)
	if err != nil {
		return fmt.Errorf("failed to marshal completed actions: %w", err)
	}

	triggerJSON, err := json.Marshal(execution.TriggerData)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger data: %w", err)
	}

	query := `
		INSERT INTO workflow_executions (id, organization_id, workflow_id, client_id, status,
			actions_completed, trigger_data, error_message, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			actions_completed = EXCLUDED.actions_completed,
			error_message = EXCLUDED.error_message,
			completed_at = EXCLUDED.completed_at
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID, execution.OrganizationID, execution.WorkflowID, execution.ClientID,
		execution.Status, actionsJSON, triggerJSON, nullString(execution.Error),
		execution.StartedAt, execution.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to save execution: %w", err)
	}

	return nil
}

func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	query := `SELECT ` + executionColumns + ` FROM workflow_executions WHERE id = $1`

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrExecutionNotFound
		}

		return nil, err
	}

	return execution, nil
}

func (r *ExecutionRepository) ListByWorkflow(ctx context.Context, orgID, workflowID string) ([]*models.WorkflowExecution, error) {
	query := `SELECT ` + executionColumns + `
		FROM workflow_executions WHERE organization_id = $1 AND workflow_id = $2 ORDER BY started_at DESC`

	return r.queryExecutions(ctx, query, orgID, workflowID)
}

func (r *ExecutionRepository) ListByClient(ctx context.Context, orgID, clientID string) ([]*models.WorkflowExecution, error) {
	query := `SELECT ` + executionColumns + `
		FROM workflow_executions WHERE organization_id = $1 AND client_id = $2 ORDER BY started_at DESC`

	return r.queryExecutions(ctx, query, orgID, clientID)
}

func (r *ExecutionRepository) queryExecutions(ctx context.Context, query string, args ...any) ([]*models.WorkflowExecution, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	var executions []*models.WorkflowExecution

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}

		executions = append(executions, execution)
	}

	return executions, rows.Err()
}

func scanExecution(scanner interface{ Scan(dest ...any) error }) (*models.WorkflowExecution, error) {
	var (
		execution    models.WorkflowExecution
		actionsJSON  []byte
		triggerJSON  []byte
		errorMessage sql.NullString
		completedAt  sql.NullTime
	)

	err := scanner.Scan(&execution.ID, &execution.OrganizationID, &execution.WorkflowID,
		&execution.ClientID, &execution.Status, &actionsJSON, &triggerJSON, &errorMessage,
		&execution.StartedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	execution.Error = errorMessage.String

	if completedAt.Valid {
		execution.CompletedAt = &completedAt.Time
	}

	err = json.Unmarshal(actionsJSON, &execution.ActionsCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal completed actions: %w", err)
	}

	if len(triggerJSON) > 0 {
		err = json.Unmarshal(triggerJSON, &execution.TriggerData)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal trigger data: %w", err)
		}
	}

	return &execution, nil
}

// ExecutionLogRepository handles append-only execution log rows.
type ExecutionLogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *ExecutionLogRepository) Append(ctx context.Context, log *models.ExecutionLog) error {
	query := `
		INSERT INTO execution_logs (id, workflow_id, execution_id, client_id, step_id, action, status, message, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		log.ID, log.WorkflowID, log.ExecutionID, log.ClientID,
		log.StepID, log.Action, log.Status, nullString(log.Message), log.LoggedAt)
	if err != nil {
		return fmt.Errorf("failed to append execution log: %w", err)
	}

	return nil
}

func (r *ExecutionLogRepository) ListByExecution(ctx context.Context, executionID string) ([]*models.ExecutionLog, error) {
	query := `
		SELECT id, workflow_id, execution_id, client_id, step_id, action, status, message, logged_at
		FROM execution_logs WHERE execution_id = $1 ORDER BY logged_at
	`

	rows, err := r.db.QueryContext(ctx, query, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query execution logs: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	var logs []*models.ExecutionLog

	for rows.Next() {
		var (
			log     models.ExecutionLog
			message sql.NullString
		)

		err = rows.Scan(&log.ID, &log.WorkflowID, &log.ExecutionID, &log.ClientID,
			&log.StepID, &log.Action, &log.Status, &message, &log.LoggedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution log: %w", err)
		}

		log.Message = message.String
		logs = append(logs, &log)
	}

	return logs, rows.Err()
}
