package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/persistence"
)

const workflowColumns = `id, organization_id, name, trigger_type, trigger_config,
	enabled, blocks, connections, directory_id, created_at, updated_at`

// WorkflowRepository handles workflow rows. Blocks, connections and trigger
// config are stored as JSONB.
type WorkflowRepository struct {
	db *sql.DB
}

func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	triggerConfigJSON, err := json.Marshal(workflow.TriggerConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger config: %w", err)
	}

	blocksJSON, err := json.Marshal(workflow.Blocks)
	if err != nil {
		return fmt.Errorf("failed to marshal blocks: %w", err)
	}

	connectionsJSON, err := json.Marshal(workflow.Connections)
	if err != nil {
		return fmt.Errorf("failed to marshal connections: %w", err)
	}

	query := `
		INSERT INTO workflows (id, organization_id, name, trigger_type, trigger_config,
			enabled, blocks, connections, directory_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			trigger_type = EXCLUDED.trigger_type,
			trigger_config = EXCLUDED.trigger_config,
			enabled = EXCLUDED.enabled,
			blocks = EXCLUDED.blocks,
			connections = EXCLUDED.connections,
			directory_id = EXCLUDED.directory_id,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID, workflow.OrganizationID, workflow.Name, workflow.Trigger, triggerConfigJSON,
		workflow.Enabled, blocksJSON, connectionsJSON, workflow.DirectoryID,
		workflow.CreatedAt, workflow.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}

	return nil
}

func (r *WorkflowRepository) GetByID(ctx context.Context, orgID, id string) (*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE id = $1 AND organization_id = $2`

	workflow, err := scanWorkflow(r.db.QueryRowContext(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrWorkflowNotFound
		}

		return nil, err
	}

	return workflow, nil
}

func (r *WorkflowRepository) ListByOrganization(ctx context.Context, orgID string) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE organization_id = $1 ORDER BY created_at`

	return r.queryWorkflows(ctx, query, orgID)
}

func (r *WorkflowRepository) ListByTrigger(ctx context.Context, orgID string, trigger models.TriggerType) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + `
		FROM workflows WHERE organization_id = $1 AND trigger_type = $2 AND enabled ORDER BY created_at`

	return r.queryWorkflows(ctx, query, orgID, trigger)
}

func (r *WorkflowRepository) ListByDirectory(ctx context.Context, orgID, directoryID string) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + `
		FROM workflows WHERE organization_id = $1 AND directory_id = $2 ORDER BY created_at`

	return r.queryWorkflows(ctx, query, orgID, directoryID)
}

func (r *WorkflowRepository) Delete(ctx context.Context, orgID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM workflows WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	return checkAffected(result, persistence.ErrWorkflowNotFound)
}

func (r *WorkflowRepository) queryWorkflows(ctx context.Context, query string, args ...any) ([]*models.Workflow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}
	defer rows.Close()

	var workflows []*models.Workflow

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	return workflows, rows.Err()
}

func scanWorkflow(scanner interface{ Scan(dest ...any) error }) (*models.Workflow, error) {
	var (
		workflow                                       models.Workflow
		triggerConfigJSON, blocksJSON, connectionsJSON []byte
		directoryID                                    sql.NullString
	)

	err := scanner.Scan(&workflow.ID, &workflow.OrganizationID, &workflow.Name,
		&workflow.Trigger, &triggerConfigJSON, &workflow.Enabled, &blocksJSON,
		&connectionsJSON, &directoryID, &workflow.CreatedAt, &workflow.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if directoryID.Valid {
		workflow.DirectoryID = &directoryID.String
	}

	err = json.Unmarshal(triggerConfigJSON, &workflow.TriggerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal trigger config: %w", err)
	}

	err = json.Unmarshal(blocksJSON, &workflow.Blocks)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal blocks: %w", err)
	}

	err = json.Unmarshal(connectionsJSON, &workflow.Connections)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal connections: %w", err)
	}

	return &workflow, nil
}
