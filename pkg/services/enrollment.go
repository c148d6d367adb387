package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/persistence"
)

// Enrollment tracks clients progressing through workflows. Executions carry
// an append-only list of completed block indices and an append-only step log.
type Enrollment struct {
	persistence persistence.Persistence
}

func NewEnrollment(persistence persistence.Persistence) *Enrollment {
	return &Enrollment{persistence: persistence}
}

// CreateExecutionParams carries the initial state of a new execution. Zero
// values produce a running execution with no completed blocks, which is what
// the engine uses; importers can seed a different status, completed-block
// list or error.
type CreateExecutionParams struct {
	OrganizationID   string
	WorkflowID       string
	ClientID         string
	Status           models.ExecutionStatus
	ActionsCompleted []int
	Error            string
	TriggerData      map[string]any
}

// Create starts an execution for the client on the workflow.
func (s *Enrollment) Create(ctx context.Context, params CreateExecutionParams) (*models.WorkflowExecution, error) {
	_, err := s.persistence.Workflows().GetByID(ctx, params.OrganizationID, params.WorkflowID)
	if err != nil {
		return nil, err
	}

	_, err = s.persistence.Clients().GetByID(ctx, params.OrganizationID, params.ClientID)
	if err != nil {
		return nil, err
	}

	status := params.Status
	if status == "" {
		status = models.ExecutionStatusRunning
	}

	completed := params.ActionsCompleted
	if completed == nil {
		completed = []int{}
	}

	now := time.Now().UTC()

	execution := &models.WorkflowExecution{
		ID:               uuid.New().String(),
		OrganizationID:   params.OrganizationID,
		WorkflowID:       params.WorkflowID,
		ClientID:         params.ClientID,
		Status:           status,
		ActionsCompleted: completed,
		TriggerData:      params.TriggerData,
		Error:            params.Error,
		StartedAt:        now,
	}

	if status.IsTerminal() {
		execution.CompletedAt = &now
	}

	err = s.persistence.Executions().Save(ctx, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to save execution: %w", err)
	}

	return execution, nil
}

func (s *Enrollment) Get(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	return s.persistence.Executions().GetByID(ctx, id)
}

func (s *Enrollment) ListByWorkflow(ctx context.Context, orgID, workflowID string) ([]*models.WorkflowExecution, error) {
	return s.persistence.Executions().ListByWorkflow(ctx, orgID, workflowID)
}

func (s *Enrollment) ListByClient(ctx context.Context, orgID, clientID string) ([]*models.WorkflowExecution, error) {
	return s.persistence.Executions().ListByClient(ctx, orgID, clientID)
}

// UpdateStatus transitions the execution. Terminal transitions stamp
// CompletedAt; an execution already in a terminal status cannot move again.
func (s *Enrollment) UpdateStatus(ctx context.Context, id string, status models.ExecutionStatus, cause string) (*models.WorkflowExecution, error) {
	execution, err := s.persistence.Executions().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if execution.Status.IsTerminal() {
		return nil, ErrExecutionFinished
	}

	execution.Status = status
	execution.Error = cause

	if status.IsTerminal() {
		now := time.Now().UTC()
		execution.CompletedAt = &now
	}

	err = s.persistence.Executions().Save(ctx, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to save execution: %w", err)
	}

	return execution, nil
}

// AddCompletedAction appends a completed block index. The list is append
// only; a repeated index is appended again rather than deduplicated.
func (s *Enrollment) AddCompletedAction(ctx context.Context, id string, index int) (*models.WorkflowExecution, error) {
	execution, err := s.persistence.Executions().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	execution.ActionsCompleted = append(execution.ActionsCompleted, index)

	err = s.persistence.Executions().Save(ctx, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to save execution: %w", err)
	}

	return execution, nil
}

// AppendLog writes one step attempt record for the execution.
func (s *Enrollment) AppendLog(ctx context.Context, log *models.ExecutionLog) (*models.ExecutionLog, error) {
	err := validate.Struct(log)
	if err != nil {
		return nil, NewValidationError("Enrollment.AppendLog", "INVALID_LOG", err.Error(), ErrInvalidRequest)
	}

	_, err = s.persistence.Executions().GetByID(ctx, log.ExecutionID)
	if err != nil {
		return nil, err
	}

	log.ID = uuid.New().String()
	log.LoggedAt = time.Now().UTC()

	err = s.persistence.ExecutionLogs().Append(ctx, log)
	if err != nil {
		return nil, fmt.Errorf("failed to append execution log: %w", err)
	}

	return log, nil
}

func (s *Enrollment) Logs(ctx context.Context, executionID string) ([]*models.ExecutionLog, error) {
	return s.persistence.ExecutionLogs().ListByExecution(ctx, executionID)
}
