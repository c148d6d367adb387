package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/persistence"
	"github.com/glowdesk/glowdesk/pkg/registry"
)

// Workflow handles workflow definition management. Saving a workflow
// validates its trigger configuration and every block against the step
// registry; schedule-triggered workflows get a recurring run_workflow action
// the dispatcher picks up.
type Workflow struct {
	persistence persistence.Persistence
	registry    *registry.Registry
}

func NewWorkflow(persistence persistence.Persistence, registry *registry.Registry) *Workflow {
	return &Workflow{persistence: persistence, registry: registry}
}

func (s *Workflow) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	err := s.validateWorkflow(workflow)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	workflow.ID = uuid.New().String()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	if workflow.DirectoryID != nil {
		_, err = s.persistence.Directories().GetByID(ctx, workflow.OrganizationID, *workflow.DirectoryID)
		if err != nil {
			if persistence.IsNotFound(err) {
				return nil, ErrParentNotFound
			}

			return nil, err
		}
	}

	err = s.persistence.Workflows().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	err = s.syncScheduleAction(ctx, workflow)
	if err != nil {
		return nil, err
	}

	return workflow, nil
}

func (s *Workflow) Get(ctx context.Context, orgID, id string) (*models.Workflow, error) {
	return s.persistence.Workflows().GetByID(ctx, orgID, id)
}

func (s *Workflow) List(ctx context.Context, orgID string) ([]*models.Workflow, error) {
	return s.persistence.Workflows().ListByOrganization(ctx, orgID)
}

func (s *Workflow) ListByDirectory(ctx context.Context, orgID, directoryID string) ([]*models.Workflow, error) {
	return s.persistence.Workflows().ListByDirectory(ctx, orgID, directoryID)
}

func (s *Workflow) Update(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	existing, err := s.persistence.Workflows().GetByID(ctx, workflow.OrganizationID, workflow.ID)
	if err != nil {
		return nil, err
	}

	err = s.validateWorkflow(workflow)
	if err != nil {
		return nil, err
	}

	if workflow.DirectoryID != nil {
		_, err = s.persistence.Directories().GetByID(ctx, workflow.OrganizationID, *workflow.DirectoryID)
		if err != nil {
			if persistence.IsNotFound(err) {
				return nil, ErrParentNotFound
			}

			return nil, err
		}
	}

	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now().UTC()

	err = s.persistence.Workflows().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to save workflow: %w", err)
	}

	err = s.syncScheduleAction(ctx, workflow)
	if err != nil {
		return nil, err
	}

	return workflow, nil
}

func (s *Workflow) Delete(ctx context.Context, orgID, id string) error {
	err := s.persistence.Workflows().Delete(ctx, orgID, id)
	if err != nil {
		return err
	}

	action, err := s.findScheduleAction(ctx, orgID, id)
	if err != nil {
		return err
	}

	if action != nil {
		return s.persistence.ScheduledActions().Delete(ctx, action.ID)
	}

	return nil
}

func (s *Workflow) validateWorkflow(workflow *models.Workflow) error {
	err := validate.Struct(workflow)
	if err != nil {
		return NewValidationError("Workflow.validate", "INVALID_WORKFLOW", err.Error(), ErrInvalidRequest)
	}

	switch workflow.Trigger {
	case models.TriggerClientCreated,
		models.TriggerAppointmentBooked,
		models.TriggerAppointmentCompleted,
		models.TriggerMessageReceived,
		models.TriggerTagAdded,
		models.TriggerSchedule:
	default:
		return NewValidationError("Workflow.validate", "UNKNOWN_TRIGGER", string(workflow.Trigger), ErrUnknownTrigger)
	}

	err = workflow.ValidateTrigger()
	if err != nil {
		return NewValidationError("Workflow.validate", "INVALID_TRIGGER_CONFIG", err.Error(), ErrInvalidRequest)
	}

	for _, block := range workflow.Blocks {
		_, err = s.registry.CreateStep(block.Type, block.Config)
		if err != nil {
			return NewValidationError("Workflow.validate", "INVALID_BLOCK", fmt.Sprintf("block %s: %v", block.ID, err), ErrUnknownStepType)
		}
	}

	return nil
}

// syncScheduleAction keeps exactly one recurring run_workflow action per
// enabled schedule-triggered workflow and removes it otherwise.
func (s *Workflow) syncScheduleAction(ctx context.Context, workflow *models.Workflow) error {
	action, err := s.findScheduleAction(ctx, workflow.OrganizationID, workflow.ID)
	if err != nil {
		return err
	}

	wantsAction := workflow.Trigger == models.TriggerSchedule && workflow.Enabled

	if !wantsAction {
		if action != nil {
			return s.persistence.ScheduledActions().Delete(ctx, action.ID)
		}

		return nil
	}

	next, err := workflow.NextScheduledRun(time.Now().UTC())
	if err != nil {
		return err
	}

	if action == nil {
		action = models.NewScheduledAction(
			workflow.OrganizationID,
			models.ActionRunWorkflow,
			map[string]any{"workflow_id": workflow.ID},
			next,
			1,
		)
		action.ID = uuid.New().String()
	} else {
		action.Rearm(next)
	}

	err = s.persistence.ScheduledActions().Save(ctx, action)
	if err != nil {
		return fmt.Errorf("failed to save schedule action: %w", err)
	}

	return nil
}

func (s *Workflow) findScheduleAction(ctx context.Context, orgID, workflowID string) (*models.ScheduledAction, error) {
	actions, err := s.persistence.ScheduledActions().ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	for _, a := range actions {
		if a.Action != models.ActionRunWorkflow {
			continue
		}

		id, _ := a.Args["workflow_id"].(string)
		if id == workflowID {
			return a, nil
		}
	}

	return nil, nil
}
