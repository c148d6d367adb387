package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/persistence/file"
)

func TestWorkflow_Create(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	publisher := &capturePublisher{}
	s := NewWorkflow(p, testRegistry(t, p, publisher))

	workflow, err := s.Create(context.Background(), &models.Workflow{
		OrganizationID: "org-1",
		Name:           "Welcome series",
		Trigger:        models.TriggerClientCreated,
		Enabled:        true,
		Blocks: []*models.WorkflowBlock{
			{ID: "b1", Type: "send_sms", Config: map[string]any{"message": "Welcome!"}},
			{ID: "b2", Type: "wait", Config: map[string]any{"duration": "24h"}},
		},
		Connections: []*models.Connection{
			{ID: "c1", SourceID: "b1", TargetID: "b2"},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, workflow.ID)
	assert.False(t, workflow.CreatedAt.IsZero())
}

func TestWorkflow_Create_UnknownTrigger(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	s := NewWorkflow(p, testRegistry(t, p, &capturePublisher{}))

	_, err := s.Create(context.Background(), &models.Workflow{
		OrganizationID: "org-1",
		Name:           "Bad trigger",
		Trigger:        "solar_eclipse",
	})
	assert.ErrorIs(t, err, ErrUnknownTrigger)
}

func TestWorkflow_Create_UnknownStepType(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	s := NewWorkflow(p, testRegistry(t, p, &capturePublisher{}))

	_, err := s.Create(context.Background(), &models.Workflow{
		OrganizationID: "org-1",
		Name:           "Bad block",
		Trigger:        models.TriggerClientCreated,
		Blocks: []*models.WorkflowBlock{
			{ID: "b1", Type: "teleport", Config: map[string]any{}},
		},
	})
	assert.ErrorIs(t, err, ErrUnknownStepType)
}

func TestWorkflow_Create_InvalidBlockConfig(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	s := NewWorkflow(p, testRegistry(t, p, &capturePublisher{}))

	_, err := s.Create(context.Background(), &models.Workflow{
		OrganizationID: "org-1",
		Name:           "Bad config",
		Trigger:        models.TriggerClientCreated,
		Blocks: []*models.WorkflowBlock{
			{ID: "b1", Type: "wait", Config: map[string]any{}},
		},
	})
	assert.Error(t, err)
}

func TestWorkflow_Create_ScheduleTrigger(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	s := NewWorkflow(p, testRegistry(t, p, &capturePublisher{}))

	_, err := s.Create(context.Background(), &models.Workflow{
		OrganizationID: "org-1",
		Name:           "Monthly checkup",
		Trigger:        models.TriggerSchedule,
		TriggerConfig:  map[string]any{"cron": "not a cron"},
	})
	require.ErrorIs(t, err, ErrInvalidRequest)

	workflow, err := s.Create(context.Background(), &models.Workflow{
		OrganizationID: "org-1",
		Name:           "Monthly checkup",
		Trigger:        models.TriggerSchedule,
		TriggerConfig:  map[string]any{"cron": "0 9 1 * *"},
		Enabled:        true,
	})
	require.NoError(t, err)

	// An enabled schedule workflow gets a recurring run_workflow action.
	actions, err := p.ScheduledActions().ListByOrganization(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionRunWorkflow, actions[0].Action)
	assert.Equal(t, workflow.ID, actions[0].Args["workflow_id"])
}

func TestWorkflow_Update_DisablingRemovesScheduleAction(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	s := NewWorkflow(p, testRegistry(t, p, &capturePublisher{}))

	workflow, err := s.Create(context.Background(), &models.Workflow{
		OrganizationID: "org-1",
		Name:           "Monthly checkup",
		Trigger:        models.TriggerSchedule,
		TriggerConfig:  map[string]any{"cron": "0 9 1 * *"},
		Enabled:        true,
	})
	require.NoError(t, err)

	workflow.Enabled = false

	_, err = s.Update(context.Background(), workflow)
	require.NoError(t, err)

	actions, err := p.ScheduledActions().ListByOrganization(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestWorkflow_Delete_RemovesScheduleAction(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	s := NewWorkflow(p, testRegistry(t, p, &capturePublisher{}))

	workflow, err := s.Create(context.Background(), &models.Workflow{
		OrganizationID: "org-1",
		Name:           "Monthly checkup",
		Trigger:        models.TriggerSchedule,
		TriggerConfig:  map[string]any{"cron": "0 9 1 * *"},
		Enabled:        true,
	})
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), "org-1", workflow.ID))

	actions, err := p.ScheduledActions().ListByOrganization(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Empty(t, actions)
}
