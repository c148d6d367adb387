package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/persistence"
	"github.com/glowdesk/glowdesk/pkg/persistence/file"
)

func enrollmentFixture(t *testing.T) (*file.Persistence, *Enrollment, *models.WorkflowExecution) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	seedTestClient(t, p, "client-1")

	workflow := &models.Workflow{
		ID:             "wf-1",
		OrganizationID: "org-1",
		Name:           "Welcome series",
		Trigger:        models.TriggerClientCreated,
	}
	require.NoError(t, p.Workflows().Save(context.Background(), workflow))

	s := NewEnrollment(p)

	execution, err := s.Create(context.Background(), CreateExecutionParams{
		OrganizationID: "org-1",
		WorkflowID:     "wf-1",
		ClientID:       "client-1",
	})
	require.NoError(t, err)

	return p, s, execution
}

func TestEnrollment_Create(t *testing.T) {
	_, _, execution := enrollmentFixture(t)

	assert.Equal(t, models.ExecutionStatusRunning, execution.Status)
	assert.NotNil(t, execution.ActionsCompleted)
	assert.Empty(t, execution.ActionsCompleted)
	assert.False(t, execution.StartedAt.IsZero())
	assert.Nil(t, execution.CompletedAt)
}

func TestEnrollment_Create_UnknownWorkflow(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	seedTestClient(t, p, "client-1")

	_, err := NewEnrollment(p).Create(context.Background(), CreateExecutionParams{
		OrganizationID: "org-1",
		WorkflowID:     "missing",
		ClientID:       "client-1",
	})
	assert.True(t, persistence.IsNotFound(err))
}

func TestEnrollment_Create_WithInitialState(t *testing.T) {
	_, s, _ := enrollmentFixture(t)

	execution, err := s.Create(context.Background(), CreateExecutionParams{
		OrganizationID:   "org-1",
		WorkflowID:       "wf-1",
		ClientID:         "client-1",
		Status:           models.ExecutionStatusFailed,
		ActionsCompleted: []int{0, 1},
		Error:            "imported from the previous system",
		TriggerData:      map[string]any{"service": "facial"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, execution.Status)
	assert.Equal(t, []int{0, 1}, execution.ActionsCompleted)
	assert.Equal(t, "imported from the previous system", execution.Error)
	assert.Equal(t, map[string]any{"service": "facial"}, execution.TriggerData)

	// A terminal initial status is stamped like a terminal transition.
	assert.NotNil(t, execution.CompletedAt)
}

func TestEnrollment_UpdateStatus_TerminalStampsCompletedAt(t *testing.T) {
	_, s, execution := enrollmentFixture(t)

	updated, err := s.UpdateStatus(context.Background(), execution.ID, models.ExecutionStatusCompleted, "")
	require.NoError(t, err)
	assert.NotNil(t, updated.CompletedAt)

	// Terminal executions reject further transitions.
	_, err = s.UpdateStatus(context.Background(), execution.ID, models.ExecutionStatusCancelled, "")
	assert.ErrorIs(t, err, ErrExecutionFinished)
}

func TestEnrollment_AddCompletedAction_KeepsDuplicates(t *testing.T) {
	_, s, execution := enrollmentFixture(t)

	_, err := s.AddCompletedAction(context.Background(), execution.ID, 0)
	require.NoError(t, err)
	_, err = s.AddCompletedAction(context.Background(), execution.ID, 0)
	require.NoError(t, err)

	updated, err := s.AddCompletedAction(context.Background(), execution.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1}, updated.ActionsCompleted)
}

func TestEnrollment_AppendLog(t *testing.T) {
	_, s, execution := enrollmentFixture(t)

	_, err := s.AppendLog(context.Background(), &models.ExecutionLog{
		ExecutionID: execution.ID,
		WorkflowID:  execution.WorkflowID,
		ClientID:    execution.ClientID,
		StepID:      "b1",
		Action:      "send_sms",
		Status:      models.LogStatusExecuted,
	})
	require.NoError(t, err)

	_, err = s.AppendLog(context.Background(), &models.ExecutionLog{
		ExecutionID: execution.ID,
		StepID:      "b2",
		Action:      "wait",
		Status:      models.LogStatusWaiting,
	})
	require.NoError(t, err)

	logs, err := s.Logs(context.Background(), execution.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "send_sms", logs[0].Action)
	assert.Equal(t, models.LogStatusWaiting, logs[1].Status)
}

func TestEnrollment_AppendLog_UnknownExecution(t *testing.T) {
	p := file.NewPersistence(t.TempDir())

	_, err := NewEnrollment(p).AppendLog(context.Background(), &models.ExecutionLog{
		ExecutionID: "missing",
		Status:      models.LogStatusExecuted,
	})
	assert.True(t, persistence.IsNotFound(err))
}
