// Package workflow runs enrollments: it reacts to domain events, executes
// workflow blocks in order and records every attempt in the execution log.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/glowdesk/glowdesk/pkg/eventbus"
	"github.com/glowdesk/glowdesk/pkg/events"
	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/persistence"
	"github.com/glowdesk/glowdesk/pkg/protocol"
	"github.com/glowdesk/glowdesk/pkg/registry"
	"github.com/glowdesk/glowdesk/pkg/services"
)

const resumeMaxAttempts = 3

type Engine struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventPublisher
	enrollments *services.Enrollment
	logger      *slog.Logger
}

func NewEngine(p persistence.Persistence, r *registry.Registry, eventBus eventbus.EventPublisher, logger *slog.Logger) *Engine {
	return &Engine{
		persistence: p,
		registry:    r,
		eventBus:    eventBus,
		enrollments: services.NewEnrollment(p),
		logger:      logger.With("module", "workflow_engine"),
	}
}

// HandleDomainEvent enrolls the event's client into every enabled workflow
// listening on the matching trigger. It satisfies eventbus.EventHandler.
func (e *Engine) HandleDomainEvent(ctx context.Context, raw any) error {
	event, ok := raw.(*events.DomainEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", raw)
	}

	trigger, ok := events.TriggerFor(event.Type)
	if !ok {
		return nil
	}

	logger := e.logger.With("event_type", event.Type, "organization_id", event.OrganizationID, "client_id", event.ClientID)

	workflows, err := e.persistence.Workflows().ListByTrigger(ctx, event.OrganizationID, trigger)
	if err != nil {
		return fmt.Errorf("failed to list workflows for trigger %s: %w", trigger, err)
	}

	logger.Info("Domain event received", "matching_workflows", len(workflows))

	for _, workflow := range workflows {
		err = e.Enroll(ctx, workflow, event.ClientID, event.Data)
		if err != nil {
			logger.Error("Enrollment failed", "workflow_id", workflow.ID, "error", err)
		}
	}

	return nil
}

// Enroll starts an execution of the workflow for the client and runs it from
// the first block. The trigger data is stored on the execution so it stays
// available across wait suspensions.
func (e *Engine) Enroll(ctx context.Context, workflow *models.Workflow, clientID string, triggerData map[string]any) error {
	execution, err := e.enrollments.Create(ctx, services.CreateExecutionParams{
		OrganizationID: workflow.OrganizationID,
		WorkflowID:     workflow.ID,
		ClientID:       clientID,
		TriggerData:    triggerData,
	})
	if err != nil {
		return err
	}

	e.publishStarted(ctx, execution)

	return e.run(ctx, execution, workflow, 0)
}

// Resume continues a suspended execution at the given block index. The
// dispatcher calls this when a run_workflow_step action comes due; finished
// executions are left alone.
func (e *Engine) Resume(ctx context.Context, executionID string, resumeIndex int) error {
	execution, err := e.persistence.Executions().GetByID(ctx, executionID)
	if err != nil {
		return err
	}

	if execution.Status.IsTerminal() {
		e.logger.Info("Skipping resume of finished execution", "execution_id", executionID, "status", execution.Status)

		return nil
	}

	workflow, err := e.persistence.Workflows().GetByID(ctx, execution.OrganizationID, execution.WorkflowID)
	if err != nil {
		return err
	}

	return e.run(ctx, execution, workflow, resumeIndex)
}

// RunScheduled enrolls every client of the organization into a
// schedule-triggered workflow.
func (e *Engine) RunScheduled(ctx context.Context, orgID, workflowID string) error {
	workflow, err := e.persistence.Workflows().GetByID(ctx, orgID, workflowID)
	if err != nil {
		return err
	}

	if !workflow.Enabled {
		return nil
	}

	clients, err := e.persistence.Clients().ListByOrganization(ctx, orgID)
	if err != nil {
		return err
	}

	for _, client := range clients {
		err = e.Enroll(ctx, workflow, client.ID, nil)
		if err != nil {
			e.logger.Error("Scheduled enrollment failed", "workflow_id", workflowID, "client_id", client.ID, "error", err)
		}
	}

	return nil
}

func (e *Engine) run(ctx context.Context, execution *models.WorkflowExecution, workflow *models.Workflow, startIndex int) error {
	logger := e.logger.With("execution_id", execution.ID, "workflow_id", workflow.ID)

	client, err := e.persistence.Clients().GetByID(ctx, execution.OrganizationID, execution.ClientID)
	if err != nil {
		return e.fail(ctx, execution, workflow, nil, fmt.Errorf("failed to load client: %w", err))
	}

	executionCtx := models.ExecutionContext{
		ID:             execution.ID,
		OrganizationID: execution.OrganizationID,
		WorkflowID:     workflow.ID,
		Client:         client,
		TriggerData:    execution.TriggerData,
		StepResults:    make(map[string]any),
		Metadata:       make(map[string]any),
	}

	blocks := workflow.OrderedBlocks()

	for i := startIndex; i < len(blocks); i++ {
		block := blocks[i]
		blockLogger := logger.With("step_id", block.ID, "step_type", block.Type)

		action, err := e.registry.CreateStep(block.Type, block.Config)
		if err != nil {
			return e.fail(ctx, execution, workflow, block, err)
		}

		result, err := action.Execute(ctx, executionCtx, blockLogger)

		var signal *protocol.WaitSignal
		if errors.As(err, &signal) {
			return e.suspend(ctx, execution, block, i, signal)
		}

		if err != nil {
			return e.fail(ctx, execution, workflow, block, err)
		}

		executionCtx.StepResults[block.ID] = result

		e.appendLog(ctx, execution, block, models.LogStatusExecuted, "")

		_, err = e.enrollments.AddCompletedAction(ctx, execution.ID, i)
		if err != nil {
			return err
		}

		blockLogger.Info("Step executed")
	}

	_, err = e.enrollments.UpdateStatus(ctx, execution.ID, models.ExecutionStatusCompleted, "")
	if err != nil {
		return err
	}

	e.publishCompleted(ctx, execution)
	logger.Info("Execution completed")

	return nil
}

// suspend parks the execution and schedules its resumption.
func (e *Engine) suspend(ctx context.Context, execution *models.WorkflowExecution, block *models.WorkflowBlock, index int, signal *protocol.WaitSignal) error {
	e.appendLog(ctx, execution, block, models.LogStatusWaiting, "waiting until "+signal.ResumeAt.Format(time.RFC3339))

	_, err := e.enrollments.AddCompletedAction(ctx, execution.ID, index)
	if err != nil {
		return err
	}

	action := models.NewScheduledAction(
		execution.OrganizationID,
		models.ActionRunWorkflowStep,
		map[string]any{
			"execution_id": execution.ID,
			"resume_index": index + 1,
		},
		signal.ResumeAt,
		resumeMaxAttempts,
	)
	action.ID = uuid.New().String()

	err = e.persistence.ScheduledActions().Save(ctx, action)
	if err != nil {
		return fmt.Errorf("failed to schedule resume: %w", err)
	}

	e.logger.Info("Execution suspended", "execution_id", execution.ID, "resume_at", signal.ResumeAt)

	return nil
}

func (e *Engine) fail(ctx context.Context, execution *models.WorkflowExecution, workflow *models.Workflow, block *models.WorkflowBlock, cause error) error {
	if block != nil {
		e.appendLog(ctx, execution, block, models.LogStatusFailed, cause.Error())
	}

	_, err := e.enrollments.UpdateStatus(ctx, execution.ID, models.ExecutionStatusFailed, cause.Error())
	if err != nil {
		e.logger.Error("Failed to mark execution failed", "execution_id", execution.ID, "error", err)
	}

	event := events.ExecutionFailed{
		BaseEvent:   e.baseEvent(events.ExecutionFailedEvent, execution.OrganizationID),
		ExecutionID: execution.ID,
		WorkflowID:  workflow.ID,
		Error:       cause.Error(),
	}
	e.publish(ctx, execution.ID, event)

	return cause
}

func (e *Engine) appendLog(ctx context.Context, execution *models.WorkflowExecution, block *models.WorkflowBlock, status models.LogStatus, message string) {
	_, err := e.enrollments.AppendLog(ctx, &models.ExecutionLog{
		WorkflowID:  execution.WorkflowID,
		ExecutionID: execution.ID,
		ClientID:    execution.ClientID,
		StepID:      block.ID,
		Action:      block.Type,
		Status:      status,
		Message:     message,
	})
	if err != nil {
		e.logger.Error("Failed to append execution log", "execution_id", execution.ID, "error", err)
	}
}

func (e *Engine) publishStarted(ctx context.Context, execution *models.WorkflowExecution) {
	event := events.ExecutionStarted{
		BaseEvent:   e.baseEvent(events.ExecutionStartedEvent, execution.OrganizationID),
		ExecutionID: execution.ID,
		WorkflowID:  execution.WorkflowID,
		ClientID:    execution.ClientID,
	}
	e.publish(ctx, execution.ID, event)
}

func (e *Engine) publishCompleted(ctx context.Context, execution *models.WorkflowExecution) {
	event := events.ExecutionCompleted{
		BaseEvent:   e.baseEvent(events.ExecutionCompletedEvent, execution.OrganizationID),
		ExecutionID: execution.ID,
		WorkflowID:  execution.WorkflowID,
		Duration:    time.Since(execution.StartedAt),
	}
	e.publish(ctx, execution.ID, event)
}

func (e *Engine) baseEvent(eventType events.EventType, orgID string) events.BaseEvent {
	return events.BaseEvent{
		ID:             uuid.New().String(),
		Type:           eventType,
		Timestamp:      time.Now().UTC(),
		OrganizationID: orgID,
	}
}

// Lifecycle events are best effort; execution state lives in persistence.
func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	err := e.eventBus.Publish(ctx, key, event)
	if err != nil {
		e.logger.Error("Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
