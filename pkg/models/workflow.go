package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// TriggerType identifies the domain event that enrolls clients into a workflow.
type TriggerType string

const (
	TriggerClientCreated        TriggerType = "client_created"
	TriggerAppointmentBooked    TriggerType = "appointment_booked"
	TriggerAppointmentCompleted TriggerType = "appointment_completed"
	TriggerMessageReceived      TriggerType = "message_received"
	TriggerTagAdded             TriggerType = "tag_added"
	TriggerSchedule             TriggerType = "schedule"
)

// WorkflowBlock is one step of a workflow. Type selects a registered step
// action (send_sms, send_email, add_tag, remove_tag, wait); Config is
// validated against the action's JSON schema when the workflow is saved.
type WorkflowBlock struct {
	ID     string         `json:"id"   validate:"required"`
	Type   string         `json:"type" validate:"required"`
	Name   string         `json:"name"`
	Config map[string]any `json:"config"`
}

// Connection orders two blocks: the target runs after the source.
type Connection struct {
	ID       string `json:"id"`
	SourceID string `json:"source_id" validate:"required"`
	TargetID string `json:"target_id" validate:"required"`
}

// Workflow is an automation definition owned by an organization. DirectoryID
// nil means the workflow lives at the root level.
type Workflow struct {
	ID             string           `json:"id"`
	OrganizationID string           `json:"organization_id" validate:"required"`
	Name           string           `json:"name"            validate:"required,min=3"`
	Trigger        TriggerType      `json:"trigger"         validate:"required"`
	TriggerConfig  map[string]any   `json:"trigger_config,omitempty"`
	Enabled        bool             `json:"enabled"`
	Blocks         []*WorkflowBlock `json:"blocks"`
	Connections    []*Connection    `json:"connections"`
	DirectoryID    *string          `json:"directory_id,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ValidateTrigger checks trigger-specific configuration. Schedule triggers
// must carry a parseable 5-field cron expression.
func (w *Workflow) ValidateTrigger() error {
	if w.Trigger != TriggerSchedule {
		return nil
	}

	expr, _ := w.TriggerConfig["cron"].(string)
	if expr == "" {
		return errors.New("schedule trigger requires a cron expression")
	}

	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	return nil
}

// NextScheduledRun computes the next due time for a schedule-triggered
// workflow from its cron expression.
func (w *Workflow) NextScheduledRun(after time.Time) (time.Time, error) {
	expr, _ := w.TriggerConfig["cron"].(string)

	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression: %w", err)
	}

	return schedule.Next(after), nil
}

// OrderedBlocks returns the blocks sorted by connection order, starting from
// the block that is never a connection target. Workflows are linear chains;
// blocks not reachable through connections keep their definition order.
func (w *Workflow) OrderedBlocks() []*WorkflowBlock {
	if len(w.Connections) == 0 {
		return w.Blocks
	}

	byID := make(map[string]*WorkflowBlock, len(w.Blocks))
	targets := make(map[string]bool, len(w.Connections))
	next := make(map[string]string, len(w.Connections))

	for _, b := range w.Blocks {
		byID[b.ID] = b
	}

	for _, c := range w.Connections {
		targets[c.TargetID] = true
		next[c.SourceID] = c.TargetID
	}

	var head *WorkflowBlock

	for _, b := range w.Blocks {
		if !targets[b.ID] {
			head = b

			break
		}
	}

	if head == nil {
		return w.Blocks
	}

	ordered := make([]*WorkflowBlock, 0, len(w.Blocks))
	seen := make(map[string]bool, len(w.Blocks))

	for b := head; b != nil && !seen[b.ID]; b = byID[next[b.ID]] {
		ordered = append(ordered, b)
		seen[b.ID] = true
	}

	for _, b := range w.Blocks {
		if !seen[b.ID] {
			ordered = append(ordered, b)
		}
	}

	return ordered
}
