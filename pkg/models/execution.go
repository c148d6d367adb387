package models

import "time"

// ExecutionStatus is the lifecycle state of a workflow enrollment.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
)

// IsTerminal reports whether the status ends the enrollment. CompletedAt is
// stamped exactly when an execution transitions into a terminal status.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed || s == ExecutionStatusCancelled
}

// WorkflowExecution records one client progressing through one workflow
// instance. ActionsCompleted is an append-only list of completed block
// indices; duplicates are kept as appended. TriggerData is the payload of
// the event that started the execution, kept so blocks running after a wait
// suspension still see it.
type WorkflowExecution struct {
	ID               string          `json:"id"`
	OrganizationID   string          `json:"organization_id" validate:"required"`
	WorkflowID       string          `json:"workflow_id"     validate:"required"`
	ClientID         string          `json:"client_id"       validate:"required"`
	Status           ExecutionStatus `json:"status"`
	ActionsCompleted []int           `json:"actions_completed"`
	TriggerData      map[string]any  `json:"trigger_data,omitempty"`
	Error            string          `json:"error,omitempty"`
	StartedAt        time.Time       `json:"started_at"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
}

// LogStatus is the outcome of a single step attempt.
type LogStatus string

const (
	LogStatusExecuted  LogStatus = "executed"
	LogStatusFailed    LogStatus = "failed"
	LogStatusWaiting   LogStatus = "waiting"
	LogStatusCancelled LogStatus = "cancelled"
)

// ExecutionLog is an append-only record of one step attempt for an
// enrollment. Rows are never updated or deleted.
type ExecutionLog struct {
	ID          string    `json:"id"`
	WorkflowID  string    `json:"workflow_id"`
	ExecutionID string    `json:"execution_id" validate:"required"`
	ClientID    string    `json:"client_id"`
	StepID      string    `json:"step_id"`
	Action      string    `json:"action"`
	Status      LogStatus `json:"status"`
	Message     string    `json:"message,omitempty"`
	LoggedAt    time.Time `json:"logged_at"`
}
