package models

import "time"

// ActionStatus is the state of a deferred unit of work. The dispatcher
// drives the machine: pending -> attempting -> (completed | retrying |
// failed). Retrying actions re-enter attempting once NextAttemptAt passes.
type ActionStatus string

const (
	ActionStatusPending    ActionStatus = "pending"
	ActionStatusAttempting ActionStatus = "attempting"
	ActionStatusRetrying   ActionStatus = "retrying"
	ActionStatusCompleted  ActionStatus = "completed"
	ActionStatusFailed     ActionStatus = "failed"
	ActionStatusCancelled  ActionStatus = "cancelled"
)

// Built-in scheduled action names.
const (
	ActionPublishPost     = "publish_post"
	ActionRunWorkflowStep = "run_workflow_step"
	ActionRunWorkflow     = "run_workflow"
	ActionSendBulkMessage = "send_bulk_message"
)

// retryBaseDelay is the first retry interval; each further attempt doubles it.
const retryBaseDelay = 1 * time.Minute

// ScheduledAction is a deferred action row: run Action with Args once
// ScheduledFor has passed. Attempts counts executions so far and is always
// consulted against MaxAttempts before a retry is scheduled.
type ScheduledAction struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id" validate:"required"`
	Action         string         `json:"action"          validate:"required"`
	Args           map[string]any `json:"args"`
	ScheduledFor   time.Time      `json:"scheduled_for"`
	Status         ActionStatus   `json:"status"`
	Attempts       int            `json:"attempts"`
	MaxAttempts    int            `json:"max_attempts"`
	NextAttemptAt  time.Time      `json:"next_attempt_at"`
	LastError      string         `json:"last_error,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewScheduledAction creates a pending action due at scheduledFor.
func NewScheduledAction(orgID, action string, args map[string]any, scheduledFor time.Time, maxAttempts int) *ScheduledAction {
	now := time.Now().UTC()

	return &ScheduledAction{
		OrganizationID: orgID,
		Action:         action,
		Args:           args,
		ScheduledFor:   scheduledFor,
		Status:         ActionStatusPending,
		Attempts:       0,
		MaxAttempts:    maxAttempts,
		NextAttemptAt:  scheduledFor,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsDue reports whether the action should be picked up by the dispatcher.
func (a *ScheduledAction) IsDue(now time.Time) bool {
	if a.Status != ActionStatusPending && a.Status != ActionStatusRetrying {
		return false
	}

	return !a.NextAttemptAt.After(now)
}

// BeginAttempt transitions the action into attempting and bumps the counter.
func (a *ScheduledAction) BeginAttempt(now time.Time) {
	a.Status = ActionStatusAttempting
	a.Attempts++
	a.UpdatedAt = now
}

// Complete marks the action done.
func (a *ScheduledAction) Complete(now time.Time) {
	a.Status = ActionStatusCompleted
	a.LastError = ""
	a.UpdatedAt = now
}

// Fail records a failed attempt. While attempts remain the action moves to
// retrying with an exponentially backed-off NextAttemptAt; once the budget
// is exhausted it is permanently failed.
func (a *ScheduledAction) Fail(now time.Time, cause error) {
	a.LastError = cause.Error()
	a.UpdatedAt = now

	if a.Attempts >= a.MaxAttempts {
		a.Status = ActionStatusFailed

		return
	}

	a.Status = ActionStatusRetrying
	a.NextAttemptAt = now.Add(retryBaseDelay << (a.Attempts - 1))
}

// Rearm resets a completed recurring action to pending at the given time.
func (a *ScheduledAction) Rearm(next time.Time) {
	a.Status = ActionStatusPending
	a.Attempts = 0
	a.LastError = ""
	a.ScheduledFor = next
	a.NextAttemptAt = next
	a.UpdatedAt = time.Now().UTC()
}
