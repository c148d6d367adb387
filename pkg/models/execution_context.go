package models

// ExecutionContext carries everything a step action needs while running one
// block of an enrollment.
type ExecutionContext struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id"`
	WorkflowID     string         `json:"workflow_id"`
	Client         *Client        `json:"client,omitempty"`
	TriggerData    map[string]any `json:"trigger_data,omitempty"`
	StepResults    map[string]any `json:"step_results,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}
