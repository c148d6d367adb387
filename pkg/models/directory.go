package models

import "time"

// WorkflowDirectory is a folder used to organize workflow definitions.
// Directories form a tree per organization; ParentID nil means root level.
// Directories never affect execution.
type WorkflowDirectory struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id" validate:"required"`
	Name           string    `json:"name"            validate:"required,min=1"`
	ParentID       *string   `json:"parent_id,omitempty"`
	Color          string    `json:"color,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DirectoryNode is a directory with its resolved children, produced when
// listing an organization's directories as a tree.
type DirectoryNode struct {
	*WorkflowDirectory

	Children []*DirectoryNode `json:"children"`
}
