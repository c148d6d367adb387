// Package web provides HTTP handlers and REST API endpoints for the
// automation core.
package web

import (
	"time"

	"github.com/glowdesk/glowdesk/pkg/models"
)

type CreateOrganizationRequest struct {
	Name   string                    `json:"name"   validate:"required,min=2"`
	Limits models.OrganizationLimits `json:"limits"`
}

type CreateClientRequest struct {
	FullName string   `json:"full_name" validate:"required,min=1"`
	Phones   []string `json:"phones"`
	Email    string   `json:"email"     validate:"omitempty,email"`
	Tags     []string `json:"tags"`
}

type UpdateClientRequest struct {
	FullName     string              `json:"full_name"     validate:"required,min=1"`
	Phones       []string            `json:"phones"`
	Email        string              `json:"email"         validate:"omitempty,email"`
	Tags         []string            `json:"tags"`
	PortalStatus models.PortalStatus `json:"portal_status" validate:"omitempty,oneof=not_invited invited active disabled"`
}

type TagRequest struct {
	Tag string `json:"tag" validate:"required,min=1"`
}

// EventRequest reports an external domain event about a client, such as a
// booked appointment or an inbound message.
type EventRequest struct {
	ClientID string         `json:"client_id" validate:"required"`
	Type     string         `json:"type"      validate:"required"`
	Data     map[string]any `json:"data,omitempty"`
}

type CreateDirectoryRequest struct {
	Name     string  `json:"name"      validate:"required,min=1"`
	ParentID *string `json:"parent_id,omitempty"`
	Color    string  `json:"color,omitempty"`
}

type UpdateDirectoryRequest struct {
	Name     string  `json:"name"      validate:"required,min=1"`
	ParentID *string `json:"parent_id,omitempty"`
	Color    string  `json:"color,omitempty"`
}

type CreateWorkflowRequest struct {
	Name          string                  `json:"name"           validate:"required,min=3"`
	Trigger       models.TriggerType      `json:"trigger"        validate:"required"`
	TriggerConfig map[string]any          `json:"trigger_config,omitempty"`
	Enabled       bool                    `json:"enabled"`
	Blocks        []*models.WorkflowBlock `json:"blocks"`
	Connections   []*models.Connection    `json:"connections"`
	DirectoryID   *string                 `json:"directory_id,omitempty"`
}

type UpdateWorkflowRequest struct {
	Name          string                  `json:"name"           validate:"required,min=3"`
	Trigger       models.TriggerType      `json:"trigger"        validate:"required"`
	TriggerConfig map[string]any          `json:"trigger_config,omitempty"`
	Enabled       bool                    `json:"enabled"`
	Blocks        []*models.WorkflowBlock `json:"blocks"`
	Connections   []*models.Connection    `json:"connections"`
	DirectoryID   *string                 `json:"directory_id,omitempty"`
}

type CompleteActionRequest struct {
	Index *int `json:"index" validate:"required,min=0"`
}

type UpdateExecutionStatusRequest struct {
	Status models.ExecutionStatus `json:"status" validate:"required,oneof=running completed failed cancelled"`
	Error  string                 `json:"error,omitempty"`
}

type CreateBulkMessageRequest struct {
	Channel      models.MessageChannel `json:"channel"       validate:"required,oneof=email sms"`
	Subject      string                `json:"subject,omitempty"`
	Body         string                `json:"body"          validate:"required"`
	ScheduledFor *time.Time            `json:"scheduled_for,omitempty"`
}

type SendBulkMessageRequest struct {
	ClientIDs []string `json:"client_ids,omitempty"`
}

type UpdateRecipientStatusRequest struct {
	Status     models.RecipientStatus `json:"status" validate:"required,oneof=pending sent delivered failed"`
	ExternalID string                 `json:"external_id,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

type CreateSocialPostRequest struct {
	Platforms    []string   `json:"platforms"     validate:"required,min=1"`
	Content      string     `json:"content"       validate:"required"`
	MediaURLs    []string   `json:"media_urls,omitempty"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}
