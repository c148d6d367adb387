// Package models defines the core domain models for practice-management automation.
package models

import "time"

// OrganizationLimits carries plan caps for an organization. The caps are
// advisory: they are stored and reported, never enforced by the core.
type OrganizationLimits struct {
	MaxClients        int `json:"max_clients"`
	MaxStorageMB      int `json:"max_storage_mb"`
	MaxMessagesPerDay int `json:"max_messages_per_day"`
}

// Organization is the tenant boundary. Every other aggregate is owned by
// exactly one organization.
type Organization struct {
	ID        string             `json:"id"`
	Name      string             `json:"name" validate:"required,min=2"`
	Limits    OrganizationLimits `json:"limits"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
