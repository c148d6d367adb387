package models

import "time"

// PortalStatus represents a client's access state on the client portal.
type PortalStatus string

const (
	PortalStatusNotInvited PortalStatus = "not_invited"
	PortalStatusInvited    PortalStatus = "invited"
	PortalStatusActive     PortalStatus = "active"
	PortalStatusDisabled   PortalStatus = "disabled"
)

// Client is a person managed by an organization.
type Client struct {
	ID             string       `json:"id"`
	OrganizationID string       `json:"organization_id" validate:"required"`
	FullName       string       `json:"full_name"       validate:"required,min=1"`
	Phones         []string     `json:"phones"`
	Email          string       `json:"email"           validate:"omitempty,email"`
	Tags           []string     `json:"tags"`
	PortalStatus   PortalStatus `json:"portal_status"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// NormalizeTags guarantees the tags slice is non-nil so new clients always
// serialize with an empty array.
func (c *Client) NormalizeTags() {
	if c.Tags == nil {
		c.Tags = []string{}
	}
}

// HasTag reports whether the client carries the given tag.
func (c *Client) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}

	return false
}
