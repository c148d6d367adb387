package models

import "time"

// MessageChannel selects the delivery channel of a campaign.
type MessageChannel string

const (
	MessageChannelEmail MessageChannel = "email"
	MessageChannelSMS   MessageChannel = "sms"
)

// BulkMessageStatus is the lifecycle state of a campaign.
type BulkMessageStatus string

const (
	BulkMessageStatusDraft     BulkMessageStatus = "draft"
	BulkMessageStatusScheduled BulkMessageStatus = "scheduled"
	BulkMessageStatusSending   BulkMessageStatus = "sending"
	BulkMessageStatusCompleted BulkMessageStatus = "completed"
	BulkMessageStatusFailed    BulkMessageStatus = "failed"
)

// BulkMessage is a one-to-many campaign. SentCount and FailedCount are
// derived from recipient rows by aggregate count queries, never incremented
// in place. The campaign completes once sent+failed reaches the total.
type BulkMessage struct {
	ID              string            `json:"id"`
	OrganizationID  string            `json:"organization_id" validate:"required"`
	Channel         MessageChannel    `json:"channel"         validate:"required,oneof=email sms"`
	Subject         string            `json:"subject,omitempty"`
	Body            string            `json:"body"            validate:"required"`
	Status          BulkMessageStatus `json:"status"`
	TotalRecipients int               `json:"total_recipients"`
	SentCount       int               `json:"sent_count"`
	FailedCount     int               `json:"failed_count"`
	ScheduledFor    *time.Time        `json:"scheduled_for,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// RecipientStatus is the delivery state of one campaign recipient.
type RecipientStatus string

const (
	RecipientStatusPending   RecipientStatus = "pending"
	RecipientStatusSent      RecipientStatus = "sent"
	RecipientStatusDelivered RecipientStatus = "delivered"
	RecipientStatusFailed    RecipientStatus = "failed"
)

// IsTerminal reports whether the recipient reached a final delivery state.
func (s RecipientStatus) IsTerminal() bool {
	return s == RecipientStatusSent || s == RecipientStatusDelivered || s == RecipientStatusFailed
}

// MessageRecipient tracks delivery of a campaign to one client. ExternalID
// is the provider-side message identifier.
type MessageRecipient struct {
	ID            string          `json:"id"`
	BulkMessageID string          `json:"bulk_message_id" validate:"required"`
	ClientID      string          `json:"client_id"       validate:"required"`
	Status        RecipientStatus `json:"status"`
	ExternalID    string          `json:"external_id,omitempty"`
	Error         string          `json:"error,omitempty"`
	SentAt        *time.Time      `json:"sent_at,omitempty"`
	DeliveredAt   *time.Time      `json:"delivered_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
