// Package events defines event types and structures for domain lifecycle notifications.
package events

import (
	"time"

	"github.com/glowdesk/glowdesk/pkg/models"
)

type EventType string

// Kafka topic for all domain events.
const Topic = "glowdesk.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Domain events that can enroll clients into workflows.
	ClientCreatedEvent        EventType = "client.created"
	AppointmentBookedEvent    EventType = "appointment.booked"
	AppointmentCompletedEvent EventType = "appointment.completed"
	MessageReceivedEvent      EventType = "message.received"
	TagAddedEvent             EventType = "tag.added"

	// Enrollment lifecycle events.
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"

	// Campaign and publishing events.
	BulkMessageCompletedEvent EventType = "bulkmessage.completed"
	PostPublishedEvent        EventType = "post.published"
	PostPublishFailedEvent    EventType = "post.publish_failed"
)

// TriggerFor maps a domain event type to the workflow trigger it fires.
// Events that never enroll clients return false.
func TriggerFor(eventType EventType) (models.TriggerType, bool) {
	switch eventType {
	case ClientCreatedEvent:
		return models.TriggerClientCreated, true
	case AppointmentBookedEvent:
		return models.TriggerAppointmentBooked, true
	case AppointmentCompletedEvent:
		return models.TriggerAppointmentCompleted, true
	case MessageReceivedEvent:
		return models.TriggerMessageReceived, true
	case TagAddedEvent:
		return models.TriggerTagAdded, true
	default:
		return "", false
	}
}

type BaseEvent struct {
	ID             string         `json:"id"`
	Type           EventType      `json:"type"`
	Timestamp      time.Time      `json:"timestamp"`
	OrganizationID string         `json:"organization_id"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// DomainEvent is a tenant-scoped event about a client that may enroll the
// client into workflows.
type DomainEvent struct {
	BaseEvent

	ClientID string         `json:"client_id"`
	Data     map[string]any `json:"data,omitempty"`
}

func (e DomainEvent) GetType() EventType {
	return e.Type
}

type ExecutionStarted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	WorkflowID  string `json:"workflow_id"`
	ClientID    string `json:"client_id"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	WorkflowID  string        `json:"workflow_id"`
	Duration    time.Duration `json:"duration"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	WorkflowID  string `json:"workflow_id"`
	Error       string `json:"error"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}

type BulkMessageCompleted struct {
	BaseEvent

	BulkMessageID string `json:"bulk_message_id"`
	SentCount     int    `json:"sent_count"`
	FailedCount   int    `json:"failed_count"`
}

func (e BulkMessageCompleted) GetType() EventType {
	return BulkMessageCompletedEvent
}

type PostPublished struct {
	BaseEvent

	PostID    string   `json:"post_id"`
	Platforms []string `json:"platforms"`
}

func (e PostPublished) GetType() EventType {
	return PostPublishedEvent
}

type PostPublishFailed struct {
	BaseEvent

	PostID string `json:"post_id"`
	Error  string `json:"error"`
}

func (e PostPublishFailed) GetType() EventType {
	return PostPublishFailedEvent
}
