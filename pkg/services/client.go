package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/glowdesk/glowdesk/pkg/eventbus"
	"github.com/glowdesk/glowdesk/pkg/events"
	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/persistence"
)

// Client handles client records and the domain events they emit. Creating a
// client and tagging a client publish events that can enroll the client into
// workflows.
type Client struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
}

func NewClient(persistence persistence.Persistence, publisher eventbus.EventPublisher) *Client {
	return &Client{persistence: persistence, publisher: publisher}
}

func (s *Client) Create(ctx context.Context, client *models.Client) (*models.Client, error) {
	err := validate.Struct(client)
	if err != nil {
		return nil, NewValidationError("Client.Create", "INVALID_CLIENT", err.Error(), ErrInvalidRequest)
	}

	now := time.Now().UTC()
	client.ID = uuid.New().String()
	client.NormalizeTags()

	if client.PortalStatus == "" {
		client.PortalStatus = models.PortalStatusNotInvited
	}

	client.CreatedAt = now
	client.UpdatedAt = now

	err = s.persistence.Clients().Save(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to save client: %w", err)
	}

	err = s.publishEvent(ctx, client.OrganizationID, client.ID, events.ClientCreatedEvent, nil)
	if err != nil {
		return nil, err
	}

	return client, nil
}

func (s *Client) Get(ctx context.Context, orgID, id string) (*models.Client, error) {
	return s.persistence.Clients().GetByID(ctx, orgID, id)
}

func (s *Client) List(ctx context.Context, orgID string) ([]*models.Client, error) {
	return s.persistence.Clients().ListByOrganization(ctx, orgID)
}

func (s *Client) Update(ctx context.Context, client *models.Client) (*models.Client, error) {
	existing, err := s.persistence.Clients().GetByID(ctx, client.OrganizationID, client.ID)
	if err != nil {
		return nil, err
	}

	err = validate.Struct(client)
	if err != nil {
		return nil, NewValidationError("Client.Update", "INVALID_CLIENT", err.Error(), ErrInvalidRequest)
	}

	client.NormalizeTags()
	client.CreatedAt = existing.CreatedAt
	client.UpdatedAt = time.Now().UTC()

	err = s.persistence.Clients().Save(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to save client: %w", err)
	}

	return client, nil
}

func (s *Client) Delete(ctx context.Context, orgID, id string) error {
	return s.persistence.Clients().Delete(ctx, orgID, id)
}

// AddTag appends the tag when missing and publishes tag.added so
// tag-triggered workflows fire. Adding an existing tag is a no-op.
func (s *Client) AddTag(ctx context.Context, orgID, id, tag string) (*models.Client, error) {
	if tag == "" {
		return nil, NewValidationError("Client.AddTag", "EMPTY_TAG", "tag cannot be empty", ErrInvalidRequest)
	}

	client, err := s.persistence.Clients().GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if client.HasTag(tag) {
		return client, nil
	}

	client.Tags = append(client.Tags, tag)
	client.UpdatedAt = time.Now().UTC()

	err = s.persistence.Clients().Save(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to save client: %w", err)
	}

	err = s.publishEvent(ctx, orgID, id, events.TagAddedEvent, map[string]any{"tag": tag})
	if err != nil {
		return nil, err
	}

	return client, nil
}

func (s *Client) RemoveTag(ctx context.Context, orgID, id, tag string) (*models.Client, error) {
	client, err := s.persistence.Clients().GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if !client.HasTag(tag) {
		return client, nil
	}

	tags := make([]string, 0, len(client.Tags))

	for _, t := range client.Tags {
		if t != tag {
			tags = append(tags, t)
		}
	}

	client.Tags = tags
	client.UpdatedAt = time.Now().UTC()

	err = s.persistence.Clients().Save(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to save client: %w", err)
	}

	return client, nil
}

// EmitEvent publishes an externally reported domain event about a client,
// such as appointment.booked or message.received.
func (s *Client) EmitEvent(ctx context.Context, orgID, clientID string, eventType events.EventType, data map[string]any) error {
	if _, ok := events.TriggerFor(eventType); !ok {
		return NewValidationError("Client.EmitEvent", "UNKNOWN_EVENT_TYPE", string(eventType), ErrUnknownEventType)
	}

	_, err := s.persistence.Clients().GetByID(ctx, orgID, clientID)
	if err != nil {
		return err
	}

	return s.publishEvent(ctx, orgID, clientID, eventType, data)
}

func (s *Client) publishEvent(ctx context.Context, orgID, clientID string, eventType events.EventType, data map[string]any) error {
	event := events.DomainEvent{
		BaseEvent: events.BaseEvent{
			ID:             uuid.New().String(),
			Type:           eventType,
			Timestamp:      time.Now().UTC(),
			OrganizationID: orgID,
		},
		ClientID: clientID,
		Data:     data,
	}

	err := s.publisher.Publish(ctx, clientID, event)
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	return nil
}
