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

const sendMaxAttempts = 3

// Messaging handles bulk campaigns. Sending creates one pending recipient
// row per target and hands delivery to the dispatcher; campaign counters are
// always recomputed from recipient rows by count queries.
type Messaging struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
}

func NewMessaging(persistence persistence.Persistence, publisher eventbus.EventPublisher) *Messaging {
	return &Messaging{persistence: persistence, publisher: publisher}
}

func (s *Messaging) Create(ctx context.Context, message *models.BulkMessage) (*models.BulkMessage, error) {
	err := validate.Struct(message)
	if err != nil {
		return nil, NewValidationError("Messaging.Create", "INVALID_BULK_MESSAGE", err.Error(), ErrInvalidRequest)
	}

	now := time.Now().UTC()
	message.ID = uuid.New().String()
	message.CreatedAt = now
	message.UpdatedAt = now

	if message.ScheduledFor != nil && message.ScheduledFor.After(now) {
		message.Status = models.BulkMessageStatusScheduled
	} else {
		message.Status = models.BulkMessageStatusDraft
	}

	err = s.persistence.BulkMessages().Save(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("failed to save bulk message: %w", err)
	}

	return message, nil
}

func (s *Messaging) Get(ctx context.Context, orgID, id string) (*models.BulkMessage, error) {
	return s.persistence.BulkMessages().GetByID(ctx, orgID, id)
}

func (s *Messaging) List(ctx context.Context, orgID string) ([]*models.BulkMessage, error) {
	return s.persistence.BulkMessages().ListByOrganization(ctx, orgID)
}

func (s *Messaging) Recipients(ctx context.Context, bulkMessageID string) ([]*models.MessageRecipient, error) {
	return s.persistence.Recipients().ListByBulkMessage(ctx, bulkMessageID)
}

// Send materializes the campaign: one pending recipient row per client and a
// send_bulk_message action for the dispatcher. With no explicit client IDs
// the campaign targets every client of the organization.
func (s *Messaging) Send(ctx context.Context, orgID, id string, clientIDs []string) (*models.BulkMessage, error) {
	message, err := s.persistence.BulkMessages().GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if message.Status != models.BulkMessageStatusDraft && message.Status != models.BulkMessageStatusScheduled {
		return nil, ErrCampaignNotSendable
	}

	if len(clientIDs) == 0 {
		clients, err := s.persistence.Clients().ListByOrganization(ctx, orgID)
		if err != nil {
			return nil, err
		}

		for _, c := range clients {
			clientIDs = append(clientIDs, c.ID)
		}
	}

	if len(clientIDs) == 0 {
		return nil, ErrRecipientsRequired
	}

	now := time.Now().UTC()

	for _, clientID := range clientIDs {
		recipient := &models.MessageRecipient{
			ID:            uuid.New().String(),
			BulkMessageID: message.ID,
			ClientID:      clientID,
			Status:        models.RecipientStatusPending,
			CreatedAt:     now,
		}

		err = s.persistence.Recipients().Save(ctx, recipient)
		if err != nil {
			return nil, fmt.Errorf("failed to save recipient: %w", err)
		}
	}

	message.Status = models.BulkMessageStatusSending
	message.TotalRecipients = len(clientIDs)
	message.UpdatedAt = now

	err = s.persistence.BulkMessages().Save(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("failed to save bulk message: %w", err)
	}

	due := now
	if message.ScheduledFor != nil && message.ScheduledFor.After(now) {
		due = *message.ScheduledFor
	}

	action := models.NewScheduledAction(
		orgID,
		models.ActionSendBulkMessage,
		map[string]any{"bulk_message_id": message.ID},
		due,
		sendMaxAttempts,
	)
	action.ID = uuid.New().String()

	err = s.persistence.ScheduledActions().Save(ctx, action)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule delivery: %w", err)
	}

	return message, nil
}

// UpdateRecipientStatus records one delivery outcome, then recomputes the
// campaign counters from recipient rows. The campaign completes once every
// recipient reached a terminal state. On sent and delivered transitions a
// non-empty externalID is kept as the provider's message reference.
func (s *Messaging) UpdateRecipientStatus(ctx context.Context, orgID, recipientID string, status models.RecipientStatus, externalID, cause string) (*models.MessageRecipient, error) {
	recipient, err := s.persistence.Recipients().GetByID(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	recipient.Status = status
	recipient.Error = cause

	switch status {
	case models.RecipientStatusSent:
		recipient.SentAt = &now

		if externalID != "" {
			recipient.ExternalID = externalID
		}
	case models.RecipientStatusDelivered:
		if recipient.SentAt == nil {
			recipient.SentAt = &now
		}

		recipient.DeliveredAt = &now

		if externalID != "" {
			recipient.ExternalID = externalID
		}
	}

	err = s.persistence.Recipients().Save(ctx, recipient)
	if err != nil {
		return nil, fmt.Errorf("failed to save recipient: %w", err)
	}

	err = s.refreshCampaign(ctx, orgID, recipient.BulkMessageID)
	if err != nil {
		return nil, err
	}

	return recipient, nil
}

func (s *Messaging) refreshCampaign(ctx context.Context, orgID, bulkMessageID string) error {
	message, err := s.persistence.BulkMessages().GetByID(ctx, orgID, bulkMessageID)
	if err != nil {
		return err
	}

	sent, err := s.persistence.Recipients().CountByStatus(ctx, bulkMessageID, models.RecipientStatusSent)
	if err != nil {
		return err
	}

	delivered, err := s.persistence.Recipients().CountByStatus(ctx, bulkMessageID, models.RecipientStatusDelivered)
	if err != nil {
		return err
	}

	failed, err := s.persistence.Recipients().CountByStatus(ctx, bulkMessageID, models.RecipientStatusFailed)
	if err != nil {
		return err
	}

	message.SentCount = sent + delivered
	message.FailedCount = failed
	message.UpdatedAt = time.Now().UTC()

	completed := message.Status == models.BulkMessageStatusSending &&
		message.SentCount+message.FailedCount >= message.TotalRecipients

	if completed {
		message.Status = models.BulkMessageStatusCompleted
	}

	err = s.persistence.BulkMessages().Save(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to save bulk message: %w", err)
	}

	if completed {
		event := events.BulkMessageCompleted{
			BaseEvent: events.BaseEvent{
				ID:             uuid.New().String(),
				Type:           events.BulkMessageCompletedEvent,
				Timestamp:      time.Now().UTC(),
				OrganizationID: orgID,
			},
			BulkMessageID: message.ID,
			SentCount:     message.SentCount,
			FailedCount:   message.FailedCount,
		}

		err = s.publisher.Publish(ctx, message.ID, event)
		if err != nil {
			return fmt.Errorf("failed to publish completion event: %w", err)
		}
	}

	return nil
}
