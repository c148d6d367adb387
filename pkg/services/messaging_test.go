package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowdesk/glowdesk/pkg/events"
	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/persistence/file"
)

func TestMessaging_SendLifecycle(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	publisher := &capturePublisher{}
	s := NewMessaging(p, publisher)

	seedTestClient(t, p, "client-1")
	seedTestClient(t, p, "client-2")

	message, err := s.Create(context.Background(), &models.BulkMessage{
		OrganizationID: "org-1",
		Channel:        models.MessageChannelSMS,
		Body:           "Flash sale this weekend!",
	})
	require.NoError(t, err)
	assert.Equal(t, models.BulkMessageStatusDraft, message.Status)

	message, err = s.Send(context.Background(), "org-1", message.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.BulkMessageStatusSending, message.Status)
	assert.Equal(t, 2, message.TotalRecipients)

	recipients, err := s.Recipients(context.Background(), message.ID)
	require.NoError(t, err)
	require.Len(t, recipients, 2)

	for _, r := range recipients {
		assert.Equal(t, models.RecipientStatusPending, r.Status)
	}

	// Delivery is handed to the dispatcher via a scheduled action.
	actions, err := p.ScheduledActions().ListByOrganization(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionSendBulkMessage, actions[0].Action)

	// First delivery lands, campaign still sending.
	recipient, err := s.UpdateRecipientStatus(context.Background(), "org-1", recipients[0].ID, models.RecipientStatusSent, "sm-12345", "")
	require.NoError(t, err)
	assert.Equal(t, "sm-12345", recipient.ExternalID)
	assert.NotNil(t, recipient.SentAt)

	message, err = s.Get(context.Background(), "org-1", message.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, message.SentCount)
	assert.Equal(t, models.BulkMessageStatusSending, message.Status)

	// Second recipient fails, campaign completes and emits an event.
	_, err = s.UpdateRecipientStatus(context.Background(), "org-1", recipients[1].ID, models.RecipientStatusFailed, "", "invalid number")
	require.NoError(t, err)

	message, err = s.Get(context.Background(), "org-1", message.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, message.SentCount)
	assert.Equal(t, 1, message.FailedCount)
	assert.Equal(t, models.BulkMessageStatusCompleted, message.Status)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, events.BulkMessageCompletedEvent, publisher.published[0].GetType())
}

func TestMessaging_Send_RequiresSendableStatus(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	s := NewMessaging(p, &capturePublisher{})

	seedTestClient(t, p, "client-1")

	message, err := s.Create(context.Background(), &models.BulkMessage{
		OrganizationID: "org-1",
		Channel:        models.MessageChannelEmail,
		Subject:        "News",
		Body:           "Hello",
	})
	require.NoError(t, err)

	_, err = s.Send(context.Background(), "org-1", message.ID, []string{"client-1"})
	require.NoError(t, err)

	// A campaign already sending cannot be sent again.
	_, err = s.Send(context.Background(), "org-1", message.ID, []string{"client-1"})
	assert.ErrorIs(t, err, ErrCampaignNotSendable)
}

func TestMessaging_Send_NoRecipients(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	s := NewMessaging(p, &capturePublisher{})

	message, err := s.Create(context.Background(), &models.BulkMessage{
		OrganizationID: "org-1",
		Channel:        models.MessageChannelSMS,
		Body:           "Hello",
	})
	require.NoError(t, err)

	_, err = s.Send(context.Background(), "org-1", message.ID, nil)
	assert.ErrorIs(t, err, ErrRecipientsRequired)
}

func TestMessaging_RecipientDelivered_CountsAsSent(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	s := NewMessaging(p, &capturePublisher{})

	seedTestClient(t, p, "client-1")

	message, err := s.Create(context.Background(), &models.BulkMessage{
		OrganizationID: "org-1",
		Channel:        models.MessageChannelSMS,
		Body:           "Hello",
	})
	require.NoError(t, err)

	_, err = s.Send(context.Background(), "org-1", message.ID, []string{"client-1"})
	require.NoError(t, err)

	recipients, err := s.Recipients(context.Background(), message.ID)
	require.NoError(t, err)

	recipient, err := s.UpdateRecipientStatus(context.Background(), "org-1", recipients[0].ID, models.RecipientStatusDelivered, "sm-900", "")
	require.NoError(t, err)
	assert.NotNil(t, recipient.SentAt)
	assert.NotNil(t, recipient.DeliveredAt)
	assert.Equal(t, "sm-900", recipient.ExternalID)

	message, err = s.Get(context.Background(), "org-1", message.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, message.SentCount)
	assert.Equal(t, models.BulkMessageStatusCompleted, message.Status)
}
