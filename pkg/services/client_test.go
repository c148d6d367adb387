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

func TestClient_Create_PublishesEvent(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	publisher := &capturePublisher{}
	s := NewClient(p, publisher)

	client, err := s.Create(context.Background(), &models.Client{
		OrganizationID: "org-1",
		FullName:       "Dana Reyes",
		Email:          "dana@example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, client.ID)
	assert.NotNil(t, client.Tags)
	assert.Equal(t, models.PortalStatusNotInvited, client.PortalStatus)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, events.ClientCreatedEvent, publisher.published[0].GetType())
}

func TestClient_Create_Invalid(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	s := NewClient(p, &capturePublisher{})

	_, err := s.Create(context.Background(), &models.Client{OrganizationID: "org-1"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = s.Create(context.Background(), &models.Client{
		OrganizationID: "org-1",
		FullName:       "Dana Reyes",
		Email:          "not-an-email",
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestClient_AddTag(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	publisher := &capturePublisher{}
	s := NewClient(p, publisher)

	client, err := s.Create(context.Background(), &models.Client{
		OrganizationID: "org-1",
		FullName:       "Dana Reyes",
	})
	require.NoError(t, err)

	updated, err := s.AddTag(context.Background(), "org-1", client.ID, "vip")
	require.NoError(t, err)
	assert.True(t, updated.HasTag("vip"))

	// client.created then tag.added.
	require.Len(t, publisher.published, 2)
	assert.Equal(t, events.TagAddedEvent, publisher.published[1].GetType())

	// Adding the same tag again is a no-op and publishes nothing.
	_, err = s.AddTag(context.Background(), "org-1", client.ID, "vip")
	require.NoError(t, err)
	assert.Len(t, publisher.published, 2)
}

func TestClient_RemoveTag(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	s := NewClient(p, &capturePublisher{})

	client, err := s.Create(context.Background(), &models.Client{
		OrganizationID: "org-1",
		FullName:       "Dana Reyes",
		Tags:           []string{"vip", "aftercare"},
	})
	require.NoError(t, err)

	updated, err := s.RemoveTag(context.Background(), "org-1", client.ID, "vip")
	require.NoError(t, err)
	assert.Equal(t, []string{"aftercare"}, updated.Tags)
}

func TestClient_EmitEvent(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	publisher := &capturePublisher{}
	s := NewClient(p, publisher)

	client, err := s.Create(context.Background(), &models.Client{
		OrganizationID: "org-1",
		FullName:       "Dana Reyes",
	})
	require.NoError(t, err)

	err = s.EmitEvent(context.Background(), "org-1", client.ID, events.AppointmentBookedEvent, map[string]any{"service": "facial"})
	require.NoError(t, err)
	require.Len(t, publisher.published, 2)
	assert.Equal(t, events.AppointmentBookedEvent, publisher.published[1].GetType())

	err = s.EmitEvent(context.Background(), "org-1", client.ID, "comet.sighted", nil)
	assert.ErrorIs(t, err, ErrUnknownEventType)
}
