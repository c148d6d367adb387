package services

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/glowdesk/glowdesk/pkg/eventbus"
	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/notify"
	"github.com/glowdesk/glowdesk/pkg/persistence/file"
	"github.com/glowdesk/glowdesk/pkg/registry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

type capturePublisher struct {
	published []eventbus.Event
}

func (p *capturePublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.published = append(p.published, event)

	return nil
}

func testRegistry(t *testing.T, p *file.Persistence, publisher eventbus.EventPublisher) *registry.Registry {
	t.Helper()

	r := registry.NewRegistry(testLogger())
	registry.RegisterDefaultSteps(r, notify.NewMemorySender(testLogger()), p.Clients(), publisher)

	return r
}

func seedOrg(t *testing.T, p *file.Persistence) *models.Organization {
	t.Helper()

	org := &models.Organization{ID: "org-1", Name: "Glow Aesthetics"}
	require.NoError(t, p.Organizations().Save(context.Background(), org))

	return org
}

func seedTestClient(t *testing.T, p *file.Persistence, id string) *models.Client {
	t.Helper()

	client := &models.Client{
		ID:             id,
		OrganizationID: "org-1",
		FullName:       "Dana Reyes",
		Phones:         []string{"+15550100"},
		Email:          "dana@example.com",
		Tags:           []string{},
	}
	require.NoError(t, p.Clients().Save(context.Background(), client))

	return client
}
