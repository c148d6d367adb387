package tag

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowdesk/glowdesk/pkg/eventbus"
	"github.com/glowdesk/glowdesk/pkg/events"
	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/persistence/file"
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

func seedClient(t *testing.T, p *file.Persistence, tags []string) *models.Client {
	t.Helper()

	client := &models.Client{
		ID:             "client-1",
		OrganizationID: "org-1",
		FullName:       "Dana Reyes",
		Tags:           tags,
	}
	require.NoError(t, p.Clients().Save(context.Background(), client))

	return client
}

func TestAddTag(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	publisher := &capturePublisher{}
	client := seedClient(t, p, []string{"vip"})

	factory := NewAddFactory(p.Clients(), publisher)
	assert.Equal(t, "add_tag", factory.ID())

	action, err := factory.Create(map[string]any{"tag": "aftercare"})
	require.NoError(t, err)

	execCtx := models.ExecutionContext{OrganizationID: "org-1", Client: client}

	result, err := action.Execute(context.Background(), execCtx, testLogger())
	require.NoError(t, err)
	assert.Equal(t, true, result["changed"])

	stored, err := p.Clients().GetByID(context.Background(), "org-1", "client-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"vip", "aftercare"}, stored.Tags)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, events.TagAddedEvent, publisher.published[0].GetType())
}

func TestAddTag_AlreadyPresent(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	publisher := &capturePublisher{}
	client := seedClient(t, p, []string{"vip"})

	action, err := NewAddFactory(p.Clients(), publisher).Create(map[string]any{"tag": "vip"})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), models.ExecutionContext{OrganizationID: "org-1", Client: client}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, false, result["changed"])
	assert.Empty(t, publisher.published)
}

func TestRemoveTag(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	client := seedClient(t, p, []string{"vip", "aftercare"})

	factory := NewRemoveFactory(p.Clients())
	assert.Equal(t, "remove_tag", factory.ID())

	action, err := factory.Create(map[string]any{"tag": "vip"})
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), models.ExecutionContext{OrganizationID: "org-1", Client: client}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, true, result["changed"])

	stored, err := p.Clients().GetByID(context.Background(), "org-1", "client-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"aftercare"}, stored.Tags)
}

func TestFactory_Create_EmptyTag(t *testing.T) {
	p := file.NewPersistence(t.TempDir())

	_, err := NewRemoveFactory(p.Clients()).Create(map[string]any{})
	assert.Error(t, err)
}
