package sendsms

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/notify"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestAction_Execute(t *testing.T) {
	sender := notify.NewMemorySender(testLogger())
	factory := NewFactory(sender)
	assert.Equal(t, "send_sms", factory.ID())

	action, err := factory.Create(map[string]any{
		"message": "Hi {{.client.full_name}}, see you tomorrow!",
	})
	require.NoError(t, err)

	execCtx := models.ExecutionContext{
		ID:             "exec-1",
		OrganizationID: "org-1",
		WorkflowID:     "wf-1",
		Client: &models.Client{
			ID:             "client-1",
			OrganizationID: "org-1",
			FullName:       "Dana Reyes",
			Phones:         []string{"+15550100"},
		},
	}

	result, err := action.Execute(context.Background(), execCtx, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "+15550100", result["to"])
	assert.Equal(t, "Hi Dana Reyes, see you tomorrow!", result["body"])
	assert.NotEmpty(t, result["message_id"])

	sent := sender.SMS()
	require.Len(t, sent, 1)
	assert.Equal(t, "+15550100", sent[0].To)
}

func TestAction_Execute_NoPhone(t *testing.T) {
	sender := notify.NewMemorySender(testLogger())
	action, err := NewFactory(sender).Create(map[string]any{"message": "hello"})
	require.NoError(t, err)

	execCtx := models.ExecutionContext{
		OrganizationID: "org-1",
		Client: &models.Client{
			ID:             "client-1",
			OrganizationID: "org-1",
			FullName:       "Dana Reyes",
		},
	}

	_, err = action.Execute(context.Background(), execCtx, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no phone number")
	assert.Empty(t, sender.SMS())
}

func TestAction_Execute_NoClient(t *testing.T) {
	action, err := NewFactory(notify.NewMemorySender(testLogger())).Create(map[string]any{"message": "hello"})
	require.NoError(t, err)

	_, err = action.Execute(context.Background(), models.ExecutionContext{}, testLogger())
	assert.Error(t, err)
}
