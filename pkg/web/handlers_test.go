package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowdesk/glowdesk/pkg/eventbus"
	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/notify"
	"github.com/glowdesk/glowdesk/pkg/persistence/file"
	"github.com/glowdesk/glowdesk/pkg/publisher"
	"github.com/glowdesk/glowdesk/pkg/registry"
	"github.com/glowdesk/glowdesk/pkg/services"
	"github.com/glowdesk/glowdesk/pkg/web"
)

const testOrgID = "org-1"

type nopPublisher struct{}

func (*nopPublisher) Publish(_ context.Context, _ string, _ eventbus.Event) error {
	return nil
}

type staticPlatforms struct{}

func (*staticPlatforms) PublishAll(_ context.Context, post *models.SocialPost) (map[string]string, error) {
	ids := make(map[string]string, len(post.Platforms))
	for _, p := range post.Platforms {
		ids[p] = p + "-ext"
	}

	return ids, nil
}

var _ publisher.Publisher = (*staticPlatforms)(nil)

func setupTestApp(t *testing.T) (*fiber.App, *file.Persistence) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	persistence := file.NewPersistence(t.TempDir())
	sender := notify.NewMemorySender(logger)
	bus := &nopPublisher{}

	registryInstance := registry.NewRegistry(logger)
	registry.RegisterDefaultSteps(registryInstance, sender, persistence.Clients(), bus)

	handlers := web.NewAPIHandlers(
		services.NewOrganization(persistence),
		services.NewClient(persistence, bus),
		services.NewDirectory(persistence),
		services.NewWorkflow(persistence, registryInstance),
		services.NewEnrollment(persistence),
		services.NewMessaging(persistence, bus),
		services.NewSocial(persistence, &staticPlatforms{}, bus),
		validator.New(validator.WithRequiredStructEnabled()),
		registryInstance,
	)

	app := fiber.New()
	web.RegisterRoutes(app, handlers)

	return app, persistence
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader

	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(web.OrganizationHeader, testOrgID)

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, out))
}

func seedClient(t *testing.T, p *file.Persistence, id, name string) {
	t.Helper()

	client := &models.Client{
		ID:             id,
		OrganizationID: testOrgID,
		FullName:       name,
		Phones:         []string{"+15550100"},
		Email:          "client@example.com",
		Tags:           []string{},
	}
	require.NoError(t, p.Clients().Save(context.Background(), client))
}

func TestTenantMiddleware_RequiresHeader(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/clients", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_CreateClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
		validateResult func(t *testing.T, resp *http.Response)
	}{
		{
			name: "successful creation",
			requestBody: web.CreateClientRequest{
				FullName: "Dana Reyes",
				Phones:   []string{"+15550100"},
				Email:    "dana@example.com",
				Tags:     []string{"vip"},
			},
			expectedStatus: http.StatusCreated,
			validateResult: func(t *testing.T, resp *http.Response) {
				t.Helper()

				var client models.Client
				decodeBody(t, resp, &client)
				assert.NotEmpty(t, client.ID)
				assert.Equal(t, testOrgID, client.OrganizationID)
				assert.Equal(t, "Dana Reyes", client.FullName)
				assert.Equal(t, models.PortalStatusNotInvited, client.PortalStatus)
			},
		},
		{
			name:           "missing full name",
			requestBody:    web.CreateClientRequest{Email: "dana@example.com"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "invalid email",
			requestBody: web.CreateClientRequest{
				FullName: "Dana Reyes",
				Email:    "not-an-email",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid json",
			requestBody:    "not json at all",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, _ := setupTestApp(t)

			resp := doRequest(t, app, http.MethodPost, "/clients", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateResult != nil {
				tt.validateResult(t, resp)
			}
		})
	}
}

func TestAPIHandlers_ClientTags(t *testing.T) {
	t.Parallel()

	app, p := setupTestApp(t)
	seedClient(t, p, "client-1", "Dana Reyes")

	resp := doRequest(t, app, http.MethodPost, "/clients/client-1/tags", web.TagRequest{Tag: "vip"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tagged models.Client
	decodeBody(t, resp, &tagged)
	assert.Contains(t, tagged.Tags, "vip")

	resp = doRequest(t, app, http.MethodDelete, "/clients/client-1/tags/vip", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var untagged models.Client
	decodeBody(t, resp, &untagged)
	assert.NotContains(t, untagged.Tags, "vip")
}

func TestAPIHandlers_ReportEvent(t *testing.T) {
	t.Parallel()

	app, p := setupTestApp(t)
	seedClient(t, p, "client-1", "Dana Reyes")

	resp := doRequest(t, app, http.MethodPost, "/events", web.EventRequest{
		ClientID: "client-1",
		Type:     "appointment.completed",
		Data:     map[string]any{"service": "facial"},
	})
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPost, "/events", web.EventRequest{
		ClientID: "client-1",
		Type:     "comet.sighted",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_Directories(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp := doRequest(t, app, http.MethodPost, "/directories", web.CreateDirectoryRequest{Name: "Retention"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var parent models.WorkflowDirectory
	decodeBody(t, resp, &parent)

	resp = doRequest(t, app, http.MethodPost, "/directories", web.CreateDirectoryRequest{
		Name:     "Lapsed clients",
		ParentID: &parent.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var child models.WorkflowDirectory
	decodeBody(t, resp, &child)

	// Moving a directory under its own descendant is a conflict.
	resp = doRequest(t, app, http.MethodPatch, "/directories/"+parent.ID, web.UpdateDirectoryRequest{
		Name:     "Retention",
		ParentID: &child.ID,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/directories", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tree []*models.DirectoryNode
	decodeBody(t, resp, &tree)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "Lapsed clients", tree[0].Children[0].Name)
}

func TestAPIHandlers_CreateWorkflow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    web.CreateWorkflowRequest
		expectedStatus int
	}{
		{
			name: "successful creation",
			requestBody: web.CreateWorkflowRequest{
				Name:    "Welcome series",
				Trigger: models.TriggerClientCreated,
				Enabled: true,
				Blocks: []*models.WorkflowBlock{
					{ID: "b1", Type: "send_sms", Config: map[string]any{"message": "Welcome!"}},
				},
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "unknown trigger",
			requestBody: web.CreateWorkflowRequest{
				Name:    "Welcome series",
				Trigger: "moon.phase",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown step type",
			requestBody: web.CreateWorkflowRequest{
				Name:    "Welcome series",
				Trigger: models.TriggerClientCreated,
				Blocks: []*models.WorkflowBlock{
					{ID: "b1", Type: "levitate", Config: map[string]any{}},
				},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "invalid step config",
			requestBody: web.CreateWorkflowRequest{
				Name:    "Welcome series",
				Trigger: models.TriggerClientCreated,
				Blocks: []*models.WorkflowBlock{
					{ID: "b1", Type: "send_sms", Config: map[string]any{}},
				},
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, _ := setupTestApp(t)

			resp := doRequest(t, app, http.MethodPost, "/workflows", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestAPIHandlers_GetStepTypes(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp := doRequest(t, app, http.MethodGet, "/workflows/steps", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Steps []string `json:"steps"`
	}
	decodeBody(t, resp, &payload)
	assert.Contains(t, payload.Steps, "send_sms")
	assert.Contains(t, payload.Steps, "send_email")
	assert.Contains(t, payload.Steps, "wait")
}

func TestAPIHandlers_Executions(t *testing.T) {
	t.Parallel()

	app, p := setupTestApp(t)
	seedClient(t, p, "client-1", "Dana Reyes")

	execution := &models.WorkflowExecution{
		ID:               "exec-1",
		OrganizationID:   testOrgID,
		WorkflowID:       "wf-1",
		ClientID:         "client-1",
		Status:           models.ExecutionStatusRunning,
		ActionsCompleted: []int{},
	}
	require.NoError(t, p.Executions().Save(context.Background(), execution))

	index := 0
	resp := doRequest(t, app, http.MethodPost, "/executions/exec-1/complete-action", web.CompleteActionRequest{Index: &index})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.WorkflowExecution
	decodeBody(t, resp, &updated)
	assert.Equal(t, []int{0}, updated.ActionsCompleted)

	resp = doRequest(t, app, http.MethodPatch, "/executions/exec-1/status", web.UpdateExecutionStatusRequest{
		Status: models.ExecutionStatusCompleted,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// A finished execution cannot change status again.
	resp = doRequest(t, app, http.MethodPatch, "/executions/exec-1/status", web.UpdateExecutionStatusRequest{
		Status: models.ExecutionStatusCancelled,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/clients/client-1/executions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var executions []*models.WorkflowExecution
	decodeBody(t, resp, &executions)
	assert.Len(t, executions, 1)
}

func TestAPIHandlers_ExecutionTenantBoundary(t *testing.T) {
	t.Parallel()

	app, p := setupTestApp(t)

	execution := &models.WorkflowExecution{
		ID:               "exec-other",
		OrganizationID:   "org-2",
		WorkflowID:       "wf-1",
		ClientID:         "client-9",
		Status:           models.ExecutionStatusRunning,
		ActionsCompleted: []int{},
	}
	require.NoError(t, p.Executions().Save(context.Background(), execution))

	resp := doRequest(t, app, http.MethodGet, "/executions/exec-other", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_BulkMessages(t *testing.T) {
	t.Parallel()

	app, p := setupTestApp(t)
	seedClient(t, p, "client-1", "Dana Reyes")

	resp := doRequest(t, app, http.MethodPost, "/bulk-messages", web.CreateBulkMessageRequest{
		Channel: models.MessageChannelSMS,
		Body:    "Spring promo!",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var message models.BulkMessage
	decodeBody(t, resp, &message)
	assert.Equal(t, models.BulkMessageStatusDraft, message.Status)

	resp = doRequest(t, app, http.MethodPost, "/bulk-messages/"+message.ID+"/send", web.SendBulkMessageRequest{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sending models.BulkMessage
	decodeBody(t, resp, &sending)
	assert.Equal(t, models.BulkMessageStatusSending, sending.Status)
	assert.Equal(t, 1, sending.TotalRecipients)

	// Sending twice is a conflict.
	resp = doRequest(t, app, http.MethodPost, "/bulk-messages/"+message.ID+"/send", web.SendBulkMessageRequest{})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/bulk-messages/"+message.ID+"/recipients", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var recipients []*models.MessageRecipient
	decodeBody(t, resp, &recipients)
	require.Len(t, recipients, 1)

	resp = doRequest(t, app, http.MethodPatch, "/bulk-messages/"+message.ID+"/recipients/"+recipients[0].ID, web.UpdateRecipientStatusRequest{
		Status:     models.RecipientStatusSent,
		ExternalID: "prov-42",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.MessageRecipient
	decodeBody(t, resp, &updated)
	assert.Equal(t, models.RecipientStatusSent, updated.Status)
	assert.Equal(t, "prov-42", updated.ExternalID)

	resp = doRequest(t, app, http.MethodGet, "/bulk-messages/"+message.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var completed models.BulkMessage
	decodeBody(t, resp, &completed)
	assert.Equal(t, models.BulkMessageStatusCompleted, completed.Status)
	assert.Equal(t, 1, completed.SentCount)
}

func TestAPIHandlers_SocialPosts(t *testing.T) {
	t.Parallel()

	app, p := setupTestApp(t)

	resp := doRequest(t, app, http.MethodPost, "/social-posts", web.CreateSocialPostRequest{
		Platforms: []string{"instagram", "facebook"},
		Content:   "Before and after",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var post models.SocialPost
	decodeBody(t, resp, &post)
	assert.Equal(t, models.PostStatusDraft, post.Status)

	// Publishing queues a publish_post action for the dispatcher.
	resp = doRequest(t, app, http.MethodPost, "/social-posts/"+post.ID+"/publish", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	actions, err := p.ScheduledActions().ListByOrganization(context.Background(), testOrgID)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, models.ActionPublishPost, actions[0].Action)

	// A published post cannot be queued again.
	published, err := p.SocialPosts().GetByID(context.Background(), testOrgID, post.ID)
	require.NoError(t, err)
	published.Status = models.PostStatusPublished
	require.NoError(t, p.SocialPosts().Save(context.Background(), published))

	resp = doRequest(t, app, http.MethodPost, "/social-posts/"+post.ID+"/publish", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPIHandlers_Organizations(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp := doRequest(t, app, http.MethodPost, "/organizations", web.CreateOrganizationRequest{
		Name: "Glow Studio",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var org models.Organization
	decodeBody(t, resp, &org)
	assert.NotEmpty(t, org.ID)

	resp = doRequest(t, app, http.MethodGet, "/organizations/"+org.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, app, http.MethodGet, "/organizations/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
