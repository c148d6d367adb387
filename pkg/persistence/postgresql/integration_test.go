package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/persistence/postgresql"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	// Children first, parents last.
	tables := []string{
		"execution_logs", "workflow_executions", "message_recipients",
		"bulk_messages", "scheduled_actions", "social_posts", "workflows",
		"workflow_directories", "clients", "organizations", "schema_migrations",
	}
	for _, table := range tables {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context) {
	t.Helper()

	if os.Getenv("GLOWDESK_INTEGRATION_TESTS") == "" {
		t.Skip("set GLOWDESK_INTEGRATION_TESTS to run PostgreSQL integration tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("glowdesk_test"),
			postgres.WithUsername("glowdesk"),
			postgres.WithPassword("glowdesk"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx
}

func TestPostgresIntegration_EnrollmentLifecycle(t *testing.T) {
	p, ctx := setupTestDB(t)

	org := &models.Organization{
		ID: uuid.New().String(), Name: "Glow Clinic",
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, p.Organizations().Save(ctx, org))

	client := &models.Client{
		ID: uuid.New().String(), OrganizationID: org.ID, FullName: "Ana Souza",
		Tags: []string{}, PortalStatus: models.PortalStatusActive,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, p.Clients().Save(ctx, client))

	workflow := &models.Workflow{
		ID: uuid.New().String(), OrganizationID: org.ID, Name: "Welcome Series",
		Trigger: models.TriggerClientCreated, Enabled: true,
		Blocks: []*models.WorkflowBlock{
			{ID: "step-1", Type: "send_sms", Config: map[string]any{"body": "Welcome!"}},
		},
		Connections: []*models.Connection{},
		CreatedAt:   time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, p.Workflows().Save(ctx, workflow))

	matched, err := p.Workflows().ListByTrigger(ctx, org.ID, models.TriggerClientCreated)
	require.NoError(t, err)
	require.Len(t, matched, 1)

	execution := &models.WorkflowExecution{
		ID: uuid.New().String(), OrganizationID: org.ID, WorkflowID: workflow.ID,
		ClientID: client.ID, Status: models.ExecutionStatusRunning,
		ActionsCompleted: []int{}, StartedAt: time.Now().UTC(),
		TriggerData: map[string]any{"service": "facial"},
	}
	require.NoError(t, p.Executions().Save(ctx, execution))

	execution.ActionsCompleted = append(execution.ActionsCompleted, 0)
	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusCompleted
	execution.CompletedAt = &now
	require.NoError(t, p.Executions().Save(ctx, execution))

	fetched, err := p.Executions().GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusCompleted, fetched.Status)
	assert.Equal(t, []int{0}, fetched.ActionsCompleted)
	assert.Equal(t, map[string]any{"service": "facial"}, fetched.TriggerData)
	require.NotNil(t, fetched.CompletedAt)
	assert.False(t, fetched.CompletedAt.Before(fetched.StartedAt))
}

func TestPostgresIntegration_RecipientCounts(t *testing.T) {
	p, ctx := setupTestDB(t)

	org := &models.Organization{
		ID: uuid.New().String(), Name: "Glow Clinic",
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, p.Organizations().Save(ctx, org))

	message := &models.BulkMessage{
		ID: uuid.New().String(), OrganizationID: org.ID,
		Channel: models.MessageChannelSMS, Body: "Spring promo",
		Status:    models.BulkMessageStatusSending,
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, p.BulkMessages().Save(ctx, message))

	statuses := []models.RecipientStatus{
		models.RecipientStatusSent, models.RecipientStatusSent, models.RecipientStatusFailed,
	}
	for _, status := range statuses {
		client := &models.Client{
			ID: uuid.New().String(), OrganizationID: org.ID, FullName: "Client",
			Tags: []string{}, CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
		}
		require.NoError(t, p.Clients().Save(ctx, client))

		require.NoError(t, p.Recipients().Save(ctx, &models.MessageRecipient{
			ID: uuid.New().String(), BulkMessageID: message.ID,
			ClientID: client.ID, Status: status, CreatedAt: time.Now().UTC(),
		}))
	}

	sent, err := p.Recipients().CountByStatus(ctx, message.ID, models.RecipientStatusSent)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	failed, err := p.Recipients().CountByStatus(ctx, message.ID, models.RecipientStatusFailed)
	require.NoError(t, err)
	assert.Equal(t, 1, failed)
}

func TestPostgresIntegration_DueScheduledActions(t *testing.T) {
	p, ctx := setupTestDB(t)

	org := &models.Organization{
		ID: uuid.New().String(), Name: "Glow Clinic",
		CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, p.Organizations().Save(ctx, org))

	now := time.Now().UTC()

	due := models.NewScheduledAction(org.ID, models.ActionPublishPost, map[string]any{"post_id": "p1"}, now.Add(-time.Minute), 3)
	due.ID = uuid.New().String()
	require.NoError(t, p.ScheduledActions().Save(ctx, due))

	future := models.NewScheduledAction(org.ID, models.ActionPublishPost, nil, now.Add(time.Hour), 3)
	future.ID = uuid.New().String()
	require.NoError(t, p.ScheduledActions().Save(ctx, future))

	actions, err := p.ScheduledActions().ListDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, due.ID, actions[0].ID)
	assert.Equal(t, "p1", actions[0].Args["post_id"])

	// An attempting action with an old updated_at is surfaced for reclaim.
	stuck := models.NewScheduledAction(org.ID, models.ActionPublishPost, nil, now.Add(-time.Hour), 3)
	stuck.ID = uuid.New().String()
	stuck.BeginAttempt(now.Add(-30 * time.Minute))
	require.NoError(t, p.ScheduledActions().Save(ctx, stuck))

	stale, err := p.ScheduledActions().ListStaleAttempts(ctx, now.Add(-10*time.Minute))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, stuck.ID, stale[0].ID)
}
