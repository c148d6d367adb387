// Package persistence provides the data storage abstraction for the
// automation core. Two interchangeable backends implement it: file (JSON
// documents, dev and tests) and postgresql.
package persistence

import (
	"context"
	"time"

	"github.com/glowdesk/glowdesk/pkg/models"
)

// Persistence exposes one repository per aggregate plus connection lifecycle.
type Persistence interface {
	Organizations() OrganizationRepository
	Clients() ClientRepository
	Directories() DirectoryRepository
	Workflows() WorkflowRepository
	Executions() ExecutionRepository
	ExecutionLogs() ExecutionLogRepository
	BulkMessages() BulkMessageRepository
	Recipients() RecipientRepository
	ScheduledActions() ScheduledActionRepository
	SocialPosts() SocialPostRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

type OrganizationRepository interface {
	Save(ctx context.Context, org *models.Organization) error
	GetByID(ctx context.Context, id string) (*models.Organization, error)
	List(ctx context.Context) ([]*models.Organization, error)
	Delete(ctx context.Context, id string) error
}

type ClientRepository interface {
	Save(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, orgID, id string) (*models.Client, error)
	ListByOrganization(ctx context.Context, orgID string) ([]*models.Client, error)
	Delete(ctx context.Context, orgID, id string) error
}

type DirectoryRepository interface {
	Save(ctx context.Context, directory *models.WorkflowDirectory) error
	GetByID(ctx context.Context, orgID, id string) (*models.WorkflowDirectory, error)
	ListByOrganization(ctx context.Context, orgID string) ([]*models.WorkflowDirectory, error)
	Delete(ctx context.Context, orgID, id string) error
}

type WorkflowRepository interface {
	Save(ctx context.Context, workflow *models.Workflow) error
	GetByID(ctx context.Context, orgID, id string) (*models.Workflow, error)
	ListByOrganization(ctx context.Context, orgID string) ([]*models.Workflow, error)
	// ListByTrigger returns enabled workflows of the organization with the
	// given trigger type.
	ListByTrigger(ctx context.Context, orgID string, trigger models.TriggerType) ([]*models.Workflow, error)
	// ListByDirectory returns workflows filed under the given directory.
	ListByDirectory(ctx context.Context, orgID, directoryID string) ([]*models.Workflow, error)
	Delete(ctx context.Context, orgID, id string) error
}

type ExecutionRepository interface {
	Save(ctx context.Context, execution *models.WorkflowExecution) error
	GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error)
	ListByWorkflow(ctx context.Context, orgID, workflowID string) ([]*models.WorkflowExecution, error)
	ListByClient(ctx context.Context, orgID, clientID string) ([]*models.WorkflowExecution, error)
}

type ExecutionLogRepository interface {
	// Append inserts a log row. Logs are append-only; there is no update.
	Append(ctx context.Context, log *models.ExecutionLog) error
	ListByExecution(ctx context.Context, executionID string) ([]*models.ExecutionLog, error)
}

type BulkMessageRepository interface {
	Save(ctx context.Context, message *models.BulkMessage) error
	GetByID(ctx context.Context, orgID, id string) (*models.BulkMessage, error)
	ListByOrganization(ctx context.Context, orgID string) ([]*models.BulkMessage, error)
	Delete(ctx context.Context, orgID, id string) error
}

type RecipientRepository interface {
	Save(ctx context.Context, recipient *models.MessageRecipient) error
	GetByID(ctx context.Context, id string) (*models.MessageRecipient, error)
	ListByBulkMessage(ctx context.Context, bulkMessageID string) ([]*models.MessageRecipient, error)
	// CountByStatus returns the number of recipients of the campaign in the
	// given status. Campaign counters are derived from this, never
	// read-modify-written.
	CountByStatus(ctx context.Context, bulkMessageID string, status models.RecipientStatus) (int, error)
}

type ScheduledActionRepository interface {
	Save(ctx context.Context, action *models.ScheduledAction) error
	GetByID(ctx context.Context, id string) (*models.ScheduledAction, error)
	// ListDue returns pending and retrying actions whose next attempt time
	// has passed, across all organizations.
	ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledAction, error)
	// ListStaleAttempts returns attempting actions last touched at or before
	// cutoff. A dispatcher that crashed mid-run leaves its action in
	// attempting; these are reclaimed instead of stranded.
	ListStaleAttempts(ctx context.Context, cutoff time.Time) ([]*models.ScheduledAction, error)
	ListByOrganization(ctx context.Context, orgID string) ([]*models.ScheduledAction, error)
	Delete(ctx context.Context, id string) error
}

type SocialPostRepository interface {
	Save(ctx context.Context, post *models.SocialPost) error
	GetByID(ctx context.Context, orgID, id string) (*models.SocialPost, error)
	ListByOrganization(ctx context.Context, orgID string) ([]*models.SocialPost, error)
	Delete(ctx context.Context, orgID, id string) error
}
