package file

import (
	"context"
	"sort"
	"time"

	"github.com/glowdesk/glowdesk/pkg/models"
	"github.com/glowdesk/glowdesk/pkg/persistence"
)

// Collection directory names.
const (
	colOrganizations    = "organizations"
	colClients          = "clients"
	colDirectories      = "directories"
	colWorkflows        = "workflows"
	colExecutions       = "executions"
	colExecutionLogs    = "execution_logs"
	colBulkMessages     = "bulk_messages"
	colRecipients       = "recipients"
	colScheduledActions = "scheduled_actions"
	colSocialPosts      = "social_posts"
)

type OrganizationRepository struct{ p *Persistence }

func (r *OrganizationRepository) Save(_ context.Context, org *models.Organization) error {
	return writeDoc(r.p, colOrganizations, org.ID, org)
}

func (r *OrganizationRepository) GetByID(_ context.Context, id string) (*models.Organization, error) {
	var org models.Organization

	err := readDoc(r.p, colOrganizations, id, &org, persistence.ErrOrganizationNotFound)
	if err != nil {
		return nil, err
	}

	return &org, nil
}

func (r *OrganizationRepository) List(_ context.Context) ([]*models.Organization, error) {
	return readAll[models.Organization](r.p, colOrganizations)
}

func (r *OrganizationRepository) Delete(_ context.Context, id string) error {
	return deleteDoc(r.p, colOrganizations, id, persistence.ErrOrganizationNotFound)
}

type ClientRepository struct{ p *Persistence }

func (r *ClientRepository) Save(_ context.Context, client *models.Client) error {
	return writeDoc(r.p, colClients, client.ID, client)
}

func (r *ClientRepository) GetByID(_ context.Context, orgID, id string) (*models.Client, error) {
	var client models.Client

	err := readDoc(r.p, colClients, id, &client, persistence.ErrClientNotFound)
	if err != nil {
		return nil, err
	}

	if client.OrganizationID != orgID {
		return nil, persistence.ErrClientNotFound
	}

	return &client, nil
}

func (r *ClientRepository) ListByOrganization(_ context.Context, orgID string) ([]*models.Client, error) {
	all, err := readAll[models.Client](r.p, colClients)
	if err != nil {
		return nil, err
	}

	return filterByOrg(all, orgID, func(c *models.Client) string { return c.OrganizationID }), nil
}

func (r *ClientRepository) Delete(ctx context.Context, orgID, id string) error {
	if _, err := r.GetByID(ctx, orgID, id); err != nil {
		return err
	}

	return deleteDoc(r.p, colClients, id, persistence.ErrClientNotFound)
}

type DirectoryRepository struct{ p *Persistence }

func (r *DirectoryRepository) Save(_ context.Context, directory *models.WorkflowDirectory) error {
	return writeDoc(r.p, colDirectories, directory.ID, directory)
}

func (r *DirectoryRepository) GetByID(_ context.Context, orgID, id string) (*models.WorkflowDirectory, error) {
	var directory models.WorkflowDirectory

	err := readDoc(r.p, colDirectories, id, &directory, persistence.ErrDirectoryNotFound)
	if err != nil {
		return nil, err
	}

	if directory.OrganizationID != orgID {
		return nil, persistence.ErrDirectoryNotFound
	}

	return &directory, nil
}

func (r *DirectoryRepository) ListByOrganization(_ context.Context, orgID string) ([]*models.WorkflowDirectory, error) {
	all, err := readAll[models.WorkflowDirectory](r.p, colDirectories)
	if err != nil {
		return nil, err
	}

	return filterByOrg(all, orgID, func(d *models.WorkflowDirectory) string { return d.OrganizationID }), nil
}

func (r *DirectoryRepository) Delete(ctx context.Context, orgID, id string) error {
	if _, err := r.GetByID(ctx, orgID, id); err != nil {
		return err
	}

	return deleteDoc(r.p, colDirectories, id, persistence.ErrDirectoryNotFound)
}

type WorkflowRepository struct{ p *Persistence }

func (r *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	return writeDoc(r.p, colWorkflows, workflow.ID, workflow)
}

func (r *WorkflowRepository) GetByID(_ context.Context, orgID, id string) (*models.Workflow, error) {
	var workflow models.Workflow

	err := readDoc(r.p, colWorkflows, id, &workflow, persistence.ErrWorkflowNotFound)
	if err != nil {
		return nil, err
	}

	if workflow.OrganizationID != orgID {
		return nil, persistence.ErrWorkflowNotFound
	}

	return &workflow, nil
}

func (r *WorkflowRepository) ListByOrganization(_ context.Context, orgID string) ([]*models.Workflow, error) {
	all, err := readAll[models.Workflow](r.p, colWorkflows)
	if err != nil {
		return nil, err
	}

	return filterByOrg(all, orgID, func(w *models.Workflow) string { return w.OrganizationID }), nil
}

func (r *WorkflowRepository) ListByTrigger(ctx context.Context, orgID string, trigger models.TriggerType) ([]*models.Workflow, error) {
	workflows, err := r.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.Workflow, 0, len(workflows))

	for _, w := range workflows {
		if w.Enabled && w.Trigger == trigger {
			matched = append(matched, w)
		}
	}

	return matched, nil
}

func (r *WorkflowRepository) ListByDirectory(ctx context.Context, orgID, directoryID string) ([]*models.Workflow, error) {
	workflows, err := r.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.Workflow, 0, len(workflows))

	for _, w := range workflows {
		if w.DirectoryID != nil && *w.DirectoryID == directoryID {
			matched = append(matched, w)
		}
	}

	return matched, nil
}

func (r *WorkflowRepository) Delete(ctx context.Context, orgID, id string) error {
	if _, err := r.GetByID(ctx, orgID, id); err != nil {
		return err
	}

	return deleteDoc(r.p, colWorkflows, id, persistence.ErrWorkflowNotFound)
}

type ExecutionRepository struct{ p *Persistence }

func (r *ExecutionRepository) Save(_ context.Context, execution *models.WorkflowExecution) error {
	return writeDoc(r.p, colExecutions, execution.ID, execution)
}

func (r *ExecutionRepository) GetByID(_ context.Context, id string) (*models.WorkflowExecution, error) {
	var execution models.WorkflowExecution

	err := readDoc(r.p, colExecutions, id, &execution, persistence.ErrExecutionNotFound)
	if err != nil {
		return nil, err
	}

	return &execution, nil
}

func (r *ExecutionRepository) ListByWorkflow(_ context.Context, orgID, workflowID string) ([]*models.WorkflowExecution, error) {
	all, err := readAll[models.WorkflowExecution](r.p, colExecutions)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.WorkflowExecution, 0, len(all))

	for _, e := range all {
		if e.OrganizationID == orgID && e.WorkflowID == workflowID {
			matched = append(matched, e)
		}
	}

	return matched, nil
}

func (r *ExecutionRepository) ListByClient(_ context.Context, orgID, clientID string) ([]*models.WorkflowExecution, error) {
	all, err := readAll[models.WorkflowExecution](r.p, colExecutions)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.WorkflowExecution, 0, len(all))

	for _, e := range all {
		if e.OrganizationID == orgID && e.ClientID == clientID {
			matched = append(matched, e)
		}
	}

	return matched, nil
}

type ExecutionLogRepository struct{ p *Persistence }

func (r *ExecutionLogRepository) Append(_ context.Context, log *models.ExecutionLog) error {
	return writeDoc(r.p, colExecutionLogs, log.ID, log)
}

func (r *ExecutionLogRepository) ListByExecution(_ context.Context, executionID string) ([]*models.ExecutionLog, error) {
	all, err := readAll[models.ExecutionLog](r.p, colExecutionLogs)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.ExecutionLog, 0, len(all))

	for _, l := range all {
		if l.ExecutionID == executionID {
			matched = append(matched, l)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].LoggedAt.Before(matched[j].LoggedAt)
	})

	return matched, nil
}

type BulkMessageRepository struct{ p *Persistence }

func (r *BulkMessageRepository) Save(_ context.Context, message *models.BulkMessage) error {
	return writeDoc(r.p, colBulkMessages, message.ID, message)
}

func (r *BulkMessageRepository) GetByID(_ context.Context, orgID, id string) (*models.BulkMessage, error) {
	var message models.BulkMessage

	err := readDoc(r.p, colBulkMessages, id, &message, persistence.ErrBulkMessageNotFound)
	if err != nil {
		return nil, err
	}

	if message.OrganizationID != orgID {
		return nil, persistence.ErrBulkMessageNotFound
	}

	return &message, nil
}

func (r *BulkMessageRepository) ListByOrganization(_ context.Context, orgID string) ([]*models.BulkMessage, error) {
	all, err := readAll[models.BulkMessage](r.p, colBulkMessages)
	if err != nil {
		return nil, err
	}

	return filterByOrg(all, orgID, func(m *models.BulkMessage) string { return m.OrganizationID }), nil
}

func (r *BulkMessageRepository) Delete(ctx context.Context, orgID, id string) error {
	if _, err := r.GetByID(ctx, orgID, id); err != nil {
		return err
	}

	return deleteDoc(r.p, colBulkMessages, id, persistence.ErrBulkMessageNotFound)
}

type RecipientRepository struct{ p *Persistence }

func (r *RecipientRepository) Save(_ context.Context, recipient *models.MessageRecipient) error {
	return writeDoc(r.p, colRecipients, recipient.ID, recipient)
}

func (r *RecipientRepository) GetByID(_ context.Context, id string) (*models.MessageRecipient, error) {
	var recipient models.MessageRecipient

	err := readDoc(r.p, colRecipients, id, &recipient, persistence.ErrRecipientNotFound)
	if err != nil {
		return nil, err
	}

	return &recipient, nil
}

func (r *RecipientRepository) ListByBulkMessage(_ context.Context, bulkMessageID string) ([]*models.MessageRecipient, error) {
	all, err := readAll[models.MessageRecipient](r.p, colRecipients)
	if err != nil {
		return nil, err
	}

	matched := make([]*models.MessageRecipient, 0, len(all))

	for _, rec := range all {
		if rec.BulkMessageID == bulkMessageID {
			matched = append(matched, rec)
		}
	}

	return matched, nil
}

func (r *RecipientRepository) CountByStatus(ctx context.Context, bulkMessageID string, status models.RecipientStatus) (int, error) {
	recipients, err := r.ListByBulkMessage(ctx, bulkMessageID)
	if err != nil {
		return 0, err
	}

	count := 0

	for _, rec := range recipients {
		if rec.Status == status {
			count++
		}
	}

	return count, nil
}

type ScheduledActionRepository struct{ p *Persistence }

func (r *ScheduledActionRepository) Save(_ context.Context, action *models.ScheduledAction) error {
	return writeDoc(r.p, colScheduledActions, action.ID, action)
}

func (r *ScheduledActionRepository) GetByID(_ context.Context, id string) (*models.ScheduledAction, error) {
	var action models.ScheduledAction

	err := readDoc(r.p, colScheduledActions, id, &action, persistence.ErrScheduledActionNotFound)
	if err != nil {
		return nil, err
	}

	return &action, nil
}

func (r *ScheduledActionRepository) ListDue(_ context.Context, now time.Time) ([]*models.ScheduledAction, error) {
	all, err := readAll[models.ScheduledAction](r.p, colScheduledActions)
	if err != nil {
		return nil, err
	}

	due := make([]*models.ScheduledAction, 0, len(all))

	for _, a := range all {
		if a.IsDue(now) {
			due = append(due, a)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].NextAttemptAt.Before(due[j].NextAttemptAt)
	})

	return due, nil
}

func (r *ScheduledActionRepository) ListStaleAttempts(_ context.Context, cutoff time.Time) ([]*models.ScheduledAction, error) {
	all, err := readAll[models.ScheduledAction](r.p, colScheduledActions)
	if err != nil {
		return nil, err
	}

	stale := make([]*models.ScheduledAction, 0, len(all))

	for _, a := range all {
		if a.Status == models.ActionStatusAttempting && !a.UpdatedAt.After(cutoff) {
			stale = append(stale, a)
		}
	}

	sort.Slice(stale, func(i, j int) bool {
		return stale[i].UpdatedAt.Before(stale[j].UpdatedAt)
	})

	return stale, nil
}

func (r *ScheduledActionRepository) ListByOrganization(_ context.Context, orgID string) ([]*models.ScheduledAction, error) {
	all, err := readAll[models.ScheduledAction](r.p, colScheduledActions)
	if err != nil {
		return nil, err
	}

	return filterByOrg(all, orgID, func(a *models.ScheduledAction) string { return a.OrganizationID }), nil
}

func (r *ScheduledActionRepository) Delete(_ context.Context, id string) error {
	return deleteDoc(r.p, colScheduledActions, id, persistence.ErrScheduledActionNotFound)
}

type SocialPostRepository struct{ p *Persistence }

func (r *SocialPostRepository) Save(_ context.Context, post *models.SocialPost) error {
	return writeDoc(r.p, colSocialPosts, post.ID, post)
}

func (r *SocialPostRepository) GetByID(_ context.Context, orgID, id string) (*models.SocialPost, error) {
	var post models.SocialPost

	err := readDoc(r.p, colSocialPosts, id, &post, persistence.ErrSocialPostNotFound)
	if err != nil {
		return nil, err
	}

	if post.OrganizationID != orgID {
		return nil, persistence.ErrSocialPostNotFound
	}

	return &post, nil
}

func (r *SocialPostRepository) ListByOrganization(_ context.Context, orgID string) ([]*models.SocialPost, error) {
	all, err := readAll[models.SocialPost](r.p, colSocialPosts)
	if err != nil {
		return nil, err
	}

	return filterByOrg(all, orgID, func(p *models.SocialPost) string { return p.OrganizationID }), nil
}

func (r *SocialPostRepository) Delete(ctx context.Context, orgID, id string) error {
	if _, err := r.GetByID(ctx, orgID, id); err != nil {
		return err
	}

	return deleteDoc(r.p, colSocialPosts, id, persistence.ErrSocialPostNotFound)
}

func filterByOrg[T any](records []*T, orgID string, owner func(*T) string) []*T {
	matched := make([]*T, 0, len(records))

	for _, record := range records {
		if owner(record) == orgID {
			matched = append(matched, record)
		}
	}

	return matched
}
