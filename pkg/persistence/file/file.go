// Package file provides a JSON-document persistence backend. Each record is
// one file under <root>/<collection>/<id>.json. It backs local development
// and unit tests; production deployments use the postgresql backend.
package file

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/glowdesk/glowdesk/pkg/persistence"
)

// Persistence implements persistence.Persistence on the file system.
type Persistence struct {
	root string
	mu   sync.RWMutex

	organizations    *OrganizationRepository
	clients          *ClientRepository
	directories      *DirectoryRepository
	workflows        *WorkflowRepository
	executions       *ExecutionRepository
	executionLogs    *ExecutionLogRepository
	bulkMessages     *BulkMessageRepository
	recipients       *RecipientRepository
	scheduledActions *ScheduledActionRepository
	socialPosts      *SocialPostRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
// A "file://" prefix on the root is accepted and stripped.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	p := &Persistence{root: cleanRoot}
	p.organizations = &OrganizationRepository{p: p}
	p.clients = &ClientRepository{p: p}
	p.directories = &DirectoryRepository{p: p}
	p.workflows = &WorkflowRepository{p: p}
	p.executions = &ExecutionRepository{p: p}
	p.executionLogs = &ExecutionLogRepository{p: p}
	p.bulkMessages = &BulkMessageRepository{p: p}
	p.recipients = &RecipientRepository{p: p}
	p.scheduledActions = &ScheduledActionRepository{p: p}
	p.socialPosts = &SocialPostRepository{p: p}

	return p
}

func (p *Persistence) Organizations() persistence.OrganizationRepository { return p.organizations }

func (p *Persistence) Clients() persistence.ClientRepository { return p.clients }

func (p *Persistence) Directories() persistence.DirectoryRepository { return p.directories }

func (p *Persistence) Workflows() persistence.WorkflowRepository { return p.workflows }

func (p *Persistence) Executions() persistence.ExecutionRepository { return p.executions }

func (p *Persistence) ExecutionLogs() persistence.ExecutionLogRepository { return p.executionLogs }

func (p *Persistence) BulkMessages() persistence.BulkMessageRepository { return p.bulkMessages }

func (p *Persistence) Recipients() persistence.RecipientRepository { return p.recipients }

func (p *Persistence) ScheduledActions() persistence.ScheduledActionRepository {
	return p.scheduledActions
}

func (p *Persistence) SocialPosts() persistence.SocialPostRepository { return p.socialPosts }

// Close performs any necessary cleanup. Nothing to clean up for files.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}
