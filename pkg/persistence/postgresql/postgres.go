// Package postgresql provides the PostgreSQL persistence backend.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	"github.com/glowdesk/glowdesk/pkg/persistence"
	"github.com/glowdesk/glowdesk/pkg/persistence/sqlbase"
)

// Persistence implements persistence.Persistence for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger

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

// NewPersistence opens the database, runs migrations and wires repositories.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	p := &Persistence{db: database, logger: logger}
	p.organizations = &OrganizationRepository{db: database}
	p.clients = &ClientRepository{db: database}
	p.directories = &DirectoryRepository{db: database}
	p.workflows = &WorkflowRepository{db: database}
	p.executions = &ExecutionRepository{db: database}
	p.executionLogs = &ExecutionLogRepository{db: database, logger: logger}
	p.bulkMessages = &BulkMessageRepository{db: database}
	p.recipients = &RecipientRepository{db: database}
	p.scheduledActions = &ScheduledActionRepository{db: database}
	p.socialPosts = &SocialPostRepository{db: database}

	return p, nil
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

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}
