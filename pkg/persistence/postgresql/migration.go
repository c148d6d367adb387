package postgresql

// migrations returns the versioned schema migrations for the PostgreSQL backend.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS organizations (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				limits JSONB NOT NULL DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS clients (
				id UUID PRIMARY KEY,
				organization_id UUID NOT NULL REFERENCES organizations(id),
				full_name VARCHAR(255) NOT NULL,
				phones JSONB NOT NULL DEFAULT '[]',
				email VARCHAR(255),
				tags JSONB NOT NULL DEFAULT '[]',
				portal_status VARCHAR(50) NOT NULL DEFAULT 'not_invited',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_clients_org ON clients(organization_id);

			CREATE TABLE IF NOT EXISTS workflow_directories (
				id UUID PRIMARY KEY,
				organization_id UUID NOT NULL REFERENCES organizations(id),
				name VARCHAR(255) NOT NULL,
				parent_id UUID REFERENCES workflow_directories(id),
				color VARCHAR(50),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_directories_org ON workflow_directories(organization_id);

			CREATE TABLE IF NOT EXISTS workflows (
				id UUID PRIMARY KEY,
				organization_id UUID NOT NULL REFERENCES organizations(id),
				name VARCHAR(255) NOT NULL,
				trigger_type VARCHAR(100) NOT NULL,
				trigger_config JSONB NOT NULL DEFAULT '{}',
				enabled BOOLEAN NOT NULL DEFAULT FALSE,
				blocks JSONB NOT NULL DEFAULT '[]',
				connections JSONB NOT NULL DEFAULT '[]',
				directory_id UUID REFERENCES workflow_directories(id),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_workflows_org_trigger ON workflows(organization_id, trigger_type) WHERE enabled;
			CREATE INDEX IF NOT EXISTS idx_workflows_directory ON workflows(directory_id);

			CREATE TABLE IF NOT EXISTS workflow_executions (
				id UUID PRIMARY KEY,
				organization_id UUID NOT NULL REFERENCES organizations(id),
				workflow_id UUID NOT NULL REFERENCES workflows(id),
				client_id UUID NOT NULL REFERENCES clients(id),
				status VARCHAR(50) NOT NULL DEFAULT 'running',
				actions_completed JSONB NOT NULL DEFAULT '[]',
				trigger_data JSONB,
				error_message TEXT,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				completed_at TIMESTAMP WITH TIME ZONE
			);
			CREATE INDEX IF NOT EXISTS idx_executions_workflow ON workflow_executions(workflow_id);
			CREATE INDEX IF NOT EXISTS idx_executions_client ON workflow_executions(client_id);

			CREATE TABLE IF NOT EXISTS execution_logs (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL,
				execution_id UUID NOT NULL REFERENCES workflow_executions(id),
				client_id UUID NOT NULL,
				step_id VARCHAR(255) NOT NULL,
				action VARCHAR(100) NOT NULL,
				status VARCHAR(50) NOT NULL,
				message TEXT,
				logged_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_execution_logs_execution ON execution_logs(execution_id);

			CREATE TABLE IF NOT EXISTS bulk_messages (
				id UUID PRIMARY KEY,
				organization_id UUID NOT NULL REFERENCES organizations(id),
				channel VARCHAR(10) NOT NULL,
				subject VARCHAR(255),
				body TEXT NOT NULL,
				status VARCHAR(50) NOT NULL DEFAULT 'draft',
				total_recipients INTEGER NOT NULL DEFAULT 0,
				sent_count INTEGER NOT NULL DEFAULT 0,
				failed_count INTEGER NOT NULL DEFAULT 0,
				scheduled_for TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_bulk_messages_org ON bulk_messages(organization_id);

			CREATE TABLE IF NOT EXISTS message_recipients (
				id UUID PRIMARY KEY,
				bulk_message_id UUID NOT NULL REFERENCES bulk_messages(id),
				client_id UUID NOT NULL REFERENCES clients(id),
				status VARCHAR(50) NOT NULL DEFAULT 'pending',
				external_id VARCHAR(255),
				error_message TEXT,
				sent_at TIMESTAMP WITH TIME ZONE,
				delivered_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_recipients_bulk_message ON message_recipients(bulk_message_id, status);

			CREATE TABLE IF NOT EXISTS scheduled_actions (
				id UUID PRIMARY KEY,
				organization_id UUID NOT NULL REFERENCES organizations(id),
				action VARCHAR(100) NOT NULL,
				args JSONB NOT NULL DEFAULT '{}',
				scheduled_for TIMESTAMP WITH TIME ZONE NOT NULL,
				status VARCHAR(50) NOT NULL DEFAULT 'pending',
				attempts INTEGER NOT NULL DEFAULT 0,
				max_attempts INTEGER NOT NULL DEFAULT 3,
				next_attempt_at TIMESTAMP WITH TIME ZONE NOT NULL,
				last_error TEXT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_scheduled_actions_due ON scheduled_actions(next_attempt_at) WHERE status IN ('pending', 'retrying');

			CREATE TABLE IF NOT EXISTS social_posts (
				id UUID PRIMARY KEY,
				organization_id UUID NOT NULL REFERENCES organizations(id),
				platforms JSONB NOT NULL DEFAULT '[]',
				content TEXT NOT NULL,
				media_urls JSONB NOT NULL DEFAULT '[]',
				status VARCHAR(50) NOT NULL DEFAULT 'draft',
				scheduled_for TIMESTAMP WITH TIME ZONE,
				published_at TIMESTAMP WITH TIME ZONE,
				error_message TEXT,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_social_posts_org ON social_posts(organization_id);
		`,
	}
}
