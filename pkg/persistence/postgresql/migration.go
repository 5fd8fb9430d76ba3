package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id UUID PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status VARCHAR(50) NOT NULL,
				version INTEGER NOT NULL DEFAULT 1,
				nodes JSONB NOT NULL DEFAULT '[]',
				edges JSONB NOT NULL DEFAULT '[]',
				variables JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				published_at TIMESTAMP WITH TIME ZONE,
				archived_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_tenant_id ON workflows(tenant_id);
			CREATE INDEX idx_workflows_status ON workflows(status);
			CREATE INDEX idx_workflows_created_at ON workflows(created_at);

			CREATE TABLE workflow_runs (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL REFERENCES workflows(id),
				tenant_id VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL,
				trigger_data JSONB,
				context JSONB,
				result JSONB,
				error TEXT NOT NULL DEFAULT '',
				resume_node_id VARCHAR(255) NOT NULL DEFAULT '',
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflow_runs_workflow_id ON workflow_runs(workflow_id);
			CREATE INDEX idx_workflow_runs_tenant_id ON workflow_runs(tenant_id);
			CREATE INDEX idx_workflow_runs_status ON workflow_runs(status);
			CREATE INDEX idx_workflow_runs_started_at ON workflow_runs(started_at);

			CREATE TABLE node_execution_logs (
				id UUID PRIMARY KEY,
				run_id UUID NOT NULL REFERENCES workflow_runs(id) ON DELETE CASCADE,
				node_id VARCHAR(255) NOT NULL,
				node_type VARCHAR(50) NOT NULL,
				status VARCHAR(50) NOT NULL,
				input_snapshot JSONB,
				output_snapshot JSONB,
				error_message TEXT NOT NULL DEFAULT '',
				duration_ms BIGINT NOT NULL DEFAULT 0,
				tokens_used INTEGER NOT NULL DEFAULT 0,
				cost_units DOUBLE PRECISION NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_node_execution_logs_run_id ON node_execution_logs(run_id);
			CREATE INDEX idx_node_execution_logs_created_at ON node_execution_logs(created_at);

			CREATE TABLE campaigns (
				id UUID PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				name VARCHAR(255) NOT NULL,
				status VARCHAR(50) NOT NULL,
				channel_id VARCHAR(255) NOT NULL,
				recipients JSONB NOT NULL DEFAULT '[]',
				messages JSONB NOT NULL DEFAULT '[]',
				delay_seconds INTEGER NOT NULL DEFAULT 0,
				simulate_typing BOOLEAN NOT NULL DEFAULT FALSE,
				simulate_recording BOOLEAN NOT NULL DEFAULT FALSE,
				cron_expression VARCHAR(255) NOT NULL DEFAULT '',
				stats JSONB NOT NULL DEFAULT '{}',
				due_at TIMESTAMP WITH TIME ZONE NOT NULL,
				scheduled_at TIMESTAMP WITH TIME ZONE NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE,
				completed_at TIMESTAMP WITH TIME ZONE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_campaigns_tenant_id ON campaigns(tenant_id);
			CREATE INDEX idx_campaigns_status ON campaigns(status);
			CREATE INDEX idx_campaigns_due_at ON campaigns(due_at);

			CREATE TABLE reminders (
				id UUID PRIMARY KEY,
				tenant_id VARCHAR(255) NOT NULL,
				kind VARCHAR(50) NOT NULL,
				status VARCHAR(50) NOT NULL,
				contact_id VARCHAR(255) NOT NULL DEFAULT '',
				phone VARCHAR(255) NOT NULL,
				channel_id VARCHAR(255) NOT NULL,
				content TEXT NOT NULL,
				sent BOOLEAN NOT NULL DEFAULT FALSE,
				sent_at TIMESTAMP WITH TIME ZONE,
				error TEXT NOT NULL DEFAULT '',
				due_at TIMESTAMP WITH TIME ZONE NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_reminders_tenant_id ON reminders(tenant_id);
			CREATE INDEX idx_reminders_status ON reminders(status);
			CREATE INDEX idx_reminders_due_at ON reminders(due_at);
		`,
	}
}
