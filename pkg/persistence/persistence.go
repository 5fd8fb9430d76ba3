// Package persistence provides the data storage abstraction for workflows,
// runs, node execution logs, campaigns and reminders.
package persistence

import (
	"context"

	"github.com/conduitcrm/conduit/pkg/models"
)

// Persistence is the storage entry point. Repositories are scoped per
// aggregate; each record is mutated by exactly one owning task while active.
type Persistence interface {
	Workflows() WorkflowRepository
	Runs() RunRepository
	NodeLogs() NodeLogRepository
	Campaigns() CampaignRepository
	Reminders() ReminderRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow definitions.
type WorkflowRepository interface {
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	List(ctx context.Context, tenantID string) ([]*models.Workflow, error)
}

// RunRepository stores workflow runs.
type RunRepository interface {
	GetByID(ctx context.Context, id string) (*models.WorkflowRun, error)
	Save(ctx context.Context, run *models.WorkflowRun) error
	ListByWorkflow(ctx context.Context, workflowID string) ([]*models.WorkflowRun, error)
}

// NodeLogRepository stores the append-only node execution ledger.
type NodeLogRepository interface {
	Append(ctx context.Context, log *models.NodeExecutionLog) error
	ListByRun(ctx context.Context, runID string) ([]*models.NodeExecutionLog, error)
}

// CampaignRepository stores scheduled campaigns.
type CampaignRepository interface {
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
	Save(ctx context.Context, campaign *models.Campaign) error
	List(ctx context.Context, tenantID string) ([]*models.Campaign, error)
}

// ReminderRepository stores single-shot reminders.
type ReminderRepository interface {
	GetByID(ctx context.Context, id string) (*models.Reminder, error)
	Save(ctx context.Context, reminder *models.Reminder) error
}
