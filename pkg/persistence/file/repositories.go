package file

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sort"

	"github.com/conduitcrm/conduit/pkg/models"
	"github.com/conduitcrm/conduit/pkg/persistence"
)

type workflowRepository struct {
	p *Persistence
}

func (r *workflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	var workflow models.Workflow

	if err := r.p.read("workflows", id, &workflow); err != nil {
		return nil, notFound(err, persistence.ErrWorkflowNotFound)
	}

	return &workflow, nil
}

func (r *workflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	return r.p.write("workflows", workflow.ID, workflow)
}

func (r *workflowRepository) List(_ context.Context, tenantID string) ([]*models.Workflow, error) {
	workflows := make([]*models.Workflow, 0)

	err := r.p.list("workflows", func(data []byte) error {
		var workflow models.Workflow
		if err := json.Unmarshal(data, &workflow); err != nil {
			return err
		}

		if tenantID == "" || workflow.TenantID == tenantID {
			workflows = append(workflows, &workflow)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].CreatedAt.After(workflows[j].CreatedAt)
	})

	return workflows, nil
}

type runRepository struct {
	p *Persistence
}

func (r *runRepository) GetByID(_ context.Context, id string) (*models.WorkflowRun, error) {
	var run models.WorkflowRun

	if err := r.p.read("runs", id, &run); err != nil {
		return nil, notFound(err, persistence.ErrRunNotFound)
	}

	return &run, nil
}

func (r *runRepository) Save(_ context.Context, run *models.WorkflowRun) error {
	return r.p.write("runs", run.ID, run)
}

func (r *runRepository) ListByWorkflow(_ context.Context, workflowID string) ([]*models.WorkflowRun, error) {
	runs := make([]*models.WorkflowRun, 0)

	err := r.p.list("runs", func(data []byte) error {
		var run models.WorkflowRun
		if err := json.Unmarshal(data, &run); err != nil {
			return err
		}

		if run.WorkflowID == workflowID {
			runs = append(runs, &run)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})

	return runs, nil
}

type nodeLogRepository struct {
	p *Persistence
}

// Append stores the log in the run's ledger document, preserving insertion
// order.
func (r *nodeLogRepository) Append(_ context.Context, entry *models.NodeExecutionLog) error {
	logs := make([]*models.NodeExecutionLog, 0)

	err := r.p.read("node_logs", entry.RunID, &logs)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	logs = append(logs, entry)

	return r.p.write("node_logs", entry.RunID, logs)
}

func (r *nodeLogRepository) ListByRun(_ context.Context, runID string) ([]*models.NodeExecutionLog, error) {
	logs := make([]*models.NodeExecutionLog, 0)

	err := r.p.read("node_logs", runID, &logs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return logs, nil
		}

		return nil, err
	}

	return logs, nil
}

type campaignRepository struct {
	p *Persistence
}

func (r *campaignRepository) GetByID(_ context.Context, id string) (*models.Campaign, error) {
	var campaign models.Campaign

	if err := r.p.read("campaigns", id, &campaign); err != nil {
		return nil, notFound(err, persistence.ErrCampaignNotFound)
	}

	return &campaign, nil
}

func (r *campaignRepository) Save(_ context.Context, campaign *models.Campaign) error {
	return r.p.write("campaigns", campaign.ID, campaign)
}

func (r *campaignRepository) List(_ context.Context, tenantID string) ([]*models.Campaign, error) {
	campaigns := make([]*models.Campaign, 0)

	err := r.p.list("campaigns", func(data []byte) error {
		var campaign models.Campaign
		if err := json.Unmarshal(data, &campaign); err != nil {
			return err
		}

		if tenantID == "" || campaign.TenantID == tenantID {
			campaigns = append(campaigns, &campaign)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(campaigns, func(i, j int) bool {
		return campaigns[i].CreatedAt.After(campaigns[j].CreatedAt)
	})

	return campaigns, nil
}

type reminderRepository struct {
	p *Persistence
}

func (r *reminderRepository) GetByID(_ context.Context, id string) (*models.Reminder, error) {
	var reminder models.Reminder

	if err := r.p.read("reminders", id, &reminder); err != nil {
		return nil, notFound(err, persistence.ErrReminderNotFound)
	}

	return &reminder, nil
}

func (r *reminderRepository) Save(_ context.Context, reminder *models.Reminder) error {
	return r.p.write("reminders", reminder.ID, reminder)
}
