// Package services contains the application services that the API and the
// command-line tooling call into.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/conduitcrm/conduit/pkg/eventbus"
	"github.com/conduitcrm/conduit/pkg/events"
	"github.com/conduitcrm/conduit/pkg/models"
	"github.com/conduitcrm/conduit/pkg/persistence"
	"github.com/conduitcrm/conduit/pkg/registry"
)

// ErrWorkflowNotFound mirrors the persistence sentinel for callers that only
// import the service layer.
var ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

// Workflow manages workflow definitions and their runs.
type Workflow struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
}

func NewWorkflow(persistence persistence.Persistence, registry *registry.Registry, eventBus eventbus.EventBus) *Workflow {
	return &Workflow{
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := s.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Create stores a new workflow in draft state.
func (s *Workflow) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	now := time.Now().UTC()

	workflow.ID = uuid.New().String()
	workflow.Status = models.WorkflowStatusDraft
	workflow.Version = 1
	workflow.CreatedAt = now
	workflow.UpdatedAt = now

	if err := s.persistence.Workflows().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	return workflow, nil
}

// Update replaces the definition of a draft workflow. Published workflows
// are immutable; changing one requires a new version via Publish.
func (s *Workflow) Update(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	existing, err := s.persistence.Workflows().GetByID(ctx, workflow.ID)
	if err != nil {
		return nil, err
	}

	if existing.Status != models.WorkflowStatusDraft {
		return nil, ErrWorkflowNotEditable
	}

	workflow.TenantID = existing.TenantID
	workflow.Status = existing.Status
	workflow.Version = existing.Version
	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now().UTC()

	if err := s.persistence.Workflows().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	return workflow, nil
}

// Publish validates the workflow graph and every node config, then makes the
// workflow executable. Validation failures leave the workflow in draft.
func (s *Workflow) Publish(ctx context.Context, workflowID string) (*models.Workflow, error) {
	workflow, err := s.persistence.Workflows().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if workflow.Status == models.WorkflowStatusPublished {
		return workflow, nil
	}

	if err := workflow.ValidateGraph(); err != nil {
		return nil, err
	}

	for _, node := range workflow.Nodes {
		if err := s.registry.ValidateConfig(node.Type, node.Config); err != nil {
			return nil, fmt.Errorf("node %s: %w", node.ID, err)
		}
	}

	now := time.Now().UTC()
	workflow.Status = models.WorkflowStatusPublished
	workflow.PublishedAt = &now
	workflow.UpdatedAt = now

	if err := s.persistence.Workflows().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to publish workflow: %w", err)
	}

	event := events.WorkflowPublished{
		BaseEvent:  events.NewBaseEvent(events.WorkflowPublishedEvent, workflow.TenantID),
		WorkflowID: workflow.ID,
		Version:    workflow.Version,
	}

	if err := s.eventBus.Publish(ctx, workflow.TenantID, event); err != nil {
		return workflow, fmt.Errorf("workflow published but event not delivered: %w", err)
	}

	return workflow, nil
}

// Pause stops a published workflow from accepting new triggers. In-flight
// runs are unaffected.
func (s *Workflow) Pause(ctx context.Context, workflowID string) (*models.Workflow, error) {
	workflow, err := s.persistence.Workflows().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if workflow.Status != models.WorkflowStatusPublished {
		return nil, ErrInvalidStateTransition
	}

	workflow.Status = models.WorkflowStatusPaused
	workflow.UpdatedAt = time.Now().UTC()

	if err := s.persistence.Workflows().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to pause workflow: %w", err)
	}

	return workflow, nil
}

// Resume re-activates a paused workflow.
func (s *Workflow) Resume(ctx context.Context, workflowID string) (*models.Workflow, error) {
	workflow, err := s.persistence.Workflows().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if workflow.Status != models.WorkflowStatusPaused {
		return nil, ErrInvalidStateTransition
	}

	workflow.Status = models.WorkflowStatusPublished
	workflow.UpdatedAt = time.Now().UTC()

	if err := s.persistence.Workflows().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to resume workflow: %w", err)
	}

	return workflow, nil
}

// Archive retires a workflow. Archived workflows stay readable forever but
// never accept new runs.
func (s *Workflow) Archive(ctx context.Context, workflowID string) (*models.Workflow, error) {
	workflow, err := s.persistence.Workflows().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if workflow.Status == models.WorkflowStatusArchived {
		return workflow, nil
	}

	now := time.Now().UTC()
	workflow.Status = models.WorkflowStatusArchived
	workflow.ArchivedAt = &now
	workflow.UpdatedAt = now

	if err := s.persistence.Workflows().Save(ctx, workflow); err != nil {
		return nil, fmt.Errorf("failed to archive workflow: %w", err)
	}

	return workflow, nil
}

// Get fetches one workflow.
func (s *Workflow) Get(ctx context.Context, workflowID string) (*models.Workflow, error) {
	return s.persistence.Workflows().GetByID(ctx, workflowID)
}

// List returns the tenant's workflows.
func (s *Workflow) List(ctx context.Context, tenantID string) ([]*models.Workflow, error) {
	return s.persistence.Workflows().List(ctx, tenantID)
}

// TriggerRun creates a run for a published workflow and hands it to the
// workers through the bus. The run record exists before the event is
// published so a worker can always resolve it.
func (s *Workflow) TriggerRun(ctx context.Context, workflowID string, triggerData map[string]any) (*models.WorkflowRun, error) {
	workflow, err := s.persistence.Workflows().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if !workflow.IsExecutable() {
		return nil, ErrWorkflowNotExecutable
	}

	run := &models.WorkflowRun{
		ID:          uuid.New().String(),
		WorkflowID:  workflow.ID,
		TenantID:    workflow.TenantID,
		Status:      models.RunStatusRunning,
		TriggerData: triggerData,
		StartedAt:   time.Now().UTC(),
	}

	if err := s.persistence.Runs().Save(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	event := events.WorkflowTriggered{
		BaseEvent:   events.NewBaseEvent(events.WorkflowTriggeredEvent, workflow.TenantID),
		WorkflowID:  workflow.ID,
		RunID:       run.ID,
		TriggerData: triggerData,
	}

	if err := s.eventBus.Publish(ctx, workflow.TenantID, event); err != nil {
		return nil, fmt.Errorf("failed to publish trigger event: %w", err)
	}

	return run, nil
}

// CancelRun requests cooperative cancellation of a running run. The executor
// observes the status at the next node boundary.
func (s *Workflow) CancelRun(ctx context.Context, runID string) (*models.WorkflowRun, error) {
	run, err := s.persistence.Runs().GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	if run.Status.IsTerminal() {
		return nil, ErrInvalidStateTransition
	}

	now := time.Now().UTC()
	run.Status = models.RunStatusCancelled
	run.CompletedAt = &now

	if err := s.persistence.Runs().Save(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to cancel run: %w", err)
	}

	return run, nil
}

// GetRun fetches one run.
func (s *Workflow) GetRun(ctx context.Context, runID string) (*models.WorkflowRun, error) {
	return s.persistence.Runs().GetByID(ctx, runID)
}

// ListRuns returns a workflow's runs, newest first.
func (s *Workflow) ListRuns(ctx context.Context, workflowID string) ([]*models.WorkflowRun, error) {
	return s.persistence.Runs().ListByWorkflow(ctx, workflowID)
}

// ListRunLogs returns the node execution ledger of a run in append order.
func (s *Workflow) ListRunLogs(ctx context.Context, runID string) ([]*models.NodeExecutionLog, error) {
	return s.persistence.NodeLogs().ListByRun(ctx, runID)
}
