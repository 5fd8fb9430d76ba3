// Package workflow contains the graph executor that drives one workflow run
// from trigger to completion.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/conduitcrm/conduit/pkg/dueindex"
	"github.com/conduitcrm/conduit/pkg/eventbus"
	"github.com/conduitcrm/conduit/pkg/events"
	"github.com/conduitcrm/conduit/pkg/models"
	"github.com/conduitcrm/conduit/pkg/persistence"
	"github.com/conduitcrm/conduit/pkg/registry"
)

// maxIterations bounds a single run so cyclic graphs cannot spin forever.
const maxIterations = 100

// RunKeyPrefix namespaces parked run ids in the due index.
const RunKeyPrefix = "run:"

// Executor walks a workflow graph for one run, executing node capabilities
// and recording every visit in the run ledger. A run is owned by exactly one
// executor at a time.
type Executor struct {
	workerID    string
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	dueIndex    dueindex.Index
	logger      *slog.Logger
}

func NewExecutor(
	workerID string,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	dueIndex dueindex.Index,
	logger *slog.Logger,
) *Executor {
	return &Executor{
		workerID:    workerID,
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		dueIndex:    dueIndex,
		logger:      logger.With("module", "workflow_executor"),
	}
}

// Execute drives the run identified by runID until it completes, fails, gets
// cancelled, or parks on a long delay. Re-delivery of an already terminal run
// is a no-op, which makes the bus handler idempotent.
func (e *Executor) Execute(ctx context.Context, runID string) error {
	run, err := e.persistence.Runs().GetByID(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to fetch run %s: %w", runID, err)
	}

	if run.Status.IsTerminal() {
		e.logger.Info("Run already terminal, skipping", "run_id", runID, "status", run.Status)

		return nil
	}

	workflow, err := e.persistence.Workflows().GetByID(ctx, run.WorkflowID)
	if err != nil {
		return e.failRun(ctx, run, fmt.Errorf("failed to fetch workflow %s: %w", run.WorkflowID, err))
	}

	logger := e.logger.With("run_id", run.ID, "workflow_id", workflow.ID, "tenant_id", run.TenantID)
	logger.Info("Starting workflow run execution")

	executionCtx := &models.ExecutionContext{
		RunID:       run.ID,
		WorkflowID:  workflow.ID,
		TenantID:    run.TenantID,
		TriggerData: run.TriggerData,
		Variables:   make(map[string]any),
	}

	// Workflow defaults first, then any checkpointed context from a parked
	// run so resumed state wins.
	executionCtx.Merge(workflow.Variables)
	executionCtx.Merge(run.Context)

	currentNodeID, err := e.startNode(workflow, run)
	if err != nil {
		return e.failRun(ctx, run, err)
	}

	visited := make(map[string]bool)

	for iteration := 0; currentNodeID != ""; iteration++ {
		if iteration >= maxIterations {
			logger.Warn("Run reached iteration bound, stopping", "iterations", iteration)

			break
		}

		if visited[currentNodeID] {
			logger.Warn("Node already visited in this run, stopping", "node_id", currentNodeID)

			break
		}

		visited[currentNodeID] = true

		node, found := workflow.NodeByID(currentNodeID)
		if !found {
			return e.failRun(ctx, run, fmt.Errorf("node %s not found in workflow %s", currentNodeID, workflow.ID))
		}

		result, nodeErr := e.executeNode(ctx, node, executionCtx)
		if nodeErr != nil {
			return e.failRun(ctx, run, fmt.Errorf("node %s failed: %w", node.ID, nodeErr))
		}

		if result != nil {
			executionCtx.Merge(result.Data)
		}

		// Cancellation is cooperative: the in-flight node finishes, the walk
		// stops at the node boundary. Checking before the checkpoint also
		// keeps the stale in-memory status from overwriting the cancel.
		fresh, err := e.persistence.Runs().GetByID(ctx, run.ID)
		if err == nil && fresh.Status == models.RunStatusCancelled {
			logger.Info("Run cancelled, stopping traversal", "node_id", currentNodeID)

			return nil
		}

		signal := ""
		if result != nil {
			signal = result.Signal
		}

		nextNodeID, hasNext := SelectNext(workflow, currentNodeID, signal)

		if result != nil && result.DelayUntil != nil && hasNext {
			return e.parkRun(ctx, run, executionCtx, nextNodeID, *result.DelayUntil)
		}

		// Checkpoint context so a cancel or crash loses at most one node.
		run.Context = executionCtx.Snapshot()
		if err := e.persistence.Runs().Save(ctx, run); err != nil {
			logger.Warn("Failed to checkpoint run context", "error", err)
		}

		if !hasNext {
			break
		}

		currentNodeID = nextNodeID
	}

	return e.completeRun(ctx, run, executionCtx)
}

// startNode returns the node the walk begins at: the parked resume node for
// a woken run, the trigger node otherwise.
func (e *Executor) startNode(workflow *models.Workflow, run *models.WorkflowRun) (string, error) {
	if run.ResumeNodeID != "" {
		return run.ResumeNodeID, nil
	}

	trigger, found := workflow.TriggerNode()
	if !found {
		return "", fmt.Errorf("workflow %s has no trigger node", workflow.ID)
	}

	return trigger.ID, nil
}

// executeNode builds the capability for a graph node, runs it, and appends
// the ledger entry. The ledger write happens for both success and failure.
// Trigger nodes are entry markers, not work, and stay out of the ledger.
func (e *Executor) executeNode(ctx context.Context, node *models.Node, executionCtx *models.ExecutionContext) (*models.NodeResult, error) {
	logger := e.logger.With("run_id", executionCtx.RunID, "node_id", node.ID, "node_type", node.Type)
	logger.Debug("Executing node")

	ledgered := node.Type != models.NodeTypeTrigger

	inputSnapshot := executionCtx.Snapshot()
	startedAt := time.Now()

	entry := &models.NodeExecutionLog{
		ID:            uuid.New().String(),
		RunID:         executionCtx.RunID,
		NodeID:        node.ID,
		NodeType:      node.Type,
		InputSnapshot: inputSnapshot,
		CreatedAt:     startedAt.UTC(),
	}

	capability, err := e.registry.CreateNode(ctx, node.Type, node.ID, node.Config)
	if err != nil {
		entry.Status = models.NodeLogStatusError
		entry.ErrorMessage = err.Error()
		entry.DurationMs = time.Since(startedAt).Milliseconds()

		if ledgered {
			e.appendLog(ctx, entry)
		}

		return nil, err
	}

	result, err := capability.Execute(ctx, *executionCtx)
	entry.DurationMs = time.Since(startedAt).Milliseconds()

	if err != nil {
		entry.Status = models.NodeLogStatusError
		entry.ErrorMessage = err.Error()

		if ledgered {
			e.appendLog(ctx, entry)
		}

		return nil, err
	}

	entry.Status = models.NodeLogStatusSuccess

	if result != nil {
		entry.OutputSnapshot = result.Data
		entry.TokensUsed = result.TokensUsed
		entry.CostUnits = result.CostUnits
	}

	if ledgered {
		e.appendLog(ctx, entry)
	}

	logger.Debug("Node executed", "duration_ms", entry.DurationMs)

	return result, nil
}

// appendLog writes one ledger entry. Ledger failures are logged but never
// fail the run: audit loss is preferable to aborting tenant automation.
func (e *Executor) appendLog(ctx context.Context, entry *models.NodeExecutionLog) {
	if err := e.persistence.NodeLogs().Append(ctx, entry); err != nil {
		e.logger.Error("Failed to append node execution log",
			"run_id", entry.RunID, "node_id", entry.NodeID, "error", err)
	}
}

// parkRun suspends the run on a long delay. The run keeps its running status
// and is woken through the due index instead of holding a worker slot.
func (e *Executor) parkRun(ctx context.Context, run *models.WorkflowRun, executionCtx *models.ExecutionContext, resumeNodeID string, wakeAt time.Time) error {
	run.Context = executionCtx.Snapshot()
	run.ResumeNodeID = resumeNodeID

	if err := e.persistence.Runs().Save(ctx, run); err != nil {
		return e.failRun(ctx, run, fmt.Errorf("failed to park run: %w", err))
	}

	if err := e.dueIndex.Insert(ctx, RunKeyPrefix+run.ID, wakeAt); err != nil {
		return e.failRun(ctx, run, fmt.Errorf("failed to index parked run: %w", err))
	}

	e.logger.Info("Run parked on delay",
		"run_id", run.ID, "resume_node_id", resumeNodeID, "wake_at", wakeAt)

	return nil
}

func (e *Executor) completeRun(ctx context.Context, run *models.WorkflowRun, executionCtx *models.ExecutionContext) error {
	now := time.Now().UTC()
	run.Status = models.RunStatusCompleted
	run.Context = executionCtx.Snapshot()
	run.Result = executionCtx.Snapshot()
	run.ResumeNodeID = ""
	run.CompletedAt = &now

	if err := e.persistence.Runs().Save(ctx, run); err != nil {
		return fmt.Errorf("failed to persist completed run %s: %w", run.ID, err)
	}

	e.logger.Info("Workflow run completed", "run_id", run.ID, "workflow_id", run.WorkflowID)

	event := events.WorkflowExecutionCompleted{
		BaseEvent:  events.NewBaseEvent(events.WorkflowExecutionCompletedEvent, run.TenantID),
		WorkflowID: run.WorkflowID,
		RunID:      run.ID,
		Result:     run.Result,
		Duration:   now.Sub(run.StartedAt),
	}
	event.WorkerID = e.workerID

	if err := e.eventBus.Publish(ctx, run.TenantID, event); err != nil {
		e.logger.Warn("Failed to publish completion event", "run_id", run.ID, "error", err)
	}

	return nil
}

func (e *Executor) failRun(ctx context.Context, run *models.WorkflowRun, cause error) error {
	now := time.Now().UTC()
	run.Status = models.RunStatusFailed
	run.Error = cause.Error()
	run.ResumeNodeID = ""
	run.CompletedAt = &now

	if err := e.persistence.Runs().Save(ctx, run); err != nil {
		e.logger.Error("Failed to persist failed run", "run_id", run.ID, "error", err)
	}

	e.logger.Error("Workflow run failed", "run_id", run.ID, "workflow_id", run.WorkflowID, "error", cause)

	event := events.WorkflowExecutionFailed{
		BaseEvent:  events.NewBaseEvent(events.WorkflowExecutionFailedEvent, run.TenantID),
		WorkflowID: run.WorkflowID,
		RunID:      run.ID,
		Error:      cause.Error(),
		Duration:   now.Sub(run.StartedAt),
	}
	event.WorkerID = e.workerID

	if err := e.eventBus.Publish(ctx, run.TenantID, event); err != nil {
		e.logger.Warn("Failed to publish failure event", "run_id", run.ID, "error", err)
	}

	return cause
}
