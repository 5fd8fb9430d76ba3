package dispatcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/conduitcrm/conduit/pkg/eventbus"
	"github.com/conduitcrm/conduit/pkg/events"
	"github.com/conduitcrm/conduit/pkg/persistence"
)

// RunKeyPrefix namespaces parked run ids in the due index.
const RunKeyPrefix = "run:"

// RunResumer wakes runs parked on long delays. It does not execute anything
// itself; it hands the run back to the workers through the bus.
type RunResumer struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	logger      *slog.Logger
}

func NewRunResumer(persistence persistence.Persistence, eventBus eventbus.EventBus, logger *slog.Logger) *RunResumer {
	return &RunResumer{
		persistence: persistence,
		eventBus:    eventBus,
		logger:      logger.With("module", "run_resumer"),
	}
}

// Dispatch republishes the parked run so a worker picks it up and continues
// from its resume node. Terminal runs (e.g. cancelled while parked) are
// dropped.
func (d *RunResumer) Dispatch(ctx context.Context, runID string) error {
	run, err := d.persistence.Runs().GetByID(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to fetch parked run %s: %w", runID, err)
	}

	if run.Status.IsTerminal() {
		d.logger.Info("Parked run already terminal, dropping", "run_id", run.ID, "status", run.Status)

		return nil
	}

	event := events.WorkflowTriggered{
		BaseEvent:  events.NewBaseEvent(events.WorkflowTriggeredEvent, run.TenantID),
		WorkflowID: run.WorkflowID,
		RunID:      run.ID,
	}

	if err := d.eventBus.Publish(ctx, run.TenantID, event); err != nil {
		return fmt.Errorf("failed to publish resume event for run %s: %w", run.ID, err)
	}

	d.logger.Info("Parked run handed back to workers", "run_id", run.ID, "resume_node_id", run.ResumeNodeID)

	return nil
}
