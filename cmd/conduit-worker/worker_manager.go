package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/conduitcrm/conduit/pkg/dueindex"
	"github.com/conduitcrm/conduit/pkg/eventbus"
	"github.com/conduitcrm/conduit/pkg/events"
	"github.com/conduitcrm/conduit/pkg/persistence"
	"github.com/conduitcrm/conduit/pkg/registry"
	"github.com/conduitcrm/conduit/pkg/tracer"
	"github.com/conduitcrm/conduit/pkg/workflow"
)

// WorkerManager consumes workflow trigger events and drives the executor.
type WorkerManager struct {
	id          string
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	dueIndex    dueindex.Index
	tracer      trace.Tracer
}

func NewWorkerManager(
	id string,
	persistence persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	dueIndex dueindex.Index,
	logger *slog.Logger,
) *WorkerManager {
	return &WorkerManager{
		id:          id,
		logger:      logger.With("module", "conduit-worker", "worker_id", id),
		persistence: persistence,
		registry:    registry,
		eventBus:    eventBus,
		dueIndex:    dueIndex,
	}
}

func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager")

	workerTracer, err := tracer.NewTracer(ctx, "conduit-worker")
	if err != nil {
		w.logger.WarnContext(ctx, "Tracing disabled, exporter unavailable", "error", err)
	} else {
		w.tracer = workerTracer
	}

	if err := w.eventBus.Handle(events.WorkflowTriggeredEvent, w.handleWorkflowTriggered); err != nil {
		return err
	}

	if err := w.eventBus.Subscribe(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down worker")

	return nil
}

func (w *WorkerManager) handleWorkflowTriggered(ctx context.Context, event any) error {
	triggeredEvent, ok := event.(*events.WorkflowTriggered)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for WorkflowTriggered")

		return nil
	}

	logger := w.logger.With(
		"workflow_id", triggeredEvent.WorkflowID,
		"run_id", triggeredEvent.RunID,
		"event_id", triggeredEvent.ID,
	)
	logger.InfoContext(ctx, "Processing workflow triggered event")

	if w.tracer != nil {
		var span trace.Span

		ctx, span = tracer.StartSpan(ctx, w.tracer, "workflow.execute",
			attribute.String(tracer.WorkflowIDKey, triggeredEvent.WorkflowID),
			attribute.String(tracer.RunIDKey, triggeredEvent.RunID),
			attribute.String(tracer.TenantIDKey, triggeredEvent.TenantID),
			attribute.String(tracer.WorkerIDKey, w.id),
		)
		defer span.End()
	}

	executor := workflow.NewExecutor(w.id, w.persistence, w.registry, w.eventBus, w.dueIndex, w.logger)

	if err := executor.Execute(ctx, triggeredEvent.RunID); err != nil {
		logger.ErrorContext(ctx, "Workflow run failed", "error", err)

		// The run record already carries the failure; acking keeps the bus
		// from redelivering a run that will fail the same way again.
		return nil
	}

	return nil
}
