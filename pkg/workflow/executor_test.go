package workflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/conduitcrm/conduit/pkg/dueindex"
	"github.com/conduitcrm/conduit/pkg/mocks"
	"github.com/conduitcrm/conduit/pkg/models"
	"github.com/conduitcrm/conduit/pkg/persistence/file"
	"github.com/conduitcrm/conduit/pkg/protocol"
	"github.com/conduitcrm/conduit/pkg/registry"
)

type executorHarness struct {
	executor    *Executor
	persistence *file.Persistence
	evaluator   *mocks.MockObjectiveEvaluator
	provider    *mocks.MockChannelProvider
	eventBus    *mocks.MockEventBus
	dueIndex    *dueindex.MemoryIndex
}

func newExecutorHarness(t *testing.T) *executorHarness {
	t.Helper()

	store, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	evaluator := &mocks.MockObjectiveEvaluator{}
	provider := &mocks.MockChannelProvider{}

	reg := registry.NewRegistry(logger)
	reg.RegisterDefaults(registry.Dependencies{Evaluator: evaluator, Provider: provider})

	eventBus := &mocks.MockEventBus{}
	eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	index := dueindex.NewMemoryIndex()

	return &executorHarness{
		executor:    NewExecutor("worker-test", store, reg, eventBus, index, logger),
		persistence: store,
		evaluator:   evaluator,
		provider:    provider,
		eventBus:    eventBus,
		dueIndex:    index,
	}
}

func (h *executorHarness) saveWorkflow(t *testing.T, workflow *models.Workflow) {
	t.Helper()
	require.NoError(t, h.persistence.Workflows().Save(context.Background(), workflow))
}

func (h *executorHarness) newRun(t *testing.T, workflow *models.Workflow, triggerData map[string]any) *models.WorkflowRun {
	t.Helper()

	run := &models.WorkflowRun{
		ID:          uuid.New().String(),
		WorkflowID:  workflow.ID,
		TenantID:    workflow.TenantID,
		Status:      models.RunStatusRunning,
		TriggerData: triggerData,
		StartedAt:   time.Now().UTC(),
	}
	require.NoError(t, h.persistence.Runs().Save(context.Background(), run))

	return run
}

func (h *executorHarness) reloadRun(t *testing.T, runID string) *models.WorkflowRun {
	t.Helper()

	run, err := h.persistence.Runs().GetByID(context.Background(), runID)
	require.NoError(t, err)

	return run
}

func (h *executorHarness) runLogs(t *testing.T, runID string) []*models.NodeExecutionLog {
	t.Helper()

	logs, err := h.persistence.NodeLogs().ListByRun(context.Background(), runID)
	require.NoError(t, err)

	return logs
}

func answerThenNotifyWorkflow(tenantID string) *models.Workflow {
	return &models.Workflow{
		ID:       uuid.New().String(),
		TenantID: tenantID,
		Name:     "answer and notify",
		Status:   models.WorkflowStatusPublished,
		Version:  1,
		Nodes: []*models.Node{
			{ID: "start", Type: models.NodeTypeTrigger, Config: map[string]any{"kind": "message_received"}},
			{ID: "decide", Type: models.NodeTypeAIObjective, Config: map[string]any{
				"objective": "answer_question",
				"config":    map[string]any{"question_field": "question"},
			}},
			{ID: "notify", Type: models.NodeTypeAction, Config: map[string]any{
				"action":     "send_message",
				"channel_id": "chan-1",
				"to":         "+5511999990000",
				"content":    "{{.variables.answer}}",
			}},
		},
		Edges: []*models.Edge{
			{Source: "start", Target: "decide"},
			{Source: "decide", Target: "notify", Condition: &models.EdgeCondition{Branch: "SUCCESS"}},
		},
	}
}

func TestExecutor_EndToEnd_TriggersNotLedgered(t *testing.T) {
	h := newExecutorHarness(t)

	workflow := answerThenNotifyWorkflow("tenant-1")
	h.saveWorkflow(t, workflow)
	run := h.newRun(t, workflow, map[string]any{"question": "opening hours?"})

	h.evaluator.On("Evaluate", mock.Anything, mock.Anything).Return(&protocol.EvaluateResult{
		Status:     protocol.ObjectiveStatusSuccess,
		Data:       map[string]any{"answer": "we open at 9am"},
		Confidence: 0.9,
		TokensUsed: 42,
	}, nil)
	h.provider.On("SendMessage", mock.Anything, mock.Anything).Return(&protocol.SendMessageResult{MessageID: "msg-1"}, nil)

	err := h.executor.Execute(context.Background(), run.ID)
	require.NoError(t, err)

	reloaded := h.reloadRun(t, run.ID)
	assert.Equal(t, models.RunStatusCompleted, reloaded.Status)
	require.NotNil(t, reloaded.CompletedAt)
	assert.Equal(t, "we open at 9am", reloaded.Result["answer"])
	assert.Equal(t, "msg-1", reloaded.Result["message_id"])

	// Trigger nodes are entry markers: a three-node graph yields exactly two
	// ledger entries.
	logs := h.runLogs(t, run.ID)
	require.Len(t, logs, 2)
	assert.Equal(t, "decide", logs[0].NodeID)
	assert.Equal(t, models.NodeLogStatusSuccess, logs[0].Status)
	assert.Equal(t, 42, logs[0].TokensUsed)
	assert.Equal(t, "notify", logs[1].NodeID)
	assert.Equal(t, models.NodeLogStatusSuccess, logs[1].Status)

	h.eventBus.AssertCalled(t, "Publish", mock.Anything, run.TenantID, mock.AnythingOfType("events.WorkflowExecutionCompleted"))
}

func TestExecutor_BranchSignalSelectsEdge(t *testing.T) {
	h := newExecutorHarness(t)

	workflow := answerThenNotifyWorkflow("tenant-1")
	workflow.Nodes = append(workflow.Nodes, &models.Node{
		ID:   "escalate",
		Type: models.NodeTypeAction,
		Config: map[string]any{
			"action":    "set_variables",
			"variables": map[string]any{"escalated": true},
		},
	})
	workflow.Edges = append(workflow.Edges, &models.Edge{
		Source:    "decide",
		Target:    "escalate",
		Condition: &models.EdgeCondition{Branch: "SPEAK_TO_HUMAN"},
	})
	h.saveWorkflow(t, workflow)
	run := h.newRun(t, workflow, nil)

	h.evaluator.On("Evaluate", mock.Anything, mock.Anything).Return(&protocol.EvaluateResult{
		Status:  protocol.ObjectiveStatusSpeakToHuman,
		Message: "needs a human",
	}, nil)

	err := h.executor.Execute(context.Background(), run.ID)
	require.NoError(t, err)

	reloaded := h.reloadRun(t, run.ID)
	assert.Equal(t, models.RunStatusCompleted, reloaded.Status)
	assert.Equal(t, true, reloaded.Result["escalated"])

	h.provider.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestExecutor_ContextMergesInTraversalOrder(t *testing.T) {
	h := newExecutorHarness(t)

	workflow := &models.Workflow{
		ID:        uuid.New().String(),
		TenantID:  "tenant-1",
		Name:      "merge order",
		Status:    models.WorkflowStatusPublished,
		Variables: map[string]any{"source": "workflow", "greeting": "hello"},
		Nodes: []*models.Node{
			{ID: "start", Type: models.NodeTypeTrigger},
			{ID: "first", Type: models.NodeTypeAction, Config: map[string]any{
				"action":    "set_variables",
				"variables": map[string]any{"source": "first", "a": "1"},
			}},
			{ID: "second", Type: models.NodeTypeAction, Config: map[string]any{
				"action":    "set_variables",
				"variables": map[string]any{"source": "second", "b": "2"},
			}},
		},
		Edges: []*models.Edge{
			{Source: "start", Target: "first"},
			{Source: "first", Target: "second"},
		},
	}
	h.saveWorkflow(t, workflow)
	run := h.newRun(t, workflow, map[string]any{"source": "trigger"})

	err := h.executor.Execute(context.Background(), run.ID)
	require.NoError(t, err)

	// Later writers win the shallow merge; untouched keys survive.
	reloaded := h.reloadRun(t, run.ID)
	assert.Equal(t, "second", reloaded.Result["source"])
	assert.Equal(t, "hello", reloaded.Result["greeting"])
	assert.Equal(t, "1", reloaded.Result["a"])
	assert.Equal(t, "2", reloaded.Result["b"])
}

func TestExecutor_CyclicGraphStopsOnRevisit(t *testing.T) {
	h := newExecutorHarness(t)

	workflow := &models.Workflow{
		ID:       uuid.New().String(),
		TenantID: "tenant-1",
		Name:     "cycle",
		Status:   models.WorkflowStatusPublished,
		Nodes: []*models.Node{
			{ID: "start", Type: models.NodeTypeTrigger},
			{ID: "a", Type: models.NodeTypeAction, Config: map[string]any{
				"action":    "set_variables",
				"variables": map[string]any{"a": "done"},
			}},
			{ID: "b", Type: models.NodeTypeAction, Config: map[string]any{
				"action":    "set_variables",
				"variables": map[string]any{"b": "done"},
			}},
		},
		Edges: []*models.Edge{
			{Source: "start", Target: "a"},
			{Source: "a", Target: "b"},
			{Source: "b", Target: "a"},
		},
	}
	h.saveWorkflow(t, workflow)
	run := h.newRun(t, workflow, nil)

	err := h.executor.Execute(context.Background(), run.ID)
	require.NoError(t, err)

	// Each node ran once, then the revisit of "a" ended the walk without error.
	reloaded := h.reloadRun(t, run.ID)
	assert.Equal(t, models.RunStatusCompleted, reloaded.Status)
	assert.Len(t, h.runLogs(t, run.ID), 2)
}

func TestExecutor_NodeFailureFailsRun(t *testing.T) {
	h := newExecutorHarness(t)

	workflow := answerThenNotifyWorkflow("tenant-1")
	h.saveWorkflow(t, workflow)
	run := h.newRun(t, workflow, nil)

	h.evaluator.On("Evaluate", mock.Anything, mock.Anything).Return(&protocol.EvaluateResult{
		Status: protocol.ObjectiveStatusSuccess,
		Data:   map[string]any{"answer": "yes"},
	}, nil)
	h.provider.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("provider unavailable"))

	err := h.executor.Execute(context.Background(), run.ID)
	require.Error(t, err)

	reloaded := h.reloadRun(t, run.ID)
	assert.Equal(t, models.RunStatusFailed, reloaded.Status)
	assert.Contains(t, reloaded.Error, "provider unavailable")
	require.NotNil(t, reloaded.CompletedAt)

	logs := h.runLogs(t, run.ID)
	require.Len(t, logs, 2)
	assert.Equal(t, models.NodeLogStatusError, logs[1].Status)
	assert.Contains(t, logs[1].ErrorMessage, "provider unavailable")

	h.eventBus.AssertCalled(t, "Publish", mock.Anything, run.TenantID, mock.AnythingOfType("events.WorkflowExecutionFailed"))
}

func TestExecutor_LongDelayParksAndResumes(t *testing.T) {
	h := newExecutorHarness(t)

	workflow := &models.Workflow{
		ID:       uuid.New().String(),
		TenantID: "tenant-1",
		Name:     "wait then notify",
		Status:   models.WorkflowStatusPublished,
		Nodes: []*models.Node{
			{ID: "start", Type: models.NodeTypeTrigger},
			{ID: "wait", Type: models.NodeTypeDelay, Config: map[string]any{"duration_seconds": 3600}},
			{ID: "notify", Type: models.NodeTypeAction, Config: map[string]any{
				"action":     "send_message",
				"channel_id": "chan-1",
				"to":         "+5511999990000",
				"content":    "still there?",
			}},
		},
		Edges: []*models.Edge{
			{Source: "start", Target: "wait"},
			{Source: "wait", Target: "notify"},
		},
	}
	h.saveWorkflow(t, workflow)
	run := h.newRun(t, workflow, nil)

	err := h.executor.Execute(context.Background(), run.ID)
	require.NoError(t, err)

	parked := h.reloadRun(t, run.ID)
	assert.Equal(t, models.RunStatusRunning, parked.Status)
	assert.Equal(t, "notify", parked.ResumeNodeID)
	h.provider.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)

	claimed, err := h.dueIndex.ClaimDue(context.Background(), time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, []string{RunKeyPrefix + run.ID}, claimed)

	// Waking the run resumes at the parked node, not the trigger.
	h.provider.On("SendMessage", mock.Anything, mock.Anything).Return(&protocol.SendMessageResult{MessageID: "msg-2"}, nil)

	err = h.executor.Execute(context.Background(), run.ID)
	require.NoError(t, err)

	resumed := h.reloadRun(t, run.ID)
	assert.Equal(t, models.RunStatusCompleted, resumed.Status)
	assert.Empty(t, resumed.ResumeNodeID)
	assert.Len(t, h.runLogs(t, run.ID), 2)
}

func TestExecutor_CancelStopsAtNodeBoundary(t *testing.T) {
	h := newExecutorHarness(t)

	workflow := answerThenNotifyWorkflow("tenant-1")
	h.saveWorkflow(t, workflow)
	run := h.newRun(t, workflow, nil)

	// Cancel lands while the objective node is executing; the walk must stop
	// before the next node instead of sending the message.
	h.evaluator.On("Evaluate", mock.Anything, mock.Anything).Run(func(_ mock.Arguments) {
		current, err := h.persistence.Runs().GetByID(context.Background(), run.ID)
		require.NoError(t, err)

		current.Status = models.RunStatusCancelled
		require.NoError(t, h.persistence.Runs().Save(context.Background(), current))
	}).Return(&protocol.EvaluateResult{
		Status: protocol.ObjectiveStatusSuccess,
		Data:   map[string]any{"answer": "yes"},
	}, nil)

	err := h.executor.Execute(context.Background(), run.ID)
	require.NoError(t, err)

	reloaded := h.reloadRun(t, run.ID)
	assert.Equal(t, models.RunStatusCancelled, reloaded.Status)
	h.provider.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestExecutor_TerminalRunRedeliveryIsNoOp(t *testing.T) {
	h := newExecutorHarness(t)

	workflow := answerThenNotifyWorkflow("tenant-1")
	h.saveWorkflow(t, workflow)
	run := h.newRun(t, workflow, nil)

	completedAt := time.Now().UTC()
	run.Status = models.RunStatusCompleted
	run.CompletedAt = &completedAt
	require.NoError(t, h.persistence.Runs().Save(context.Background(), run))

	err := h.executor.Execute(context.Background(), run.ID)
	require.NoError(t, err)

	assert.Empty(t, h.runLogs(t, run.ID))
	h.evaluator.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything)
}
