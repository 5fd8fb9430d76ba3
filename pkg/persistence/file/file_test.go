package file

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduitcrm/conduit/pkg/models"
	"github.com/conduitcrm/conduit/pkg/persistence"
)

func newStore(t *testing.T) *Persistence {
	t.Helper()

	store, err := NewPersistence(t.TempDir())
	require.NoError(t, err)

	return store
}

func TestWorkflowRepository_RoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	workflow := &models.Workflow{
		ID:       uuid.New().String(),
		TenantID: "tenant-1",
		Name:     "follow-up",
		Status:   models.WorkflowStatusDraft,
		Version:  1,
		Nodes: []*models.Node{
			{ID: "start", Type: models.NodeTypeTrigger},
		},
		Variables: map[string]any{"greeting": "hello"},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Workflows().Save(ctx, workflow))

	loaded, err := store.Workflows().GetByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.Name, loaded.Name)
	assert.Equal(t, workflow.TenantID, loaded.TenantID)
	assert.Equal(t, "hello", loaded.Variables["greeting"])
	require.Len(t, loaded.Nodes, 1)
	assert.Equal(t, models.NodeTypeTrigger, loaded.Nodes[0].Type)
}

func TestWorkflowRepository_NotFoundSentinel(t *testing.T) {
	store := newStore(t)

	_, err := store.Workflows().GetByID(context.Background(), "missing")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflowRepository_ListIsTenantScoped(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for _, tenant := range []string{"tenant-1", "tenant-1", "tenant-2"} {
		require.NoError(t, store.Workflows().Save(ctx, &models.Workflow{
			ID:       uuid.New().String(),
			TenantID: tenant,
			Name:     "wf",
			Status:   models.WorkflowStatusDraft,
		}))
	}

	workflows, err := store.Workflows().List(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Len(t, workflows, 2)
}

func TestRunRepository_RoundTripAndNotFound(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	run := &models.WorkflowRun{
		ID:         uuid.New().String(),
		WorkflowID: "wf-1",
		TenantID:   "tenant-1",
		Status:     models.RunStatusRunning,
		Context:    map[string]any{"answer": "9am"},
		StartedAt:  time.Now().UTC(),
	}
	require.NoError(t, store.Runs().Save(ctx, run))

	loaded, err := store.Runs().GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusRunning, loaded.Status)
	assert.Equal(t, "9am", loaded.Context["answer"])

	_, err = store.Runs().GetByID(ctx, "missing")
	assert.True(t, persistence.IsRunNotFound(err))

	runs, err := store.Runs().ListByWorkflow(ctx, "wf-1")
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestNodeLogRepository_AppendPreservesOrder(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	runID := uuid.New().String()

	for _, nodeID := range []string{"decide", "notify"} {
		require.NoError(t, store.NodeLogs().Append(ctx, &models.NodeExecutionLog{
			ID:        uuid.New().String(),
			RunID:     runID,
			NodeID:    nodeID,
			Status:    models.NodeLogStatusSuccess,
			CreatedAt: time.Now().UTC(),
		}))
	}

	logs, err := store.NodeLogs().ListByRun(ctx, runID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "decide", logs[0].NodeID)
	assert.Equal(t, "notify", logs[1].NodeID)

	// A run with no ledger entries lists empty, not an error.
	empty, err := store.NodeLogs().ListByRun(ctx, "no-logs")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCampaignAndReminderRepositories_RoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	campaign := &models.Campaign{
		ID:         uuid.New().String(),
		TenantID:   "tenant-1",
		Name:       "promo",
		Status:     models.ItemStatusScheduled,
		ChannelID:  "chan-1",
		Recipients: []models.Recipient{{Phone: "+5511999990001"}},
		Messages:   []models.CampaignMessage{{Type: "text", Content: "hi"}},
		DueAt:      time.Now().UTC(),
	}
	require.NoError(t, store.Campaigns().Save(ctx, campaign))

	loadedCampaign, err := store.Campaigns().GetByID(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.Name, loadedCampaign.Name)
	require.Len(t, loadedCampaign.Recipients, 1)

	_, err = store.Campaigns().GetByID(ctx, "missing")
	assert.True(t, persistence.IsCampaignNotFound(err))

	reminder := &models.Reminder{
		ID:        uuid.New().String(),
		TenantID:  "tenant-1",
		Kind:      models.ReminderKindFeedback,
		Status:    models.ItemStatusScheduled,
		Phone:     "+5511999990001",
		ChannelID: "chan-1",
		Content:   "How was your visit?",
		DueAt:     time.Now().UTC(),
	}
	require.NoError(t, store.Reminders().Save(ctx, reminder))

	loadedReminder, err := store.Reminders().GetByID(ctx, reminder.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReminderKindFeedback, loadedReminder.Kind)
	assert.False(t, loadedReminder.Sent)

	_, err = store.Reminders().GetByID(ctx, "missing")
	assert.True(t, persistence.IsReminderNotFound(err))
}

func TestHealthCheck(t *testing.T) {
	store := newStore(t)

	assert.NoError(t, store.HealthCheck(context.Background()))
	assert.NoError(t, store.Close(context.Background()))
}
