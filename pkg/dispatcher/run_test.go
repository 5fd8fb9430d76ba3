package dispatcher

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/conduitcrm/conduit/pkg/events"
	"github.com/conduitcrm/conduit/pkg/mocks"
	"github.com/conduitcrm/conduit/pkg/models"
	"github.com/conduitcrm/conduit/pkg/persistence/file"
)

func newRunResumerHarness(t *testing.T) (*RunResumer, *file.Persistence, *mocks.MockEventBus) {
	t.Helper()

	store, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eventBus := &mocks.MockEventBus{}

	return NewRunResumer(store, eventBus, logger), store, eventBus
}

func TestRunResumer_RepublishesParkedRun(t *testing.T) {
	resumer, store, eventBus := newRunResumerHarness(t)

	run := &models.WorkflowRun{
		ID:           uuid.New().String(),
		WorkflowID:   "wf-1",
		TenantID:     "tenant-1",
		Status:       models.RunStatusRunning,
		ResumeNodeID: "notify",
		StartedAt:    time.Now().UTC(),
	}
	require.NoError(t, store.Runs().Save(context.Background(), run))

	eventBus.On("Publish", mock.Anything, "tenant-1", mock.MatchedBy(func(event events.Event) bool {
		triggered, ok := event.(events.WorkflowTriggered)

		return ok && triggered.RunID == run.ID && triggered.WorkflowID == "wf-1"
	})).Return(nil)

	err := resumer.Dispatch(context.Background(), run.ID)
	require.NoError(t, err)

	eventBus.AssertExpectations(t)
}

func TestRunResumer_DropsTerminalRun(t *testing.T) {
	resumer, store, eventBus := newRunResumerHarness(t)

	completedAt := time.Now().UTC()
	run := &models.WorkflowRun{
		ID:          uuid.New().String(),
		WorkflowID:  "wf-1",
		TenantID:    "tenant-1",
		Status:      models.RunStatusCancelled,
		StartedAt:   time.Now().UTC(),
		CompletedAt: &completedAt,
	}
	require.NoError(t, store.Runs().Save(context.Background(), run))

	err := resumer.Dispatch(context.Background(), run.ID)
	require.NoError(t, err)

	// A run cancelled while parked is dropped, not handed back to workers.
	eventBus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunResumer_MissingRunErrors(t *testing.T) {
	resumer, _, _ := newRunResumerHarness(t)

	err := resumer.Dispatch(context.Background(), "does-not-exist")
	assert.Error(t, err)
}
