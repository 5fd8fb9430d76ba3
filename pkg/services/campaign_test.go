package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/conduitcrm/conduit/pkg/dueindex"
	"github.com/conduitcrm/conduit/pkg/mocks"
	"github.com/conduitcrm/conduit/pkg/models"
	"github.com/conduitcrm/conduit/pkg/persistence/file"
)

func newCampaignService(t *testing.T) (*Campaign, *dueindex.MemoryIndex) {
	t.Helper()

	store, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	index := dueindex.NewMemoryIndex()

	eventBus := &mocks.MockEventBus{}
	eventBus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	return NewCampaign(store, index, eventBus), index
}

func schedulableCampaign() *models.Campaign {
	return &models.Campaign{
		TenantID:  "tenant-1",
		Name:      "promo",
		ChannelID: "chan-1",
		Recipients: []models.Recipient{
			{ContactID: "c1", Phone: "+5511999990001"},
			{ContactID: "c2", Phone: "+5511999990002"},
		},
		Messages: []models.CampaignMessage{{Type: "text", Content: "hi"}},
		DueAt:    time.Now().UTC().Add(time.Hour),
	}
}

func claimAll(t *testing.T, index *dueindex.MemoryIndex) []string {
	t.Helper()

	claimed, err := index.ClaimDue(context.Background(), time.Now().Add(24*time.Hour))
	require.NoError(t, err)

	return claimed
}

func TestCampaignService_ScheduleIndexesAtDueTime(t *testing.T) {
	service, index := newCampaignService(t)

	scheduled, err := service.Schedule(context.Background(), schedulableCampaign())
	require.NoError(t, err)

	assert.NotEmpty(t, scheduled.ID)
	assert.Equal(t, models.ItemStatusScheduled, scheduled.Status)
	assert.Equal(t, models.DeliveryStats{Total: 2}, scheduled.Stats)

	// Not due yet.
	notDue, err := index.ClaimDue(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, notDue)

	assert.Equal(t, []string{"campaign:" + scheduled.ID}, claimAll(t, index))
}

func TestCampaignService_ScheduleRejectsInvalidCampaign(t *testing.T) {
	service, _ := newCampaignService(t)

	invalid := schedulableCampaign()
	invalid.Messages = nil

	_, err := service.Schedule(context.Background(), invalid)
	assert.Error(t, err)
}

func TestCampaignService_ScheduleDefaultsDueAtToNow(t *testing.T) {
	service, index := newCampaignService(t)

	campaign := schedulableCampaign()
	campaign.DueAt = time.Time{}

	scheduled, err := service.Schedule(context.Background(), campaign)
	require.NoError(t, err)
	assert.False(t, scheduled.DueAt.IsZero())

	claimed, err := index.ClaimDue(context.Background(), time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.Len(t, claimed, 1)
}

func TestCampaignService_PauseRemovesScheduledFromIndex(t *testing.T) {
	service, index := newCampaignService(t)
	ctx := context.Background()

	scheduled, err := service.Schedule(ctx, schedulableCampaign())
	require.NoError(t, err)

	paused, err := service.Pause(ctx, scheduled.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusPaused, paused.Status)

	// Paused campaigns are never claimed.
	assert.Empty(t, claimAll(t, index))
}

func TestCampaignService_ResumeReindexesImmediately(t *testing.T) {
	service, index := newCampaignService(t)
	ctx := context.Background()

	scheduled, err := service.Schedule(ctx, schedulableCampaign())
	require.NoError(t, err)

	_, err = service.Pause(ctx, scheduled.ID)
	require.NoError(t, err)

	resumed, err := service.Resume(ctx, scheduled.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusScheduled, resumed.Status)

	// Resume schedules for immediate pickup regardless of the original DueAt.
	claimed, err := index.ClaimDue(ctx, time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, []string{"campaign:" + scheduled.ID}, claimed)
}

func TestCampaignService_ResumeRequiresPaused(t *testing.T) {
	service, _ := newCampaignService(t)
	ctx := context.Background()

	scheduled, err := service.Schedule(ctx, schedulableCampaign())
	require.NoError(t, err)

	_, err = service.Resume(ctx, scheduled.ID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestCampaignService_CancelIsTerminal(t *testing.T) {
	service, index := newCampaignService(t)
	ctx := context.Background()

	scheduled, err := service.Schedule(ctx, schedulableCampaign())
	require.NoError(t, err)

	cancelled, err := service.Cancel(ctx, scheduled.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CompletedAt)
	assert.Empty(t, claimAll(t, index))

	_, err = service.Cancel(ctx, scheduled.ID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	_, err = service.Resume(ctx, scheduled.ID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}
