package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/conduitcrm/conduit/pkg/dueindex"
	"github.com/conduitcrm/conduit/pkg/eventbus"
	"github.com/conduitcrm/conduit/pkg/events"
	"github.com/conduitcrm/conduit/pkg/models"
	"github.com/conduitcrm/conduit/pkg/persistence"
)

// campaignKeyPrefix must match the prefix the scheduler poller routes on.
const campaignKeyPrefix = "campaign:"

// Campaign manages scheduled campaigns: creation, pause, resume, cancel.
// Actual delivery happens in the dispatcher once the due index wakes the
// campaign.
type Campaign struct {
	persistence persistence.Persistence
	dueIndex    dueindex.Index
	eventBus    eventbus.EventBus
}

func NewCampaign(persistence persistence.Persistence, dueIndex dueindex.Index, eventBus eventbus.EventBus) *Campaign {
	return &Campaign{
		persistence: persistence,
		dueIndex:    dueIndex,
		eventBus:    eventBus,
	}
}

// Schedule stores the campaign and indexes it at its due time. A due time in
// the past is dispatched on the next poll tick.
func (s *Campaign) Schedule(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	if err := campaign.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	campaign.ID = uuid.New().String()
	campaign.Status = models.ItemStatusScheduled
	campaign.Stats = models.DeliveryStats{Total: len(campaign.Recipients)}
	campaign.ScheduledAt = now
	campaign.CreatedAt = now
	campaign.UpdatedAt = now

	if campaign.DueAt.IsZero() {
		campaign.DueAt = now
	}

	if err := s.persistence.Campaigns().Save(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to save campaign: %w", err)
	}

	if err := s.dueIndex.Insert(ctx, campaignKeyPrefix+campaign.ID, campaign.DueAt); err != nil {
		return nil, fmt.Errorf("failed to index campaign: %w", err)
	}

	return campaign, nil
}

// Pause stops a running or scheduled campaign. A running dispatch notices at
// the next recipient boundary; a scheduled campaign is pulled from the index
// so it is not claimed while paused.
func (s *Campaign) Pause(ctx context.Context, campaignID string) (*models.Campaign, error) {
	campaign, err := s.persistence.Campaigns().GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	if campaign.Status != models.ItemStatusRunning && campaign.Status != models.ItemStatusScheduled {
		return nil, ErrInvalidStateTransition
	}

	if campaign.Status == models.ItemStatusScheduled {
		if err := s.dueIndex.Remove(ctx, campaignKeyPrefix+campaign.ID); err != nil {
			return nil, fmt.Errorf("failed to deindex campaign: %w", err)
		}
	}

	campaign.Status = models.ItemStatusPaused
	campaign.UpdatedAt = time.Now().UTC()

	if err := s.persistence.Campaigns().Save(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to pause campaign: %w", err)
	}

	if err := s.eventBus.Publish(ctx, campaign.TenantID, events.CampaignPaused{
		BaseEvent:  events.NewBaseEvent(events.CampaignPausedEvent, campaign.TenantID),
		CampaignID: campaign.ID,
	}); err != nil {
		return campaign, fmt.Errorf("campaign paused but event not delivered: %w", err)
	}

	return campaign, nil
}

// Resume puts a paused campaign back in the index for immediate pickup. The
// dispatcher continues from the persisted stats, so delivered recipients do
// not repeat.
func (s *Campaign) Resume(ctx context.Context, campaignID string) (*models.Campaign, error) {
	campaign, err := s.persistence.Campaigns().GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	if campaign.Status != models.ItemStatusPaused {
		return nil, ErrInvalidStateTransition
	}

	campaign.Status = models.ItemStatusScheduled
	campaign.UpdatedAt = time.Now().UTC()

	if err := s.persistence.Campaigns().Save(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to resume campaign: %w", err)
	}

	if err := s.dueIndex.Insert(ctx, campaignKeyPrefix+campaign.ID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to index resumed campaign: %w", err)
	}

	if err := s.eventBus.Publish(ctx, campaign.TenantID, events.CampaignResumed{
		BaseEvent:  events.NewBaseEvent(events.CampaignResumedEvent, campaign.TenantID),
		CampaignID: campaign.ID,
	}); err != nil {
		return campaign, fmt.Errorf("campaign resumed but event not delivered: %w", err)
	}

	return campaign, nil
}

// Cancel terminates a campaign in any non-terminal state. A running dispatch
// stops at the next recipient boundary; already delivered messages stand.
func (s *Campaign) Cancel(ctx context.Context, campaignID string) (*models.Campaign, error) {
	campaign, err := s.persistence.Campaigns().GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	if campaign.Status.IsTerminal() {
		return nil, ErrInvalidStateTransition
	}

	if err := s.dueIndex.Remove(ctx, campaignKeyPrefix+campaign.ID); err != nil {
		return nil, fmt.Errorf("failed to deindex campaign: %w", err)
	}

	now := time.Now().UTC()
	campaign.Status = models.ItemStatusCancelled
	campaign.CompletedAt = &now
	campaign.UpdatedAt = now

	if err := s.persistence.Campaigns().Save(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to cancel campaign: %w", err)
	}

	if err := s.eventBus.Publish(ctx, campaign.TenantID, events.CampaignCancelled{
		BaseEvent:  events.NewBaseEvent(events.CampaignCancelledEvent, campaign.TenantID),
		CampaignID: campaign.ID,
	}); err != nil {
		return campaign, fmt.Errorf("campaign cancelled but event not delivered: %w", err)
	}

	return campaign, nil
}

// Get fetches one campaign.
func (s *Campaign) Get(ctx context.Context, campaignID string) (*models.Campaign, error) {
	return s.persistence.Campaigns().GetByID(ctx, campaignID)
}

// List returns the tenant's campaigns.
func (s *Campaign) List(ctx context.Context, tenantID string) ([]*models.Campaign, error) {
	return s.persistence.Campaigns().List(ctx, tenantID)
}
