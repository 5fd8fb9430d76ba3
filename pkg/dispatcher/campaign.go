// Package dispatcher contains the handlers that execute claimed scheduled
// items: campaigns and reminders.
package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/conduitcrm/conduit/pkg/dueindex"
	"github.com/conduitcrm/conduit/pkg/eventbus"
	"github.com/conduitcrm/conduit/pkg/events"
	"github.com/conduitcrm/conduit/pkg/models"
	"github.com/conduitcrm/conduit/pkg/persistence"
	"github.com/conduitcrm/conduit/pkg/protocol"
	"github.com/conduitcrm/conduit/pkg/template"
)

// Key prefixes namespacing item ids in the due index.
const (
	CampaignKeyPrefix = "campaign:"
	ReminderKeyPrefix = "reminder:"
)

// simulationDelay is the human-like pause used when a campaign enables
// typing or recording simulation.
const simulationDelay = 2 * time.Second

// SleepFunc waits for the given duration or until the context ends. Tests
// inject a no-op.
type SleepFunc func(ctx context.Context, d time.Duration) error

func ctxSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CampaignDispatcher sends a claimed campaign to its recipients one by one,
// honoring pacing and the pause/cancel controls. One dispatcher invocation
// owns the campaign record while it is running.
type CampaignDispatcher struct {
	persistence persistence.Persistence
	provider    protocol.ChannelProvider
	eventBus    eventbus.EventBus
	dueIndex    dueindex.Index
	sleep       SleepFunc
	logger      *slog.Logger
}

func NewCampaignDispatcher(
	persistence persistence.Persistence,
	provider protocol.ChannelProvider,
	eventBus eventbus.EventBus,
	dueIndex dueindex.Index,
	logger *slog.Logger,
) *CampaignDispatcher {
	return &CampaignDispatcher{
		persistence: persistence,
		provider:    provider,
		eventBus:    eventBus,
		dueIndex:    dueIndex,
		sleep:       ctxSleep,
		logger:      logger.With("module", "campaign_dispatcher"),
	}
}

// WithSleep replaces the pacing sleep. Tests use this to run instantly.
func (d *CampaignDispatcher) WithSleep(sleep SleepFunc) *CampaignDispatcher {
	d.sleep = sleep

	return d
}

// Dispatch executes the campaign identified by campaignID. Recipients are
// processed in list order; a resumed campaign continues from where the
// stats left off.
func (d *CampaignDispatcher) Dispatch(ctx context.Context, campaignID string) error {
	campaigns := d.persistence.Campaigns()

	campaign, err := campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("failed to fetch campaign %s: %w", campaignID, err)
	}

	logger := d.logger.With("campaign_id", campaign.ID, "tenant_id", campaign.TenantID)

	if campaign.Status != models.ItemStatusScheduled {
		logger.Info("Campaign not in scheduled state, skipping", "status", campaign.Status)

		return nil
	}

	now := time.Now().UTC()
	campaign.Status = models.ItemStatusRunning
	campaign.Stats.Total = len(campaign.Recipients)

	if campaign.StartedAt == nil {
		campaign.StartedAt = &now
	}

	if err := campaigns.Save(ctx, campaign); err != nil {
		return fmt.Errorf("failed to mark campaign running: %w", err)
	}

	if err := d.eventBus.Publish(ctx, campaign.TenantID, events.CampaignExecute{
		BaseEvent:  events.NewBaseEvent(events.CampaignExecuteEvent, campaign.TenantID),
		CampaignID: campaign.ID,
		Recipients: len(campaign.Recipients),
	}); err != nil {
		logger.Warn("Failed to publish campaign execute event", "error", err)
	}

	logger.Info("Campaign dispatch started", "recipients", len(campaign.Recipients))

	// Delivered recipients never repeat: a resume picks up at the offset the
	// persisted stats describe.
	offset := campaign.Stats.Sent + campaign.Stats.Failed

	for i := offset; i < len(campaign.Recipients); i++ {
		recipient := campaign.Recipients[i]

		if err := d.sendToRecipient(ctx, campaign, recipient); err != nil {
			logger.Warn("Delivery to recipient failed",
				"contact_id", recipient.ContactID, "phone", recipient.Phone, "error", err)

			campaign.Stats.Failed++
		} else {
			campaign.Stats.Sent++
		}

		// Pause and cancel are cooperative, taken at recipient boundaries.
		// Adopting the fresh status before the checkpoint keeps the stats
		// write from overwriting a pause set through the API mid-send.
		fresh, err := campaigns.GetByID(ctx, campaign.ID)
		if err == nil && (fresh.Status == models.ItemStatusPaused || fresh.Status == models.ItemStatusCancelled) {
			campaign.Status = fresh.Status
		}

		if err := campaigns.Save(ctx, campaign); err != nil {
			logger.Error("Failed to checkpoint campaign stats", "error", err)
		}

		if campaign.Status != models.ItemStatusRunning {
			logger.Info("Campaign dispatch interrupted", "status", campaign.Status, "delivered", i+1)

			return nil
		}

		if i < len(campaign.Recipients)-1 {
			if err := d.sleep(ctx, time.Duration(campaign.DelaySeconds)*time.Second); err != nil {
				return err
			}
		}
	}

	return d.finish(ctx, campaign, logger)
}

// sendToRecipient delivers the campaign's message sequence to one recipient.
// The first failing message fails the whole recipient.
func (d *CampaignDispatcher) sendToRecipient(ctx context.Context, campaign *models.Campaign, recipient models.Recipient) error {
	if campaign.SimulateTyping || campaign.SimulateRecording {
		if err := d.sleep(ctx, simulationDelay); err != nil {
			return err
		}
	}

	for i, msg := range campaign.Messages {
		content, err := template.RenderRecipient(msg.Content, recipient)
		if err != nil {
			return fmt.Errorf("failed to render message %d: %w", i, err)
		}

		_, err = d.provider.SendMessage(ctx, protocol.SendMessageRequest{
			ChannelID: campaign.ChannelID,
			To:        recipient.Phone,
			Type:      msg.Type,
			Content:   content,
			MediaURL:  msg.MediaURL,
		})
		if err != nil {
			return fmt.Errorf("failed to send message %d: %w", i, err)
		}

		if i < len(campaign.Messages)-1 {
			if err := d.sleep(ctx, time.Duration(msg.DelayAfterSeconds)*time.Second); err != nil {
				return err
			}
		}
	}

	return nil
}

// finish closes out a fully traversed campaign: terminal status, completion
// event, and the next occurrence for recurring campaigns.
func (d *CampaignDispatcher) finish(ctx context.Context, campaign *models.Campaign, logger *slog.Logger) error {
	now := time.Now().UTC()
	campaign.CompletedAt = &now

	// Failed only when nothing was delivered at all.
	if campaign.Stats.Total > 0 && campaign.Stats.Failed == campaign.Stats.Total {
		campaign.Status = models.ItemStatusFailed
	} else {
		campaign.Status = models.ItemStatusCompleted
	}

	if err := d.persistence.Campaigns().Save(ctx, campaign); err != nil {
		return fmt.Errorf("failed to persist campaign completion: %w", err)
	}

	logger.Info("Campaign dispatch finished",
		"status", campaign.Status,
		"sent", campaign.Stats.Sent,
		"failed", campaign.Stats.Failed)

	if err := d.eventBus.Publish(ctx, campaign.TenantID, events.CampaignCompleted{
		BaseEvent:  events.NewBaseEvent(events.CampaignCompletedEvent, campaign.TenantID),
		CampaignID: campaign.ID,
		Sent:       campaign.Stats.Sent,
		Failed:     campaign.Stats.Failed,
		Total:      campaign.Stats.Total,
	}); err != nil {
		logger.Warn("Failed to publish campaign completed event", "error", err)
	}

	if campaign.CronExpression != "" {
		return d.reschedule(ctx, campaign, now, logger)
	}

	return nil
}

// reschedule creates the next occurrence of a recurring campaign with fresh
// stats and re-inserts it into the due index.
func (d *CampaignDispatcher) reschedule(ctx context.Context, campaign *models.Campaign, after time.Time, logger *slog.Logger) error {
	next, err := campaign.NextDueAt(after)
	if err != nil {
		return fmt.Errorf("failed to compute next occurrence: %w", err)
	}

	campaign.Status = models.ItemStatusScheduled
	campaign.Stats = models.DeliveryStats{Total: len(campaign.Recipients)}
	campaign.DueAt = next
	campaign.StartedAt = nil
	campaign.CompletedAt = nil
	campaign.UpdatedAt = time.Now().UTC()

	if err := d.persistence.Campaigns().Save(ctx, campaign); err != nil {
		return fmt.Errorf("failed to persist rescheduled campaign: %w", err)
	}

	if err := d.dueIndex.Insert(ctx, CampaignKeyPrefix+campaign.ID, next); err != nil {
		return fmt.Errorf("failed to index rescheduled campaign: %w", err)
	}

	logger.Info("Recurring campaign rescheduled", "next_due_at", next)

	return nil
}
