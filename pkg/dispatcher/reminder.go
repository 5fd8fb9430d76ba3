package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/conduitcrm/conduit/pkg/eventbus"
	"github.com/conduitcrm/conduit/pkg/events"
	"github.com/conduitcrm/conduit/pkg/models"
	"github.com/conduitcrm/conduit/pkg/persistence"
	"github.com/conduitcrm/conduit/pkg/protocol"
)

// ReminderDispatcher sends a claimed single-shot reminder. The Sent marker
// is persisted only after the provider accepted the message, so a crash
// mid-send re-delivers rather than silently dropping.
type ReminderDispatcher struct {
	persistence persistence.Persistence
	provider    protocol.ChannelProvider
	eventBus    eventbus.EventBus
	logger      *slog.Logger
}

func NewReminderDispatcher(
	persistence persistence.Persistence,
	provider protocol.ChannelProvider,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
) *ReminderDispatcher {
	return &ReminderDispatcher{
		persistence: persistence,
		provider:    provider,
		eventBus:    eventBus,
		logger:      logger.With("module", "reminder_dispatcher"),
	}
}

// Dispatch sends the reminder identified by reminderID. A reminder whose
// Sent marker is already set is skipped, which makes re-claims after a crash
// harmless.
func (d *ReminderDispatcher) Dispatch(ctx context.Context, reminderID string) error {
	reminders := d.persistence.Reminders()

	reminder, err := reminders.GetByID(ctx, reminderID)
	if err != nil {
		return fmt.Errorf("failed to fetch reminder %s: %w", reminderID, err)
	}

	logger := d.logger.With("reminder_id", reminder.ID, "tenant_id", reminder.TenantID, "kind", reminder.Kind)

	if reminder.Sent || reminder.Status.IsTerminal() {
		logger.Info("Reminder already handled, skipping", "sent", reminder.Sent, "status", reminder.Status)

		return nil
	}

	reminder.Status = models.ItemStatusRunning
	reminder.UpdatedAt = time.Now().UTC()

	if err := reminders.Save(ctx, reminder); err != nil {
		return fmt.Errorf("failed to mark reminder running: %w", err)
	}

	result, err := d.provider.SendMessage(ctx, protocol.SendMessageRequest{
		ChannelID: reminder.ChannelID,
		To:        reminder.Phone,
		Type:      "text",
		Content:   reminder.Content,
	})
	if err != nil {
		reminder.Status = models.ItemStatusFailed
		reminder.Error = err.Error()
		reminder.UpdatedAt = time.Now().UTC()

		if saveErr := reminders.Save(ctx, reminder); saveErr != nil {
			logger.Error("Failed to persist reminder failure", "error", saveErr)
		}

		logger.Warn("Reminder delivery failed", "error", err)

		return fmt.Errorf("failed to send reminder %s: %w", reminder.ID, err)
	}

	now := time.Now().UTC()
	reminder.Sent = true
	reminder.SentAt = &now
	reminder.Status = models.ItemStatusCompleted
	reminder.UpdatedAt = now

	if err := reminders.Save(ctx, reminder); err != nil {
		return fmt.Errorf("failed to persist sent reminder: %w", err)
	}

	logger.Info("Reminder sent", "message_id", result.MessageID)

	event := events.ReminderSent{
		BaseEvent:  events.NewBaseEvent(events.ReminderSentEvent, reminder.TenantID),
		ReminderID: reminder.ID,
		MessageID:  result.MessageID,
	}

	if err := d.eventBus.Publish(ctx, reminder.TenantID, event); err != nil {
		logger.Warn("Failed to publish reminder sent event", "error", err)
	}

	return nil
}
