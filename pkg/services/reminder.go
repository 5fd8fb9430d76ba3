package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/conduitcrm/conduit/pkg/dueindex"
	"github.com/conduitcrm/conduit/pkg/models"
	"github.com/conduitcrm/conduit/pkg/persistence"
)

// reminderKeyPrefix must match the prefix the scheduler poller routes on.
const reminderKeyPrefix = "reminder:"

// Reminder manages single-shot scheduled sends.
type Reminder struct {
	persistence persistence.Persistence
	dueIndex    dueindex.Index
}

func NewReminder(persistence persistence.Persistence, dueIndex dueindex.Index) *Reminder {
	return &Reminder{
		persistence: persistence,
		dueIndex:    dueIndex,
	}
}

// Schedule stores the reminder and indexes it at its due time.
func (s *Reminder) Schedule(ctx context.Context, reminder *models.Reminder) (*models.Reminder, error) {
	now := time.Now().UTC()

	reminder.ID = uuid.New().String()
	reminder.Status = models.ItemStatusScheduled
	reminder.Sent = false
	reminder.CreatedAt = now
	reminder.UpdatedAt = now

	if reminder.DueAt.IsZero() {
		reminder.DueAt = now
	}

	if err := s.persistence.Reminders().Save(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to save reminder: %w", err)
	}

	if err := s.dueIndex.Insert(ctx, reminderKeyPrefix+reminder.ID, reminder.DueAt); err != nil {
		return nil, fmt.Errorf("failed to index reminder: %w", err)
	}

	return reminder, nil
}

// Cancel drops a pending reminder. Already sent reminders cannot be
// cancelled.
func (s *Reminder) Cancel(ctx context.Context, reminderID string) (*models.Reminder, error) {
	reminder, err := s.persistence.Reminders().GetByID(ctx, reminderID)
	if err != nil {
		return nil, err
	}

	if reminder.Sent || reminder.Status.IsTerminal() {
		return nil, ErrInvalidStateTransition
	}

	if err := s.dueIndex.Remove(ctx, reminderKeyPrefix+reminder.ID); err != nil {
		return nil, fmt.Errorf("failed to deindex reminder: %w", err)
	}

	now := time.Now().UTC()
	reminder.Status = models.ItemStatusCancelled
	reminder.UpdatedAt = now

	if err := s.persistence.Reminders().Save(ctx, reminder); err != nil {
		return nil, fmt.Errorf("failed to cancel reminder: %w", err)
	}

	return reminder, nil
}

// Get fetches one reminder.
func (s *Reminder) Get(ctx context.Context, reminderID string) (*models.Reminder, error) {
	return s.persistence.Reminders().GetByID(ctx, reminderID)
}
