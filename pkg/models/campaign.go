package models

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"
)

// ItemStatus defines the lifecycle states shared by scheduled items
// (campaigns and reminders).
type ItemStatus string

const (
	ItemStatusScheduled ItemStatus = "scheduled"
	ItemStatusRunning   ItemStatus = "running"
	ItemStatusPaused    ItemStatus = "paused"
	ItemStatusCompleted ItemStatus = "completed"
	ItemStatusFailed    ItemStatus = "failed"
	ItemStatusCancelled ItemStatus = "cancelled"
)

// IsTerminal reports whether the item reached a final state.
func (s ItemStatus) IsTerminal() bool {
	return s == ItemStatusCompleted || s == ItemStatusFailed || s == ItemStatusCancelled
}

// CampaignMessage is one message in a campaign's per-recipient sequence.
// DelayAfterSeconds paces delivery between messages of the same recipient.
type CampaignMessage struct {
	Type              string `json:"type"                validate:"required,oneof=text image audio video document"`
	Content           string `json:"content"             validate:"required"`
	MediaURL          string `json:"media_url,omitempty"`
	DelayAfterSeconds int    `json:"delay_after,omitempty"`
}

// Recipient is one delivery target of a campaign. Data feeds message
// template rendering ({{.name}} etc.).
type Recipient struct {
	ContactID string         `json:"contact_id"`
	Phone     string         `json:"phone" validate:"required"`
	Data      map[string]any `json:"data,omitempty"`
}

// DeliveryStats tracks campaign progress. Mutated only by the dispatcher
// owning the campaign while it is running.
type DeliveryStats struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

// Campaign is a scheduled bulk send: an ordered recipient list, a message
// sequence and pacing configuration, woken through the due index at DueAt.
type Campaign struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenant_id" validate:"required"`
	Name      string     `json:"name"      validate:"required"`
	Status    ItemStatus `json:"status"`
	ChannelID string     `json:"channel_id" validate:"required"`

	Recipients []Recipient       `json:"recipients" validate:"required,min=1,dive"`
	Messages   []CampaignMessage `json:"messages"   validate:"required,min=1,dive"`

	// DelaySeconds paces delivery between recipients to avoid provider
	// throttling. SimulateTyping/SimulateRecording add a human-like pause
	// before each recipient's first message.
	DelaySeconds      int  `json:"delay_seconds"`
	SimulateTyping    bool `json:"simulate_typing"`
	SimulateRecording bool `json:"simulate_recording"`

	// CronExpression, when set, reschedules the campaign after completion
	// using standard 5-field cron format.
	CronExpression string `json:"cron_expression,omitempty"`

	Stats DeliveryStats `json:"stats"`

	DueAt       time.Time  `json:"due_at"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ErrNotRecurring is returned by NextDueAt for one-shot campaigns.
var ErrNotRecurring = errors.New("campaign has no cron expression")

// NextDueAt computes the next occurrence for a recurring campaign after the
// given reference time.
func (c *Campaign) NextDueAt(after time.Time) (time.Time, error) {
	if c.CronExpression == "" {
		return time.Time{}, ErrNotRecurring
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

	schedule, err := parser.Parse(c.CronExpression)
	if err != nil {
		return time.Time{}, err
	}

	return schedule.Next(after), nil
}

// Validate checks schedulable invariants beyond struct tags.
func (c *Campaign) Validate() error {
	if len(c.Recipients) == 0 {
		return errors.New("campaign requires at least one recipient")
	}

	if len(c.Messages) == 0 {
		return errors.New("campaign requires at least one message")
	}

	if c.CronExpression != "" {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		if _, err := parser.Parse(c.CronExpression); err != nil {
			return err
		}
	}

	return nil
}
