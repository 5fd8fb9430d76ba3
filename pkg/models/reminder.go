package models

import "time"

// ReminderKind distinguishes the single-shot scheduled sends.
type ReminderKind string

const (
	ReminderKindAppointment ReminderKind = "appointment"
	ReminderKindFeedback    ReminderKind = "feedback"
)

// Reminder is a single-shot scheduled send to one recipient, woken through
// the due index. Sent is the idempotency marker: once set, a poller
// re-claiming the same logical item after a crash must not send again.
type Reminder struct {
	ID        string       `json:"id"`
	TenantID  string       `json:"tenant_id"  validate:"required"`
	Kind      ReminderKind `json:"kind"       validate:"required,oneof=appointment feedback"`
	Status    ItemStatus   `json:"status"`
	ContactID string       `json:"contact_id"`
	Phone     string       `json:"phone"      validate:"required"`
	ChannelID string       `json:"channel_id" validate:"required"`
	Content   string       `json:"content"    validate:"required"`

	Sent   bool       `json:"sent"`
	SentAt *time.Time `json:"sent_at,omitempty"`
	Error  string     `json:"error,omitempty"`

	DueAt     time.Time `json:"due_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
