package web

import (
	"time"

	"github.com/conduitcrm/conduit/pkg/models"
)

// CreateWorkflowRequest is the payload for creating a draft workflow.
type CreateWorkflowRequest struct {
	Name        string         `json:"name"        validate:"required,min=3,max=100"`
	Description string         `json:"description" validate:"max=500"`
	Nodes       []*models.Node `json:"nodes"`
	Edges       []*models.Edge `json:"edges"`
	Variables   map[string]any `json:"variables"`
}

// UpdateWorkflowRequest is the payload for partially updating a draft
// workflow. Nil fields are left unchanged.
type UpdateWorkflowRequest struct {
	Name        *string        `json:"name,omitempty"        validate:"omitempty,min=3,max=100"`
	Description *string        `json:"description,omitempty" validate:"omitempty,max=500"`
	Nodes       []*models.Node `json:"nodes,omitempty"`
	Edges       []*models.Edge `json:"edges,omitempty"`
	Variables   map[string]any `json:"variables,omitempty"`
}

// TriggerRunRequest is the payload for starting a workflow run.
type TriggerRunRequest struct {
	TriggerData map[string]any `json:"trigger_data"`
}

// ScheduleCampaignRequest is the payload for scheduling a campaign.
type ScheduleCampaignRequest struct {
	Name              string                   `json:"name"       validate:"required,min=3,max=100"`
	ChannelID         string                   `json:"channel_id" validate:"required"`
	Recipients        []models.Recipient       `json:"recipients" validate:"required,min=1,dive"`
	Messages          []models.CampaignMessage `json:"messages"   validate:"required,min=1,dive"`
	DelaySeconds      int                      `json:"delay_seconds"      validate:"min=0"`
	SimulateTyping    bool                     `json:"simulate_typing"`
	SimulateRecording bool                     `json:"simulate_recording"`
	CronExpression    string                   `json:"cron_expression,omitempty"`
	DueAt             *time.Time               `json:"due_at,omitempty"`
}

// ScheduleReminderRequest is the payload for scheduling a reminder.
type ScheduleReminderRequest struct {
	Kind      models.ReminderKind `json:"kind"       validate:"required,oneof=appointment feedback"`
	ContactID string              `json:"contact_id"`
	Phone     string              `json:"phone"      validate:"required"`
	ChannelID string              `json:"channel_id" validate:"required"`
	Content   string              `json:"content"    validate:"required"`
	DueAt     *time.Time          `json:"due_at,omitempty"`
}
