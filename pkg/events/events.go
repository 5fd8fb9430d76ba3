// Package events defines the event types published on the bus for workflow
// and campaign lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic is the bus topic carrying all engine events.
const Topic = "conduit.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Workflow lifecycle events.
	WorkflowTriggeredEvent          EventType = "workflow.triggered"
	WorkflowExecutionCompletedEvent EventType = "workflow.execution.completed"
	WorkflowExecutionFailedEvent    EventType = "workflow.execution.failed"
	WorkflowPublishedEvent          EventType = "workflow.published"

	// Campaign lifecycle events.
	CampaignExecuteEvent   EventType = "campaign.execute"
	CampaignPausedEvent    EventType = "campaign.paused"
	CampaignResumedEvent   EventType = "campaign.resumed"
	CampaignCancelledEvent EventType = "campaign.cancelled"
	CampaignCompletedEvent EventType = "campaign.completed"

	// Reminder lifecycle events.
	ReminderSentEvent EventType = "reminder.sent"
)

// Event is implemented by every published event.
type Event interface {
	GetType() EventType
}

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	TenantID  string         `json:"tenant_id"`
	WorkerID  string         `json:"worker_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent stamps a fresh event envelope.
func NewBaseEvent(eventType EventType, tenantID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		TenantID:  tenantID,
	}
}

type WorkflowTriggered struct {
	BaseEvent

	WorkflowID  string         `json:"workflow_id"`
	RunID       string         `json:"run_id"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
}

func (w WorkflowTriggered) GetType() EventType {
	return WorkflowTriggeredEvent
}

type WorkflowExecutionCompleted struct {
	BaseEvent

	WorkflowID string         `json:"workflow_id"`
	RunID      string         `json:"run_id"`
	Result     map[string]any `json:"result,omitempty"`
	Duration   time.Duration  `json:"duration"`
}

func (w WorkflowExecutionCompleted) GetType() EventType {
	return WorkflowExecutionCompletedEvent
}

type WorkflowExecutionFailed struct {
	BaseEvent

	WorkflowID string        `json:"workflow_id"`
	RunID      string        `json:"run_id"`
	Error      string        `json:"error"`
	Duration   time.Duration `json:"duration"`
}

func (w WorkflowExecutionFailed) GetType() EventType {
	return WorkflowExecutionFailedEvent
}

type WorkflowPublished struct {
	BaseEvent

	WorkflowID string `json:"workflow_id"`
	Version    int    `json:"version"`
}

func (w WorkflowPublished) GetType() EventType {
	return WorkflowPublishedEvent
}

type CampaignExecute struct {
	BaseEvent

	CampaignID string `json:"campaign_id"`
	Recipients int    `json:"recipients"`
}

func (c CampaignExecute) GetType() EventType {
	return CampaignExecuteEvent
}

type CampaignPaused struct {
	BaseEvent

	CampaignID string `json:"campaign_id"`
}

func (c CampaignPaused) GetType() EventType {
	return CampaignPausedEvent
}

type CampaignResumed struct {
	BaseEvent

	CampaignID string `json:"campaign_id"`
}

func (c CampaignResumed) GetType() EventType {
	return CampaignResumedEvent
}

type CampaignCancelled struct {
	BaseEvent

	CampaignID string `json:"campaign_id"`
}

func (c CampaignCancelled) GetType() EventType {
	return CampaignCancelledEvent
}

type CampaignCompleted struct {
	BaseEvent

	CampaignID string `json:"campaign_id"`
	Sent       int    `json:"sent"`
	Failed     int    `json:"failed"`
	Total      int    `json:"total"`
}

func (c CampaignCompleted) GetType() EventType {
	return CampaignCompletedEvent
}

type ReminderSent struct {
	BaseEvent

	ReminderID string `json:"reminder_id"`
	MessageID  string `json:"message_id,omitempty"`
}

func (r ReminderSent) GetType() EventType {
	return ReminderSentEvent
}
