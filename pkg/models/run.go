package models

import "time"

// RunStatus defines the lifecycle states of a workflow run. Completed, failed
// and cancelled are terminal.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// WorkflowRun is one execution instance of a workflow graph. It is created
// when a trigger fires and mutated only by the executor owning the run.
type WorkflowRun struct {
	ID          string         `json:"id"`
	WorkflowID  string         `json:"workflow_id" validate:"required"`
	TenantID    string         `json:"tenant_id"   validate:"required"`
	Status      RunStatus      `json:"status"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
	Context     map[string]any `json:"context,omitempty"`
	Result      map[string]any `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`

	// ResumeNodeID is set when the run is parked on a long delay and will be
	// woken through the due index. Empty for runs executing from the trigger.
	ResumeNodeID string `json:"resume_node_id,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// IsTerminal reports whether the run reached a final state.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed || s == RunStatusCancelled
}

// NodeLogStatus defines the outcome recorded for one node visit.
type NodeLogStatus string

const (
	NodeLogStatusSuccess NodeLogStatus = "success"
	NodeLogStatusError   NodeLogStatus = "error"
	NodeLogStatusSkipped NodeLogStatus = "skipped"
)

// NodeExecutionLog is the append-only audit record for one node visited in a
// run, including timing and cost accounting.
type NodeExecutionLog struct {
	ID             string         `json:"id"`
	RunID          string         `json:"run_id"`
	NodeID         string         `json:"node_id"`
	NodeType       NodeType       `json:"node_type"`
	Status         NodeLogStatus  `json:"status"`
	InputSnapshot  map[string]any `json:"input_snapshot,omitempty"`
	OutputSnapshot map[string]any `json:"output_snapshot,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	DurationMs     int64          `json:"duration_ms"`
	TokensUsed     int            `json:"tokens_used"`
	CostUnits      float64        `json:"cost_units"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ExecutionContext carries the mutable state of one run through node
// execution. Variables accumulate the shallow-merged output of every
// successful node in traversal order.
type ExecutionContext struct {
	RunID       string         `json:"run_id"`
	WorkflowID  string         `json:"workflow_id"`
	TenantID    string         `json:"tenant_id"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
	Variables   map[string]any `json:"variables,omitempty"`
}

// Merge shallow-overwrites the context variables with the given data.
func (ec *ExecutionContext) Merge(data map[string]any) {
	if ec.Variables == nil {
		ec.Variables = make(map[string]any, len(data))
	}

	for k, v := range data {
		ec.Variables[k] = v
	}
}

// Snapshot returns a copy of the current variables for audit logging.
func (ec *ExecutionContext) Snapshot() map[string]any {
	snapshot := make(map[string]any, len(ec.Variables))
	for k, v := range ec.Variables {
		snapshot[k] = v
	}

	return snapshot
}

// NodeResult is the outcome of one node capability execution.
type NodeResult struct {
	// Data is shallow-merged into the run context on success.
	Data map[string]any `json:"data"`

	// Signal is the branch signal used for edge selection. Only AI objective
	// nodes produce one; empty means "take the default edge".
	Signal string `json:"signal,omitempty"`

	// DelayUntil parks the run via the due index instead of holding a worker
	// slot. Set by delay nodes whose wait exceeds the inline threshold.
	DelayUntil *time.Time `json:"delay_until,omitempty"`

	TokensUsed int     `json:"tokens_used"`
	CostUnits  float64 `json:"cost_units"`
}
