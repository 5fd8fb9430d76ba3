package protocol

import "context"

// ObjectiveStatus is the ternary outcome of an AI objective evaluation, used
// by the executor to select the next edge.
type ObjectiveStatus string

const (
	ObjectiveStatusSuccess        ObjectiveStatus = "SUCCESS"
	ObjectiveStatusSpeakToHuman   ObjectiveStatus = "SPEAK_TO_HUMAN"
	ObjectiveStatusUnableToAnswer ObjectiveStatus = "UNABLE_TO_ANSWER"
)

// Objective describes one decision step: its type and type-specific config.
type Objective struct {
	Type   string         `json:"type"`
	Config map[string]any `json:"config"`
}

// EvaluateRequest is the input to an objective evaluation.
type EvaluateRequest struct {
	TenantID       string         `json:"tenant_id"`
	ConversationID string         `json:"conversation_id,omitempty"`
	ContactID      string         `json:"contact_id,omitempty"`
	LeadID         string         `json:"lead_id,omitempty"`
	Variables      map[string]any `json:"variables"`
	Objective      Objective      `json:"objective"`
}

// EvaluateResult carries the branch outcome plus any data produced for the
// run context.
type EvaluateResult struct {
	Status     ObjectiveStatus `json:"status"`
	Data       map[string]any  `json:"data,omitempty"`
	Message    string          `json:"message,omitempty"`
	Confidence float64         `json:"confidence,omitempty"`
	TokensUsed int             `json:"tokens_used,omitempty"`
	CostUnits  float64         `json:"cost_units,omitempty"`
}

// ObjectiveEvaluator executes one decision objective. Transport failures of
// the underlying AI call are converted into an UNABLE_TO_ANSWER outcome, not
// an error; an error return means the objective itself is malformed.
type ObjectiveEvaluator interface {
	Evaluate(ctx context.Context, req EvaluateRequest) (*EvaluateResult, error)
}

// KnowledgeItem is one retrieved supporting-knowledge entry.
type KnowledgeItem struct {
	ID      string  `json:"id"`
	Title   string  `json:"title,omitempty"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// KnowledgeStore retrieves supporting knowledge for a tenant question.
type KnowledgeStore interface {
	Search(ctx context.Context, tenantID, query string, limit int) ([]KnowledgeItem, error)
}

// GenerateRequest is the input to one language-generation call.
type GenerateRequest struct {
	System string `json:"system,omitempty"`
	Prompt string `json:"prompt"`
}

// GenerateResult is the output of one language-generation call.
type GenerateResult struct {
	Text       string `json:"text"`
	TokensUsed int    `json:"tokens_used"`
}

// Generator is the language-generation collaborator behind the objective
// evaluator. The concrete vendor call lives outside the core.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}
