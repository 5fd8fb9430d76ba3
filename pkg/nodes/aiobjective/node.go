// Package aiobjective provides the decision node for workflow graphs. It
// delegates to the objective evaluator and surfaces the ternary outcome as
// the branch signal used for edge selection.
package aiobjective

import (
	"context"
	"errors"

	"github.com/conduitcrm/conduit/pkg/models"
	"github.com/conduitcrm/conduit/pkg/protocol"
)

// ObjectiveNode evaluates one AI decision objective.
type ObjectiveNode struct {
	id            string
	objectiveType string
	config        map[string]any
	evaluator     protocol.ObjectiveEvaluator
}

// NewObjectiveNode creates a new AI objective node.
func NewObjectiveNode(id string, config map[string]any, evaluator protocol.ObjectiveEvaluator) (*ObjectiveNode, error) {
	if evaluator == nil {
		return nil, errors.New("ai_objective node requires an objective evaluator")
	}

	objectiveType, ok := config["objective"].(string)
	if !ok || objectiveType == "" {
		return nil, errors.New("missing required field 'objective'")
	}

	objectiveConfig, _ := config["config"].(map[string]any)

	return &ObjectiveNode{
		id:            id,
		objectiveType: objectiveType,
		config:        objectiveConfig,
		evaluator:     evaluator,
	}, nil
}

// ID returns the node ID.
func (n *ObjectiveNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *ObjectiveNode) Type() models.NodeType {
	return models.NodeTypeAIObjective
}

// Execute evaluates the objective. Evaluator errors mean the objective is
// malformed and fail the run; transport-level failures of the AI call were
// already converted into a ternary outcome by the evaluator.
func (n *ObjectiveNode) Execute(ctx context.Context, ec models.ExecutionContext) (*models.NodeResult, error) {
	contactID, _ := ec.Variables["contact_id"].(string)
	leadID, _ := ec.Variables["lead_id"].(string)
	conversationID, _ := ec.Variables["conversation_id"].(string)

	result, err := n.evaluator.Evaluate(ctx, protocol.EvaluateRequest{
		TenantID:       ec.TenantID,
		ConversationID: conversationID,
		ContactID:      contactID,
		LeadID:         leadID,
		Variables:      ec.Variables,
		Objective: protocol.Objective{
			Type:   n.objectiveType,
			Config: n.config,
		},
	})
	if err != nil {
		return nil, err
	}

	data := make(map[string]any, len(result.Data)+3)
	for k, v := range result.Data {
		data[k] = v
	}

	data["status"] = string(result.Status)

	if result.Message != "" {
		data["message"] = result.Message
	}

	if result.Confidence > 0 {
		data["confidence"] = result.Confidence
	}

	return &models.NodeResult{
		Data:       data,
		Signal:     string(result.Status),
		TokensUsed: result.TokensUsed,
		CostUnits:  result.CostUnits,
	}, nil
}
