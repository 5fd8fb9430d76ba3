package aiobjective

import (
	"context"

	"github.com/conduitcrm/conduit/pkg/models"
	"github.com/conduitcrm/conduit/pkg/protocol"
)

// Factory creates ObjectiveNode instances bound to the objective evaluator.
type Factory struct {
	evaluator protocol.ObjectiveEvaluator
}

// NewFactory creates a new factory instance.
func NewFactory(evaluator protocol.ObjectiveEvaluator) protocol.NodeFactory {
	return &Factory{evaluator: evaluator}
}

// Create creates a new ObjectiveNode instance.
func (f *Factory) Create(_ context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewObjectiveNode(id, config, f.evaluator)
}

// Type returns the node type produced by this factory.
func (f *Factory) Type() models.NodeType {
	return models.NodeTypeAIObjective
}

// Description returns the factory description.
func (f *Factory) Description() string {
	return "Runs an AI decision objective and branches on its SUCCESS / SPEAK_TO_HUMAN / UNABLE_TO_ANSWER outcome"
}

// Schema returns the JSON schema for AI objective node configuration.
func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"objective": map[string]any{
				"type": "string",
				"enum": []string{"answer_question", "collect_info", "qualify_lead"},
			},
			"config": map[string]any{
				"type": "object",
			},
		},
		"required": []string{"objective"},
	}
}
