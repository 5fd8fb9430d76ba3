// Package condition provides the comparison node for workflow graphs. It
// evaluates a single field of the run context against a configured value and
// writes the boolean result back into the context.
package condition

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/conduitcrm/conduit/pkg/models"
)

// Supported operators.
const (
	OperatorEquals      = "equals"
	OperatorContains    = "contains"
	OperatorGreaterThan = "greater_than"
)

// ConditionNode compares a context field against a configured value.
type ConditionNode struct {
	id       string
	field    string
	operator string
	value    any
}

// NewConditionNode creates a new condition node.
func NewConditionNode(id string, config map[string]any) (*ConditionNode, error) {
	field, ok := config["field"].(string)
	if !ok || field == "" {
		return nil, errors.New("missing required field 'field'")
	}

	operator, ok := config["operator"].(string)
	if !ok {
		operator = OperatorEquals
	}

	switch operator {
	case OperatorEquals, OperatorContains, OperatorGreaterThan:
	default:
		return nil, fmt.Errorf("unsupported operator '%s'", operator)
	}

	return &ConditionNode{
		id:       id,
		field:    field,
		operator: operator,
		value:    config["value"],
	}, nil
}

// ID returns the node ID.
func (n *ConditionNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *ConditionNode) Type() models.NodeType {
	return models.NodeTypeCondition
}

// Execute evaluates the comparison against the run context.
func (n *ConditionNode) Execute(_ context.Context, ec models.ExecutionContext) (*models.NodeResult, error) {
	actual := ec.Variables[n.field]
	result := Evaluate(actual, n.operator, n.value)

	return &models.NodeResult{
		Data: map[string]any{
			"result":   result,
			"field":    n.field,
			"operator": n.operator,
		},
	}, nil
}

// Evaluate applies one operator to an actual and expected value. Kept as a
// pure function so it is independently testable.
func Evaluate(actual any, operator string, expected any) bool {
	switch operator {
	case OperatorEquals:
		return fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", expected)
	case OperatorContains:
		return strings.Contains(fmt.Sprintf("%v", actual), fmt.Sprintf("%v", expected))
	case OperatorGreaterThan:
		left, ok1 := toFloat(actual)
		right, ok2 := toFloat(expected)

		return ok1 && ok2 && left > right
	default:
		return false
	}
}

func toFloat(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int:
		return float64(value), true
	case int32:
		return float64(value), true
	case int64:
		return float64(value), true
	case string:
		f, err := strconv.ParseFloat(value, 64)

		return f, err == nil
	default:
		return 0, false
	}
}
