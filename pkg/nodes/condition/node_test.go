package condition

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduitcrm/conduit/pkg/models"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		actual   any
		operator string
		expected any
		want     bool
	}{
		{"equals matching strings", "vip", OperatorEquals, "vip", true},
		{"equals mismatched strings", "vip", OperatorEquals, "regular", false},
		{"equals compares across types", 42, OperatorEquals, "42", true},
		{"contains substring present", "hello world", OperatorContains, "world", true},
		{"contains substring absent", "hello world", OperatorContains, "mars", false},
		{"greater_than numeric true", 10.5, OperatorGreaterThan, 10, true},
		{"greater_than numeric false", 3, OperatorGreaterThan, 7, false},
		{"greater_than numeric string", "12", OperatorGreaterThan, 9, true},
		{"greater_than non-numeric actual", "abc", OperatorGreaterThan, 1, false},
		{"unknown operator", "a", "less_than", "b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.actual, tt.operator, tt.expected))
		})
	}
}

func TestNewConditionNode_Validation(t *testing.T) {
	_, err := NewConditionNode("c1", map[string]any{"operator": "equals", "value": "x"})
	assert.Error(t, err)

	_, err = NewConditionNode("c1", map[string]any{"field": "score", "operator": "less_than"})
	assert.Error(t, err)

	node, err := NewConditionNode("c1", map[string]any{"field": "score", "value": "x"})
	require.NoError(t, err)
	assert.Equal(t, OperatorEquals, node.operator)
}

func TestConditionNode_Execute(t *testing.T) {
	node, err := NewConditionNode("c1", map[string]any{
		"field":    "score",
		"operator": OperatorGreaterThan,
		"value":    50,
	})
	require.NoError(t, err)

	result, err := node.Execute(context.Background(), models.ExecutionContext{
		Variables: map[string]any{"score": 70},
	})
	require.NoError(t, err)

	assert.Equal(t, true, result.Data["result"])
	assert.Equal(t, "score", result.Data["field"])
	assert.Empty(t, result.Signal)
}

func TestConditionNode_Execute_MissingFieldIsFalse(t *testing.T) {
	node, err := NewConditionNode("c1", map[string]any{
		"field":    "score",
		"operator": OperatorGreaterThan,
		"value":    50,
	})
	require.NoError(t, err)

	result, err := node.Execute(context.Background(), models.ExecutionContext{})
	require.NoError(t, err)

	assert.Equal(t, false, result.Data["result"])
}
