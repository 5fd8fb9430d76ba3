package objectives

import (
	"context"
	"fmt"
	"strings"

	"github.com/conduitcrm/conduit/pkg/protocol"
)

const defaultMaxAttempts = 3

// AttemptsVariable carries the ask counter between visits of a self-looping
// collect_info node.
const AttemptsVariable = "collect_info_attempts"

// collectInfo partitions the target fields into collected and missing by
// presence in the run's variable bag. The node is self-looping: the caller
// routes back until every field is present or the attempt budget runs out.
func (e *Evaluator) collectInfo(ctx context.Context, req protocol.EvaluateRequest) (*protocol.EvaluateResult, error) {
	fields, err := stringSlice(req.Objective.Config["fields"])
	if err != nil || len(fields) == 0 {
		return nil, fmt.Errorf("collect_info objective requires a non-empty 'fields' list")
	}

	maxAttempts := defaultMaxAttempts
	if v, ok := req.Objective.Config["max_attempts"].(float64); ok && v > 0 {
		maxAttempts = int(v)
	}

	attempts := 0
	if v, ok := req.Variables[AttemptsVariable].(float64); ok {
		attempts = int(v)
	} else if v, ok := req.Variables[AttemptsVariable].(int); ok {
		attempts = v
	}

	collected := make(map[string]any)

	var missing []string

	for _, field := range fields {
		value, ok := req.Variables[field]
		if ok && value != nil && fmt.Sprintf("%v", value) != "" {
			collected[field] = value
		} else {
			missing = append(missing, field)
		}
	}

	if len(missing) == 0 {
		return &protocol.EvaluateResult{
			Status: protocol.ObjectiveStatusSuccess,
			Data: map[string]any{
				"collected": collected,
				"complete":  true,
			},
		}, nil
	}

	if attempts >= maxAttempts {
		return &protocol.EvaluateResult{
			Status:  protocol.ObjectiveStatusSpeakToHuman,
			Message: fmt.Sprintf("gave up collecting %s after %d attempts", strings.Join(missing, ", "), attempts),
			Data: map[string]any{
				"collected": collected,
				"missing":   missing,
			},
		}, nil
	}

	nextPrompt := e.buildAskPrompt(ctx, missing)

	return &protocol.EvaluateResult{
		Status: protocol.ObjectiveStatusSuccess,
		Data: map[string]any{
			"collected":      collected,
			"missing":        missing,
			"next_prompt":    nextPrompt,
			AttemptsVariable: attempts + 1,
			"complete":       false,
		},
	}, nil
}

// buildAskPrompt generates a natural-language ask for the missing fields,
// falling back to a static phrasing when generation is unavailable.
func (e *Evaluator) buildAskPrompt(ctx context.Context, missing []string) string {
	fallback := "Could you share your " + strings.Join(missing, ", ") + "?"

	generated, err := e.generate(ctx,
		"You write one short, friendly question asking a customer for the listed details.",
		"Details needed: "+strings.Join(missing, ", "))
	if err != nil || strings.TrimSpace(generated.Text) == "" {
		return fallback
	}

	return strings.TrimSpace(generated.Text)
}

func stringSlice(v any) ([]string, error) {
	switch value := v.(type) {
	case []string:
		return value, nil
	case []any:
		out := make([]string, 0, len(value))

		for _, item := range value {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}

			out = append(out, str)
		}

		return out, nil
	default:
		return nil, fmt.Errorf("expected list of strings, got %T", v)
	}
}
