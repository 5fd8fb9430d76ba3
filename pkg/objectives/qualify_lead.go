package objectives

import (
	"fmt"

	"github.com/conduitcrm/conduit/pkg/nodes/condition"
	"github.com/conduitcrm/conduit/pkg/protocol"
)

// Criterion is one lead-qualification rule evaluated against the lead data
// merged with run variables.
type Criterion struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// qualifyLead scores the lead against the criteria list. The lead qualifies
// when at least 70% of criteria pass. This objective always succeeds; the
// score and recommendation are data, not a branch outcome.
func (e *Evaluator) qualifyLead(req protocol.EvaluateRequest) (*protocol.EvaluateResult, error) {
	criteria, err := parseCriteria(req.Objective.Config["criteria"])
	if err != nil {
		return nil, err
	}

	if len(criteria) == 0 {
		return nil, fmt.Errorf("qualify_lead objective requires a non-empty 'criteria' list")
	}

	score := 0
	results := make([]map[string]any, 0, len(criteria))

	for _, c := range criteria {
		passed := condition.Evaluate(req.Variables[c.Field], c.Operator, c.Value)
		if passed {
			score++
		}

		results = append(results, map[string]any{
			"field":    c.Field,
			"operator": c.Operator,
			"value":    c.Value,
			"passed":   passed,
		})
	}

	maxScore := len(criteria)
	threshold := (maxScore*7 + 9) / 10 // ceil(0.7 * maxScore)
	qualified := score >= threshold

	recommendation := "nurture: lead does not meet the qualification bar yet"
	if qualified {
		recommendation = "engage: lead meets the qualification criteria"
	}

	return &protocol.EvaluateResult{
		Status: protocol.ObjectiveStatusSuccess,
		Data: map[string]any{
			"qualified":      qualified,
			"score":          score,
			"max_score":      maxScore,
			"results":        results,
			"recommendation": recommendation,
		},
	}, nil
}

func parseCriteria(v any) ([]Criterion, error) {
	items, ok := v.([]any)
	if !ok {
		if typed, ok := v.([]Criterion); ok {
			return typed, nil
		}

		return nil, fmt.Errorf("expected list of criteria, got %T", v)
	}

	criteria := make([]Criterion, 0, len(items))

	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected criterion object, got %T", item)
		}

		field, _ := entry["field"].(string)
		if field == "" {
			return nil, fmt.Errorf("criterion is missing 'field'")
		}

		operator, _ := entry["operator"].(string)
		if operator == "" {
			operator = condition.OperatorEquals
		}

		criteria = append(criteria, Criterion{
			Field:    field,
			Operator: operator,
			Value:    entry["value"],
		})
	}

	return criteria, nil
}
