package objectives

import (
	"context"
	"fmt"
	"strings"

	"github.com/conduitcrm/conduit/pkg/protocol"
)

const defaultKnowledgeLimit = 5

// Hedging phrases that mark a generated answer as unreliable. An answer
// containing any of these is routed to a human instead of being sent.
var uncertaintyMarkers = []string{
	"i'm not sure",
	"i am not sure",
	"i don't know",
	"i do not know",
	"i cannot answer",
	"i can't answer",
	"not certain",
	"unsure",
	"no information",
}

// answerQuestion retrieves supporting knowledge and generates an answer.
// Zero knowledge with require_knowledge set short-circuits to
// SPEAK_TO_HUMAN: an unguided answer is never attempted.
func (e *Evaluator) answerQuestion(ctx context.Context, req protocol.EvaluateRequest) (*protocol.EvaluateResult, error) {
	question, _ := req.Objective.Config["question"].(string)
	if question == "" {
		question, _ = req.Variables["question"].(string)
	}

	if question == "" {
		return nil, fmt.Errorf("answer_question objective requires a question")
	}

	requireKnowledge, _ := req.Objective.Config["require_knowledge"].(bool)

	limit := defaultKnowledgeLimit
	if v, ok := req.Objective.Config["max_knowledge"].(float64); ok && v > 0 {
		limit = int(v)
	}

	items, err := e.knowledge.Search(ctx, req.TenantID, question, limit)
	if err != nil {
		e.logger.WarnContext(ctx, "Knowledge retrieval failed", "error", err)

		items = nil
	}

	if len(items) == 0 && requireKnowledge {
		return &protocol.EvaluateResult{
			Status:  protocol.ObjectiveStatusSpeakToHuman,
			Message: "no supporting knowledge found for the question",
		}, nil
	}

	prompt := buildAnswerPrompt(question, items)

	generated, err := e.generate(ctx, "You answer customer questions concisely using only the provided context.", prompt)
	if err != nil {
		e.logger.WarnContext(ctx, "Generation call failed", "error", err)

		return &protocol.EvaluateResult{
			Status:  protocol.ObjectiveStatusUnableToAnswer,
			Message: "generation failed: " + err.Error(),
		}, nil
	}

	if hasUncertaintyMarker(generated.Text) {
		return &protocol.EvaluateResult{
			Status:     protocol.ObjectiveStatusSpeakToHuman,
			Message:    "generated answer was not confident",
			TokensUsed: generated.TokensUsed,
			CostUnits:  float64(generated.TokensUsed) * costPerToken,
		}, nil
	}

	confidence := 0.6
	if len(items) > 0 {
		confidence = 0.9
	}

	return &protocol.EvaluateResult{
		Status: protocol.ObjectiveStatusSuccess,
		Data: map[string]any{
			"answer":         generated.Text,
			"used_knowledge": len(items) > 0,
		},
		Confidence: confidence,
		TokensUsed: generated.TokensUsed,
		CostUnits:  float64(generated.TokensUsed) * costPerToken,
	}, nil
}

func buildAnswerPrompt(question string, items []protocol.KnowledgeItem) string {
	var sb strings.Builder

	if len(items) > 0 {
		sb.WriteString("Context:\n")

		for _, item := range items {
			sb.WriteString("- ")
			sb.WriteString(item.Content)
			sb.WriteString("\n")
		}

		sb.WriteString("\n")
	}

	sb.WriteString("Question: ")
	sb.WriteString(question)

	return sb.String()
}

func hasUncertaintyMarker(text string) bool {
	lowered := strings.ToLower(text)

	for _, marker := range uncertaintyMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}

	return false
}
