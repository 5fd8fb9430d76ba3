// Package objectives implements the AI objective evaluator: three decision
// objectives returning a ternary outcome used for graph branching.
package objectives

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/conduitcrm/conduit/pkg/protocol"
)

// Objective types.
const (
	TypeAnswerQuestion = "answer_question"
	TypeCollectInfo    = "collect_info"
	TypeQualifyLead    = "qualify_lead"
)

const (
	// generateTimeout bounds every generation call so one stalled vendor
	// request cannot stall the containing run.
	generateTimeout = 30 * time.Second

	// costPerToken converts token usage into billable cost units.
	costPerToken = 0.000002
)

// Evaluator executes decision objectives against the knowledge store and
// language generator collaborators.
type Evaluator struct {
	knowledge protocol.KnowledgeStore
	generator protocol.Generator
	logger    *slog.Logger
}

// NewEvaluator creates a new objective evaluator.
func NewEvaluator(knowledge protocol.KnowledgeStore, generator protocol.Generator, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		knowledge: knowledge,
		generator: generator,
		logger:    logger.With("module", "objective_evaluator"),
	}
}

// Evaluate dispatches on the objective type. An error return means the
// objective config is malformed; transport failures of the generation call
// are converted into UNABLE_TO_ANSWER so the graph can route to a
// human-handoff branch.
func (e *Evaluator) Evaluate(ctx context.Context, req protocol.EvaluateRequest) (*protocol.EvaluateResult, error) {
	switch req.Objective.Type {
	case TypeAnswerQuestion:
		return e.answerQuestion(ctx, req)
	case TypeCollectInfo:
		return e.collectInfo(ctx, req)
	case TypeQualifyLead:
		return e.qualifyLead(req)
	default:
		return nil, fmt.Errorf("unsupported objective type '%s'", req.Objective.Type)
	}
}

// generate runs one bounded language-generation call.
func (e *Evaluator) generate(ctx context.Context, system, prompt string) (*protocol.GenerateResult, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	return e.generator.Generate(ctx, protocol.GenerateRequest{
		System: system,
		Prompt: prompt,
	})
}
