package discovery

import (
	"context"
	"fmt"

	"orgscout/domain/core"
	"orgscout/domain/signal"
	"orgscout/internal"
	"orgscout/internal/errors"
	"orgscout/ports"
)

// Engine interprets reasoning-collaborator verdicts for one hop. It never
// persists anything; its only output is the Decision.
type Engine struct {
	reasoning ports.ReasoningPort
	log       *internal.Logger
}

// NewEngine creates a decision engine over the reasoning collaborator.
func NewEngine(reasoning ports.ReasoningPort, log *internal.Logger) *Engine {
	return &Engine{
		reasoning: reasoning,
		log:       log.Component("DecisionEngine"),
	}
}

// Decide sends hypothesis plus fresh evidence to the collaborator and turns
// the verdict into a Decision. A malformed or self-inconsistent verdict is
// downgraded locally to NO_PROGRESS without consulting the collaborator
// again; a transport failure is returned as an error so the loop can record
// a channel failure instead of a decision.
func (e *Engine) Decide(ctx context.Context, h *signal.Hypothesis, ev signal.Evidence, guidance string) (signal.Decision, error) {
	req := ports.EvidenceReview{
		Hypothesis: ports.HypothesisContext{
			Statement:  h.Statement,
			Category:   h.Category,
			Confidence: h.Confidence,
			Iteration:  h.IterationCount,
		},
		Evidence:        []signal.Evidence{ev},
		ChannelGuidance: guidance,
		History:         h.DecisionHistory,
	}

	verdict, err := e.reasoning.EvaluateEvidence(ctx, req)
	if err != nil {
		if errors.HasCode(err, errors.CodeMalformedResponse) {
			e.log.Warn("malformed verdict for hypothesis %s: %v", h.ID, err)
			return e.noProgress(ev, fmt.Sprintf("collaborator response failed schema validation: %v", err)), nil
		}
		return signal.Decision{}, err
	}

	kind := signal.DecisionKind(verdict.Decision)
	if reason, ok := checkVerdict(kind, verdict.ConfidenceDelta); !ok {
		e.log.Warn("inconsistent verdict for hypothesis %s: %s", h.ID, reason)
		return e.noProgress(ev, reason), nil
	}

	return signal.Decision{
		Kind:            kind,
		ConfidenceDelta: verdict.ConfidenceDelta,
		Justification:   verdict.Justification,
		HopType:         ev.ChannelType,
		SourceURL:       ev.SourceURL,
		DecidedAt:       core.Now(),
	}, nil
}

// checkVerdict enforces the decision/delta consistency contract: accepts
// carry positive deltas, everything else carries zero.
func checkVerdict(kind signal.DecisionKind, delta float64) (string, bool) {
	if !kind.Valid() {
		return fmt.Sprintf("unknown decision kind %q", kind), false
	}
	switch kind {
	case signal.DecisionAccept, signal.DecisionWeakAccept:
		if delta <= 0 {
			return fmt.Sprintf("%s verdict with non-positive delta %g", kind, delta), false
		}
	default:
		if delta != 0 {
			return fmt.Sprintf("%s verdict with non-zero delta %g", kind, delta), false
		}
	}
	return "", true
}

func (e *Engine) noProgress(ev signal.Evidence, justification string) signal.Decision {
	return signal.Decision{
		Kind:          signal.DecisionNoProgress,
		Justification: justification,
		HopType:       ev.ChannelType,
		SourceURL:     ev.SourceURL,
		DecidedAt:     core.Now(),
	}
}
