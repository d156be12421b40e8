package ports

import (
	"context"

	"orgscout/domain/signal"
)

// HypothesisContext is the standing-claim portion of a reasoning request.
type HypothesisContext struct {
	Statement  string  `json:"statement"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Iteration  int     `json:"iteration"`
}

// EvidenceReview bundles everything the collaborator needs to judge one hop:
// the hypothesis, the newly collected evidence, channel-specific guidance,
// and the decision history so far.
type EvidenceReview struct {
	Hypothesis      HypothesisContext `json:"hypothesis_context"`
	Evidence        []signal.Evidence `json:"evidence_bundle"`
	ChannelGuidance string            `json:"channel_guidance"`
	History         []signal.Decision `json:"history"`
}

// Verdict is the raw structured response for an evidence review. The adapter
// validates the shape; consistency between Decision and ConfidenceDelta is
// checked again by the decision engine.
type Verdict struct {
	Decision        string  `json:"decision"`
	ConfidenceDelta float64 `json:"confidence_delta"`
	Justification   string  `json:"justification"`
}

// ConsistencyReview asks the collaborator whether a candidate duplicates or
// contradicts recently validated signals for the same entity.
type ConsistencyReview struct {
	Candidate signal.CandidateSignal   `json:"candidate"`
	Recent    []signal.ValidatedSignal `json:"recent_signals"`
}

// DuplicateCheck is the raw structured response for a consistency review.
type DuplicateCheck struct {
	Flagged bool   `json:"flagged"`
	Reason  string `json:"reason"`
}

// ReasoningPort is the opaque reasoning collaborator. Implementations must
// treat the remote as untrusted: malformed payloads surface as typed errors,
// never as zero-valued verdicts.
type ReasoningPort interface {
	// EvaluateEvidence judges newly collected evidence against a hypothesis.
	EvaluateEvidence(ctx context.Context, req EvidenceReview) (*Verdict, error)

	// CheckConsistency flags duplicate or contradictory candidate claims.
	CheckConsistency(ctx context.Context, req ConsistencyReview) (*DuplicateCheck, error)
}
