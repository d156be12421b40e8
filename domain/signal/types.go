package signal

import (
	"fmt"

	"orgscout/domain/core"
)

// ChannelType identifies a class of information source that can be queried
// for evidence about an organization.
type ChannelType string

const (
	ChannelRFPListing    ChannelType = "rfp_listing"
	ChannelProcurement   ChannelType = "procurement_portal"
	ChannelCareersPage   ChannelType = "careers_page"
	ChannelPressRelease  ChannelType = "press_release"
	ChannelNewsSearch    ChannelType = "news_search"
	ChannelPublicFilings ChannelType = "public_filings"
)

// ChannelOrder fixes the declaration order of channel types. Selector ties
// are broken by this order so channel ranking stays deterministic.
var ChannelOrder = []ChannelType{
	ChannelRFPListing,
	ChannelProcurement,
	ChannelCareersPage,
	ChannelPressRelease,
	ChannelNewsSearch,
	ChannelPublicFilings,
}

// ChannelRank returns the declaration-order index of a channel type, or
// len(ChannelOrder) for unknown channels so they sort last.
func ChannelRank(ch ChannelType) int {
	for i, c := range ChannelOrder {
		if c == ch {
			return i
		}
	}
	return len(ChannelOrder)
}

// DecisionKind is the closed set of verdicts the reasoning collaborator may
// return for one hypothesis/evidence pair. Anything outside this set is
// rejected by the verdict parser and downgraded to NoProgress.
type DecisionKind string

const (
	DecisionAccept     DecisionKind = "ACCEPT"
	DecisionWeakAccept DecisionKind = "WEAK_ACCEPT"
	DecisionReject     DecisionKind = "REJECT"
	DecisionNoProgress DecisionKind = "NO_PROGRESS"
	DecisionSaturated  DecisionKind = "SATURATED"
)

// Valid reports whether k is one of the five known decision kinds.
func (k DecisionKind) Valid() bool {
	switch k {
	case DecisionAccept, DecisionWeakAccept, DecisionReject, DecisionNoProgress, DecisionSaturated:
		return true
	}
	return false
}

// Supportive reports whether the decision adds support for the hypothesis
// and therefore yields a candidate signal.
func (k DecisionKind) Supportive() bool {
	return k == DecisionAccept || k == DecisionWeakAccept
}

// Decision is one appended entry in a hypothesis's history: the verdict for
// a single hop, with the confidence delta and the collaborator's reasoning.
type Decision struct {
	Kind            DecisionKind   `json:"decision"`
	ConfidenceDelta float64        `json:"confidence_delta"`
	Justification   string         `json:"justification"`
	HopType         ChannelType    `json:"hop_type"`
	SourceURL       string         `json:"source_url"`
	DecidedAt       core.Timestamp `json:"decided_at"`
}

// HypothesisStatus is the lifecycle state of a hypothesis.
type HypothesisStatus string

const (
	StatusActive    HypothesisStatus = "ACTIVE"
	StatusAccepted  HypothesisStatus = "ACCEPTED"
	StatusRejected  HypothesisStatus = "REJECTED"
	StatusSaturated HypothesisStatus = "SATURATED"
)

// Terminal reports whether the status admits no further decisions.
func (s HypothesisStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusSaturated
}

// Hypothesis is a standing claim about one organization, scored over
// successive evidence hops. Confidence is always kept in [0,1] and only the
// confidence tracker mutates a hypothesis after creation.
type Hypothesis struct {
	ID               core.HypothesisID `json:"id"`
	EntityID         core.EntityID     `json:"entity_id"`
	Statement        string            `json:"statement"`
	Category         string            `json:"category"`
	PriorProbability float64           `json:"prior_probability"`
	Confidence       float64           `json:"confidence"`
	Status           HypothesisStatus  `json:"status"`
	IterationCount   int               `json:"iteration_count"`
	DecisionHistory  []Decision        `json:"decision_history"`
}

// NewHypothesis creates an active hypothesis seeded at its prior probability.
func NewHypothesis(entity core.EntityID, statement, category string, prior float64) *Hypothesis {
	return &Hypothesis{
		ID:               core.HypothesisID(core.NewID()),
		EntityID:         entity,
		Statement:        statement,
		Category:         category,
		PriorProbability: prior,
		Confidence:       prior,
		Status:           StatusActive,
		DecisionHistory:  make([]Decision, 0),
	}
}

// HasAccept reports whether any full ACCEPT decision contributed to the
// current confidence. The weak-accept ceiling depends on this.
func (h *Hypothesis) HasAccept() bool {
	for _, d := range h.DecisionHistory {
		if d.Kind == DecisionAccept {
			return true
		}
	}
	return false
}

// Evidence is one immutable piece of collected material with provenance.
type Evidence struct {
	ID               core.EvidenceID `json:"id"`
	SourceURL        string          `json:"source_url"`
	ChannelType      ChannelType     `json:"channel_type"`
	ContentSnippet   string          `json:"content_snippet"`
	CredibilityScore float64         `json:"credibility_score"`
	CollectedAt      core.Timestamp  `json:"collected_at"`
}

// NewEvidence builds an evidence record with a fresh ID.
func NewEvidence(sourceURL string, channel ChannelType, snippet string, credibility float64, collectedAt core.Timestamp) Evidence {
	return Evidence{
		ID:               core.EvidenceID(core.NewID()),
		SourceURL:        sourceURL,
		ChannelType:      channel,
		ContentSnippet:   snippet,
		CredibilityScore: credibility,
		CollectedAt:      collectedAt,
	}
}

// CandidateSignal is a transient claim produced by a supportive decision
// (or by an external ingestion path). It exists only until the validation
// pipeline accepts or rejects it.
type CandidateSignal struct {
	EntityID   core.EntityID     `json:"entity_id"`
	SignalType string            `json:"signal_type"`
	Confidence float64           `json:"confidence"`
	Evidence   []Evidence        `json:"evidence"`
	Metadata   map[string]string `json:"metadata"`
}

// Fingerprint returns the content fingerprint used for exact-duplicate
// detection in the consistency pass.
func (c CandidateSignal) Fingerprint() core.Fingerprint {
	sources := make([]string, 0, len(c.Evidence))
	for _, ev := range c.Evidence {
		sources = append(sources, ev.SourceURL)
	}
	return core.ComputeFingerprint(c.EntityID, c.SignalType, sources)
}

// ValidatedSignal is the only shape that ever reaches the signal store.
// Created exclusively by the third validation pass.
type ValidatedSignal struct {
	ID             core.SignalID     `json:"id"`
	Type           string            `json:"type"`
	Confidence     float64           `json:"confidence"`
	Validated      bool              `json:"validated"`
	ValidationPass int               `json:"validation_pass"`
	EntityID       core.EntityID     `json:"entity_id"`
	Evidence       []Evidence        `json:"evidence"`
	Metadata       map[string]string `json:"metadata"`
	CreatedAt      core.Timestamp    `json:"created_at"`
}

// FinalPass is the number of gates a candidate must clear before persisting.
const FinalPass = 3

// NewValidatedSignal seals a candidate that cleared all three passes. It
// enforces the creation invariants: at least minEvidence evidence items and
// final confidence at or above minConfidence.
func NewValidatedSignal(c CandidateSignal, finalConfidence float64, minEvidence int, minConfidence float64) (*ValidatedSignal, error) {
	if len(c.Evidence) < minEvidence {
		return nil, fmt.Errorf("validated signal requires %d evidence items, got %d", minEvidence, len(c.Evidence))
	}
	if finalConfidence < minConfidence {
		return nil, fmt.Errorf("validated signal requires confidence >= %g, got %g", minConfidence, finalConfidence)
	}
	return &ValidatedSignal{
		ID:             core.SignalID(core.NewID()),
		Type:           c.SignalType,
		Confidence:     finalConfidence,
		Validated:      true,
		ValidationPass: FinalPass,
		EntityID:       c.EntityID,
		Evidence:       c.Evidence,
		Metadata:       c.Metadata,
		CreatedAt:      core.Now(),
	}, nil
}
