package validate

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"orgscout/domain/core"
	"orgscout/domain/signal"
	"orgscout/internal"
	"orgscout/internal/errors"
	"orgscout/ports"
)

// Config parameterizes the three validation passes.
type Config struct {
	MinEvidence      int
	MinConfidence    float64
	CredibilityFloor float64
	RecentWindow     time.Duration
	MaxConcurrent    int64
}

// Outcome is the terminal result for one candidate: either a validated
// signal or a machine-readable rejection with the pass that produced it.
// There is no partial acceptance state.
type Outcome struct {
	Accepted bool                    `json:"accepted"`
	Pass     int                     `json:"pass"`
	Reason   string                  `json:"reason,omitempty"`
	Signal   *signal.ValidatedSignal `json:"signal,omitempty"`
}

// Pipeline is the mandatory three-pass gate in front of the signal store.
// Every candidate, whatever produced it, goes through here; nothing else
// writes to the store. Passes one and three are pure functions of their
// inputs; only pass two consults external state.
type Pipeline struct {
	cfg       Config
	store     ports.SignalStore
	reasoning ports.ReasoningPort
	locks     *entityLocks
	sem       *semaphore.Weighted
	log       *internal.Logger
}

// NewPipeline wires the validation pipeline.
func NewPipeline(cfg Config, store ports.SignalStore, reasoning ports.ReasoningPort, log *internal.Logger) *Pipeline {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	return &Pipeline{
		cfg:       cfg,
		store:     store,
		reasoning: reasoning,
		locks:     newEntityLocks(),
		sem:       semaphore.NewWeighted(cfg.MaxConcurrent),
		log:       log.Component("Validator"),
	}
}

// Validate runs a candidate through all three passes. Rejections are
// terminal and never retried automatically. An error is returned only when
// an external collaborator is unavailable; the candidate is then neither
// accepted nor terminally rejected by rule.
func (p *Pipeline) Validate(ctx context.Context, c signal.CandidateSignal) (*Outcome, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)

	// Writes for one entity are serialized so pass two always sees the
	// signals committed by the previous validation.
	lock := p.locks.lock(c.EntityID)
	defer lock.Unlock()

	// Pass 1: rule-based filter.
	if reason, ok := p.passOne(c); !ok {
		p.log.Info("candidate for %s rejected at pass 1: %s", c.EntityID, reason)
		return &Outcome{Pass: 1, Reason: reason}, nil
	}

	// Pass 2: consistency/duplicate check against recent signals.
	recent, err := p.store.QueryRecentSignals(ctx, c.EntityID, p.cfg.RecentWindow)
	if err != nil {
		return nil, errors.Wrap(err, "querying recent signals for consistency pass")
	}

	if reason, flagged := p.passTwo(ctx, c, recent); flagged {
		p.log.Info("candidate for %s rejected at pass 2: %s", c.EntityID, reason)
		return &Outcome{Pass: 2, Reason: reason}, nil
	} else if reason != "" {
		// Collaborator unavailable; surface as an error, not a verdict.
		return nil, errors.ExternalServiceError("reasoning", fmt.Errorf("%s", reason))
	}

	// Pass 3: final confirmation with an independent scoring pass.
	outcome, err := p.passThree(ctx, c, recent)
	if err != nil {
		return nil, err
	}
	if outcome.Accepted {
		p.log.Info("candidate for %s validated with confidence %.2f", c.EntityID, outcome.Signal.Confidence)
	} else {
		p.log.Info("candidate for %s rejected at pass 3: %s", c.EntityID, outcome.Reason)
	}
	return outcome, nil
}

// passOne applies the rule thresholds. Pure: same candidate, same verdict.
func (p *Pipeline) passOne(c signal.CandidateSignal) (string, bool) {
	if len(c.Evidence) < p.cfg.MinEvidence {
		return fmt.Sprintf("Insufficient evidence: %d < %d", len(c.Evidence), p.cfg.MinEvidence), false
	}
	if c.Confidence < p.cfg.MinConfidence {
		return fmt.Sprintf("Confidence too low: %g < %g", c.Confidence, p.cfg.MinConfidence), false
	}
	if cred := meanCredibility(c.Evidence); cred < p.cfg.CredibilityFloor {
		return fmt.Sprintf("Credibility below floor: %g < %g", cred, p.cfg.CredibilityFloor), false
	}
	return "", true
}

// passTwo flags exact or near-duplicate claims and logical inconsistency
// with already-validated signals. Returns (reason, true) when flagged,
// ("", false) when clean, and (reason, false) when the collaborator could
// not be reached.
func (p *Pipeline) passTwo(ctx context.Context, c signal.CandidateSignal, recent []signal.ValidatedSignal) (string, bool) {
	// Cheap exact-duplicate check by content fingerprint before asking
	// the collaborator.
	fp := c.Fingerprint()
	for _, s := range recent {
		sources := make([]string, 0, len(s.Evidence))
		for _, ev := range s.Evidence {
			sources = append(sources, ev.SourceURL)
		}
		if fp == core.ComputeFingerprint(s.EntityID, s.Type, sources) {
			return fmt.Sprintf("Exact duplicate of signal %s", s.ID), true
		}
	}

	if len(recent) == 0 {
		return "", false
	}

	check, err := p.reasoning.CheckConsistency(ctx, ports.ConsistencyReview{
		Candidate: c,
		Recent:    recent,
	})
	if err != nil {
		if errors.HasCode(err, errors.CodeMalformedResponse) {
			// A malformed consistency verdict cannot justify persisting the
			// candidate; treat it as flagged with the parse failure recorded.
			return fmt.Sprintf("Consistency verdict unparseable: %v", err), true
		}
		return fmt.Sprintf("consistency check unavailable: %v", err), false
	}
	if check.Flagged {
		reason := check.Reason
		if reason == "" {
			reason = "Duplicate or inconsistent with existing validated signals"
		}
		return reason, true
	}
	return "", false
}

// passThree recomputes a final confidence from the candidate confidence,
// the pass-one credibility metric, and the duplicate distance, then
// re-applies the pass-one thresholds. Pure given candidate and store
// snapshot.
func (p *Pipeline) passThree(ctx context.Context, c signal.CandidateSignal, recent []signal.ValidatedSignal) (*Outcome, error) {
	cred := meanCredibility(c.Evidence)
	dupSim := duplicateSimilarity(c, recent)
	final := finalConfidence(c.Confidence, cred, dupSim)

	if len(c.Evidence) < p.cfg.MinEvidence {
		return &Outcome{Pass: 3, Reason: fmt.Sprintf("Insufficient evidence: %d < %d", len(c.Evidence), p.cfg.MinEvidence)}, nil
	}
	if final < p.cfg.MinConfidence {
		return &Outcome{Pass: 3, Reason: fmt.Sprintf("Confidence too low: %s < %g", trimFloat(final), p.cfg.MinConfidence)}, nil
	}
	if cred < p.cfg.CredibilityFloor {
		return &Outcome{Pass: 3, Reason: fmt.Sprintf("Credibility below floor: %g < %g", cred, p.cfg.CredibilityFloor)}, nil
	}

	validated, err := signal.NewValidatedSignal(c, final, p.cfg.MinEvidence, p.cfg.MinConfidence)
	if err != nil {
		return nil, errors.Wrap(err, "sealing validated signal")
	}
	if err := p.store.UpsertSignal(ctx, validated); err != nil {
		return nil, errors.Wrap(err, "persisting validated signal")
	}
	return &Outcome{Accepted: true, Pass: 3, Signal: validated}, nil
}

// finalConfidence blends the candidate's discovery confidence with evidence
// credibility and distance from existing claims.
func finalConfidence(candidate, credibility, duplicateSim float64) float64 {
	final := 0.5*candidate + 0.3*credibility + 0.2*(1-duplicateSim)
	if final < 0 {
		return 0
	}
	if final > 1 {
		return 1
	}
	return final
}

// trimFloat renders a confidence rounded to two decimals without trailing
// zeros, matching the rule-filter message style.
func trimFloat(v float64) string {
	return fmt.Sprintf("%g", float64(int(v*100+0.5))/100)
}
