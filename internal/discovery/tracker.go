package discovery

import (
	"strings"
	"time"

	"orgscout/domain/core"
	"orgscout/domain/signal"
)

// TrackerConfig parameterizes confidence updates. All values come from
// configuration; see config.DiscoveryConfig for the defaults.
type TrackerConfig struct {
	AcceptThreshold   float64
	WeakAcceptCeiling float64
	TemporalBonus     float64
	MultiYearBonus    float64
	RecencyWindow     time.Duration
	MaxIterations     int
}

// Tracker is the only component allowed to mutate a hypothesis. It applies
// confidence deltas and bonuses, keeps confidence in [0,1], and drives the
// terminal status transitions. Updates are all-or-nothing: the hypothesis
// is only touched once the full new state is computed.
type Tracker struct {
	cfg TrackerConfig
}

// NewTracker creates a tracker with the given scoring configuration.
func NewTracker(cfg TrackerConfig) *Tracker {
	return &Tracker{cfg: cfg}
}

// multiYearMarkers are the phrases treated as evidence of a long-term
// commitment for the multi-year bonus.
var multiYearMarkers = []string{
	"multi-year", "multiyear", "multi year",
	"three-year", "five-year", "long-term contract", "framework agreement",
}

// Apply records a decision against a hypothesis: confidence moves by the
// decision's delta plus at most one temporal-recency bonus and one
// multi-year bonus, clamped to [0,1]. channelsExhausted tells the tracker
// whether a REJECT can terminate the hypothesis.
func (t *Tracker) Apply(h *signal.Hypothesis, d signal.Decision, evidence []signal.Evidence, channelsExhausted bool) error {
	if h.Status.Terminal() {
		return core.NewTerminalError(h.ID, string(h.Status))
	}

	conf := h.Confidence + d.ConfidenceDelta

	// Bonuses only strengthen supportive decisions; each applies at most
	// once per decision regardless of how many evidence items qualify.
	if d.Kind.Supportive() {
		if t.hasRecentEvidence(evidence) {
			conf += t.cfg.TemporalBonus
		}
		if t.hasMultiYearEvidence(evidence) {
			conf += t.cfg.MultiYearBonus
		}
	}

	// A hypothesis carried only by weak accepts must never cross the
	// acceptance line. Enforced here so the rule survives engine changes.
	hasAccept := h.HasAccept() || d.Kind == signal.DecisionAccept
	if !hasAccept && conf >= t.cfg.WeakAcceptCeiling {
		conf = t.cfg.WeakAcceptCeiling - 0.01
	}

	conf = clamp01(conf)

	// Commit the full update at once.
	h.Confidence = conf
	h.IterationCount++
	h.DecisionHistory = append(h.DecisionHistory, d)

	switch {
	case conf >= t.cfg.AcceptThreshold && hasAccept:
		h.Status = signal.StatusAccepted
	case d.Kind == signal.DecisionReject && channelsExhausted:
		h.Status = signal.StatusRejected
	case h.IterationCount >= t.cfg.MaxIterations && conf < t.cfg.AcceptThreshold:
		h.Status = signal.StatusSaturated
	}

	return nil
}

// Saturate marks a hypothesis saturated when the run's budget ends before
// it reaches a verdict. Terminal hypotheses are left untouched.
func (t *Tracker) Saturate(h *signal.Hypothesis) {
	if h.Status.Terminal() {
		return
	}
	h.Status = signal.StatusSaturated
}

func (t *Tracker) hasRecentEvidence(evidence []signal.Evidence) bool {
	now := core.Now()
	for _, ev := range evidence {
		if ev.CollectedAt.WithinWindow(now, t.cfg.RecencyWindow) {
			return true
		}
	}
	return false
}

func (t *Tracker) hasMultiYearEvidence(evidence []signal.Evidence) bool {
	for _, ev := range evidence {
		text := strings.ToLower(ev.ContentSnippet)
		for _, marker := range multiYearMarkers {
			if strings.Contains(text, marker) {
				return true
			}
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
