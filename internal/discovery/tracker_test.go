package discovery

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"orgscout/domain/core"
	"orgscout/domain/signal"
)

func testTracker() *Tracker {
	return NewTracker(TrackerConfig{
		AcceptThreshold:   0.70,
		WeakAcceptCeiling: 0.70,
		TemporalBonus:     0.05,
		MultiYearBonus:    0.03,
		RecencyWindow:     6 * 30 * 24 * time.Hour,
		MaxIterations:     12,
	})
}

func newTestHypothesis(prior float64) *signal.Hypothesis {
	return signal.NewHypothesis("entity-1", "Acme is buying security tooling", "procurement_intent", prior)
}

func decision(kind signal.DecisionKind, delta float64) signal.Decision {
	return signal.Decision{
		Kind:            kind,
		ConfidenceDelta: delta,
		Justification:   "test",
		HopType:         signal.ChannelNewsSearch,
		DecidedAt:       core.Now(),
	}
}

func staleEvidence(content string) []signal.Evidence {
	return []signal.Evidence{
		signal.NewEvidence("https://example.test/a", signal.ChannelNewsSearch, content, 0.8,
			core.NewTimestamp(time.Now().AddDate(-2, 0, 0))),
	}
}

func recentEvidence(content string) []signal.Evidence {
	return []signal.Evidence{
		signal.NewEvidence("https://example.test/a", signal.ChannelNewsSearch, content, 0.8,
			core.NewTimestamp(time.Now().AddDate(0, -1, 0))),
	}
}

func TestApplyAcceptDelta(t *testing.T) {
	tr := testTracker()
	h := newTestHypothesis(0.15)

	if err := tr.Apply(h, decision(signal.DecisionAccept, 0.06), staleEvidence("contract signed"), false); err != nil {
		t.Fatal(err)
	}
	if got, want := h.Confidence, 0.21; !almostEqual(got, want) {
		t.Errorf("confidence = %g, want %g", got, want)
	}
	if h.IterationCount != 1 || len(h.DecisionHistory) != 1 {
		t.Errorf("history not committed: iterations=%d history=%d", h.IterationCount, len(h.DecisionHistory))
	}
}

func TestApplyTemporalBonusOnlyForSupportive(t *testing.T) {
	tr := testTracker()

	h := newTestHypothesis(0.15)
	if err := tr.Apply(h, decision(signal.DecisionAccept, 0.06), recentEvidence("contract signed"), false); err != nil {
		t.Fatal(err)
	}
	if got, want := h.Confidence, 0.26; !almostEqual(got, want) {
		t.Errorf("supportive + recent evidence: confidence = %g, want %g", got, want)
	}

	h2 := newTestHypothesis(0.15)
	if err := tr.Apply(h2, decision(signal.DecisionNoProgress, 0), recentEvidence("irrelevant"), false); err != nil {
		t.Fatal(err)
	}
	if got := h2.Confidence; !almostEqual(got, 0.15) {
		t.Errorf("non-supportive decision must not earn a bonus, got %g", got)
	}
}

func TestApplyMultiYearBonusOnce(t *testing.T) {
	tr := testTracker()
	h := newTestHypothesis(0.15)

	// Two qualifying evidence items still yield a single 0.03 bonus.
	evidence := []signal.Evidence{
		signal.NewEvidence("https://example.test/a", signal.ChannelRFPListing, "five-year framework agreement", 0.9,
			core.NewTimestamp(time.Now().AddDate(-2, 0, 0))),
		signal.NewEvidence("https://example.test/b", signal.ChannelNewsSearch, "multi-year deal announced", 0.7,
			core.NewTimestamp(time.Now().AddDate(-3, 0, 0))),
	}

	if err := tr.Apply(h, decision(signal.DecisionAccept, 0.06), evidence, false); err != nil {
		t.Fatal(err)
	}
	if got, want := h.Confidence, 0.24; !almostEqual(got, want) {
		t.Errorf("confidence = %g, want %g (delta + one multi-year bonus)", got, want)
	}
}

func TestWeakAcceptsNeverCrossThreshold(t *testing.T) {
	tr := testTracker()
	h := newTestHypothesis(0.15)

	// Many strong weak accepts with recent multi-year evidence; without a
	// full accept the hypothesis must stay below 0.70.
	ev := []signal.Evidence{
		signal.NewEvidence("https://example.test/a", signal.ChannelRFPListing, "multi-year framework agreement", 0.9, core.Now()),
	}
	for i := 0; i < 40; i++ {
		if err := tr.Apply(h, decision(signal.DecisionWeakAccept, 0.02), ev, false); err != nil {
			t.Fatal(err)
		}
		if h.Status.Terminal() {
			break
		}
	}

	if h.Confidence >= 0.70 {
		t.Errorf("weak-accept-only confidence reached %g, must stay below 0.70", h.Confidence)
	}
	if h.Status == signal.StatusAccepted {
		t.Error("weak-accept-only hypothesis must never be accepted")
	}
}

func TestAcceptedTransition(t *testing.T) {
	tr := testTracker()
	h := newTestHypothesis(0.60)

	if err := tr.Apply(h, decision(signal.DecisionAccept, 0.15), staleEvidence("award notice"), false); err != nil {
		t.Fatal(err)
	}
	if h.Status != signal.StatusAccepted {
		t.Errorf("confidence %g with an accept must transition to ACCEPTED, got %s", h.Confidence, h.Status)
	}
}

func TestRejectTerminalOnlyWhenChannelsExhausted(t *testing.T) {
	tr := testTracker()

	h := newTestHypothesis(0.3)
	if err := tr.Apply(h, decision(signal.DecisionReject, 0), nil, false); err != nil {
		t.Fatal(err)
	}
	if h.Status != signal.StatusActive {
		t.Errorf("reject with channels remaining must stay ACTIVE, got %s", h.Status)
	}

	h2 := newTestHypothesis(0.3)
	if err := tr.Apply(h2, decision(signal.DecisionReject, 0), nil, true); err != nil {
		t.Fatal(err)
	}
	if h2.Status != signal.StatusRejected {
		t.Errorf("reject with channels exhausted must transition to REJECTED, got %s", h2.Status)
	}
}

func TestSaturatedAtIterationCap(t *testing.T) {
	tr := testTracker()
	h := newTestHypothesis(0.15)

	for i := 0; i < 12; i++ {
		if err := tr.Apply(h, decision(signal.DecisionNoProgress, 0), nil, false); err != nil {
			t.Fatal(err)
		}
	}
	if h.Status != signal.StatusSaturated {
		t.Errorf("hypothesis at the iteration cap below threshold must be SATURATED, got %s", h.Status)
	}
}

func TestTerminalHypothesisRejectsFurtherDecisions(t *testing.T) {
	tr := testTracker()
	h := newTestHypothesis(0.69)

	if err := tr.Apply(h, decision(signal.DecisionAccept, 0.1), nil, false); err != nil {
		t.Fatal(err)
	}
	if h.Status != signal.StatusAccepted {
		t.Fatalf("setup: expected ACCEPTED, got %s", h.Status)
	}

	before := h.Confidence
	err := tr.Apply(h, decision(signal.DecisionAccept, 0.1), nil, false)
	if err == nil {
		t.Fatal("applying a decision to a terminal hypothesis must fail")
	}
	if !errors.Is(err, core.ErrHypothesisTerminal) {
		t.Errorf("expected terminal error, got %v", err)
	}
	if h.Confidence != before {
		t.Error("terminal hypothesis state must not change")
	}
}

func TestConfidenceStaysInUnitIntervalUnderRandomSequences(t *testing.T) {
	tr := testTracker()
	rng := rand.New(rand.NewSource(42))
	kinds := []signal.DecisionKind{
		signal.DecisionAccept, signal.DecisionWeakAccept, signal.DecisionReject,
		signal.DecisionNoProgress, signal.DecisionSaturated,
	}

	for run := 0; run < 50; run++ {
		h := newTestHypothesis(rng.Float64())
		for i := 0; i < 30 && !h.Status.Terminal(); i++ {
			kind := kinds[rng.Intn(len(kinds))]
			delta := 0.0
			if kind.Supportive() {
				delta = rng.Float64() * 0.3
			}
			var ev []signal.Evidence
			if rng.Intn(2) == 0 {
				ev = recentEvidence("multi-year agreement")
			}
			if err := tr.Apply(h, decision(kind, delta), ev, rng.Intn(2) == 0); err != nil {
				t.Fatal(err)
			}
			if h.Confidence < 0 || h.Confidence > 1 {
				t.Fatalf("confidence %g escaped [0,1]", h.Confidence)
			}
		}
	}
}

func TestSaturateLeavesTerminalUntouched(t *testing.T) {
	tr := testTracker()
	h := newTestHypothesis(0.69)
	if err := tr.Apply(h, decision(signal.DecisionAccept, 0.1), nil, false); err != nil {
		t.Fatal(err)
	}

	tr.Saturate(h)
	if h.Status != signal.StatusAccepted {
		t.Errorf("saturate must not demote an accepted hypothesis, got %s", h.Status)
	}

	h2 := newTestHypothesis(0.2)
	tr.Saturate(h2)
	if h2.Status != signal.StatusSaturated {
		t.Errorf("saturate on an active hypothesis must mark SATURATED, got %s", h2.Status)
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
