package discovery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"orgscout/domain/signal"
	"orgscout/internal"
	"orgscout/internal/errors"
	"orgscout/internal/testkit"
	"orgscout/ports"
)

type failingCollector struct {
	calls int
}

func (f *failingCollector) Collect(ctx context.Context, req ports.CollectRequest) (*ports.CollectResult, error) {
	f.calls++
	return nil, errors.ExternalServiceError(string(req.Channel), fmt.Errorf("unreachable"))
}

type okCollector struct{}

func (okCollector) Collect(ctx context.Context, req ports.CollectRequest) (*ports.CollectResult, error) {
	return &ports.CollectResult{
		Content:     "RFP issued for long-term contract covering endpoint monitoring",
		SourceURL:   "https://example.test/" + string(req.Channel),
		CollectedAt: time.Now(),
	}, nil
}

func testLoop(collector ports.EvidencePort, reasoning ports.ReasoningPort, sink CandidateSink, maxIterations int, maxCost float64) *Loop {
	return NewLoop(
		NewSelector(map[signal.ChannelType]float64{
			signal.ChannelRFPListing:    0.9,
			signal.ChannelProcurement:   0.85,
			signal.ChannelCareersPage:   0.6,
			signal.ChannelPressRelease:  0.55,
			signal.ChannelNewsSearch:    0.5,
			signal.ChannelPublicFilings: 0.4,
		}),
		collector,
		NewEngine(reasoning, internal.DefaultLogger),
		testTracker(),
		sink,
		LoopConfig{
			MaxIterations: maxIterations,
			MaxCost:       maxCost,
			HopCost:       1,
			ReasoningCost: 2,
			ChannelCredibility: map[signal.ChannelType]float64{
				signal.ChannelRFPListing:    0.9,
				signal.ChannelProcurement:   0.85,
				signal.ChannelCareersPage:   0.7,
				signal.ChannelPressRelease:  0.75,
				signal.ChannelNewsSearch:    0.6,
				signal.ChannelPublicFilings: 0.8,
			},
		},
		internal.DefaultLogger,
	)
}

func TestRunStopsAtIterationBudget(t *testing.T) {
	reasoning := &testkit.ScriptedReasoning{Verdicts: []ports.Verdict{verdict("NO_PROGRESS", 0)}}
	sink := &testkit.CollectedSink{}
	loop := testLoop(okCollector{}, reasoning, sink, 5, 1000)

	session := NewSession("entity-1", "Acme Corp", DefaultTemplates(), 2)
	stats := loop.Run(context.Background(), session)

	if stats.Terminated != TerminatedIterationBudget {
		t.Errorf("terminated = %s, want %s", stats.Terminated, TerminatedIterationBudget)
	}
	if stats.Iterations != 5 {
		t.Errorf("iterations = %d, want 5", stats.Iterations)
	}
	for _, h := range stats.Hypotheses {
		if !h.Status.Terminal() {
			t.Errorf("hypothesis %s left %s after budget exhaustion", h.ID, h.Status)
		}
	}
}

func TestRunStopsAtCostBudget(t *testing.T) {
	reasoning := &testkit.ScriptedReasoning{Verdicts: []ports.Verdict{verdict("NO_PROGRESS", 0)}}
	sink := &testkit.CollectedSink{}
	// Each iteration costs 3 (hop 1 + reasoning 2); budget 7 stops after 3.
	loop := testLoop(okCollector{}, reasoning, sink, 100, 7)

	session := NewSession("entity-1", "Acme Corp", DefaultTemplates(), 2)
	stats := loop.Run(context.Background(), session)

	if stats.Terminated != TerminatedCostBudget {
		t.Errorf("terminated = %s, want %s", stats.Terminated, TerminatedCostBudget)
	}
	if stats.Cost < 7 {
		t.Errorf("cost = %g, expected at least the budget", stats.Cost)
	}
}

func TestRunSubmitsCandidatesForSupportiveDecisions(t *testing.T) {
	reasoning := &testkit.ScriptedReasoning{Verdicts: []ports.Verdict{verdict("ACCEPT", 0.06)}}
	sink := &testkit.CollectedSink{}
	loop := testLoop(okCollector{}, reasoning, sink, 6, 1000)

	session := NewSession("entity-1", "Acme Corp", DefaultTemplates(), 2)
	stats := loop.Run(context.Background(), session)

	if stats.Candidates == 0 {
		t.Fatal("accepting run must submit candidates")
	}
	if sink.Count() != stats.Candidates {
		t.Errorf("sink received %d, stats counted %d", sink.Count(), stats.Candidates)
	}
	c := sink.Candidates[0]
	if c.EntityID != "entity-1" {
		t.Errorf("candidate entity = %s", c.EntityID)
	}
	if len(c.Evidence) == 0 {
		t.Error("candidate must carry the supportive evidence")
	}
	if c.Metadata["run_id"] != session.RunID.String() {
		t.Error("candidate must record its run")
	}
}

func TestRunRecordsChannelFailuresWithoutDecisions(t *testing.T) {
	collector := &failingCollector{}
	reasoning := &testkit.ScriptedReasoning{}
	sink := &testkit.CollectedSink{}
	loop := testLoop(collector, reasoning, sink, 4, 1000)

	session := NewSession("entity-1", "Acme Corp", DefaultTemplates(), 2)
	stats := loop.Run(context.Background(), session)

	if stats.ChannelFailures != 4 {
		t.Errorf("channel failures = %d, want 4", stats.ChannelFailures)
	}
	if reasoning.EvaluateCalls != 0 {
		t.Error("failed hops must not reach the reasoning collaborator")
	}
	for _, h := range stats.Hypotheses {
		if len(sink.Candidates) != 0 {
			t.Error("failed hops must not produce candidates")
		}
		// Failed hops consume iterations but never append decisions.
		if h.Iterations != 0 {
			t.Errorf("hypothesis %s shows %d decision iterations from failed hops", h.ID, h.Iterations)
		}
	}
}

func TestRunStopsWhenAllHypothesesTerminal(t *testing.T) {
	// Strong accepts resolve both default hypotheses quickly.
	reasoning := &testkit.ScriptedReasoning{Verdicts: []ports.Verdict{verdict("ACCEPT", 0.6)}}
	sink := &testkit.CollectedSink{}
	loop := testLoop(okCollector{}, reasoning, sink, 100, 1000)

	session := NewSession("entity-1", "Acme Corp", DefaultTemplates(), 2)
	stats := loop.Run(context.Background(), session)

	if stats.Terminated != TerminatedAllResolved {
		t.Errorf("terminated = %s, want %s", stats.Terminated, TerminatedAllResolved)
	}
	for _, h := range stats.Hypotheses {
		if h.Status != signal.StatusAccepted {
			t.Errorf("hypothesis %s = %s, want ACCEPTED", h.ID, h.Status)
		}
	}
}

// recoveringCollector fails its first n hops, then collects normally.
type recoveringCollector struct {
	failures int
	calls    int
}

func (r *recoveringCollector) Collect(ctx context.Context, req ports.CollectRequest) (*ports.CollectResult, error) {
	r.calls++
	if r.calls <= r.failures {
		return nil, errors.ExternalServiceError(string(req.Channel), fmt.Errorf("unreachable"))
	}
	return okCollector{}.Collect(ctx, req)
}

func TestRunRejectsHypothesisWhenChannelsExhausted(t *testing.T) {
	// Single-channel category: two failed hops blacklist the channel, the
	// starvation unblock grants one more hop, and the resulting REJECT must
	// terminate the hypothesis instead of grinding on to saturation.
	templates := []HypothesisTemplate{{
		Category:  "procurement_intent",
		Statement: "%s is preparing to issue a procurement request",
		Prior:     0.15,
		Channels:  []signal.ChannelType{signal.ChannelRFPListing},
	}}

	collector := &recoveringCollector{failures: 2}
	reasoning := &testkit.ScriptedReasoning{Verdicts: []ports.Verdict{verdict("REJECT", 0)}}
	sink := &testkit.CollectedSink{}
	loop := testLoop(collector, reasoning, sink, 100, 1000)

	session := NewSession("entity-1", "Acme Corp", templates, 2)
	stats := loop.Run(context.Background(), session)

	if stats.Terminated != TerminatedAllResolved {
		t.Errorf("terminated = %s, want %s", stats.Terminated, TerminatedAllResolved)
	}
	if len(stats.Hypotheses) != 1 {
		t.Fatalf("got %d hypotheses, want 1", len(stats.Hypotheses))
	}
	if got := stats.Hypotheses[0].Status; got != signal.StatusRejected {
		t.Errorf("hypothesis = %s, want REJECTED", got)
	}
	if stats.ChannelFailures != 2 {
		t.Errorf("channel failures = %d, want 2", stats.ChannelFailures)
	}
	if sink.Count() != 0 {
		t.Error("a rejecting run must not submit candidates")
	}
}

func TestRunRejectKeepsHypothesisActiveWhileChannelsRemain(t *testing.T) {
	reasoning := &testkit.ScriptedReasoning{Verdicts: []ports.Verdict{verdict("REJECT", 0)}}
	sink := &testkit.CollectedSink{}
	loop := testLoop(okCollector{}, reasoning, sink, 2, 1000)

	session := NewSession("entity-1", "Acme Corp", DefaultTemplates(), 2)
	loop.Run(context.Background(), session)

	for _, h := range session.Hypotheses() {
		if h.Status == signal.StatusRejected {
			t.Errorf("REJECT with eligible channels left must not terminate hypothesis %s", h.ID)
		}
	}
}

func TestRunCancellationLeavesHypothesesActive(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reasoning := &testkit.ScriptedReasoning{}
	sink := &testkit.CollectedSink{}
	loop := testLoop(okCollector{}, reasoning, sink, 100, 1000)

	session := NewSession("entity-1", "Acme Corp", DefaultTemplates(), 2)
	stats := loop.Run(ctx, session)

	if stats.Terminated != TerminatedCancelled {
		t.Errorf("terminated = %s, want %s", stats.Terminated, TerminatedCancelled)
	}
	for _, h := range stats.Hypotheses {
		if h.Status != signal.StatusActive {
			t.Errorf("cancellation must leave hypotheses ACTIVE, got %s", h.Status)
		}
	}
}
