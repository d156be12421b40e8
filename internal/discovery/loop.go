package discovery

import (
	"context"
	"time"

	"orgscout/domain/core"
	"orgscout/domain/signal"
	"orgscout/internal"
	"orgscout/ports"
)

// CandidateSink consumes every candidate signal a supportive decision
// produces. In production this is the three-pass validation pipeline; the
// loop itself never writes to the signal store.
type CandidateSink interface {
	Submit(ctx context.Context, c signal.CandidateSignal) error
}

// LoopConfig bounds one organization's discovery run.
type LoopConfig struct {
	MaxIterations      int
	MaxCost            float64
	HopCost            float64
	ReasoningCost      float64
	ChannelCredibility map[signal.ChannelType]float64
}

// TerminationReason explains why a run stopped.
type TerminationReason string

const (
	TerminatedAllResolved     TerminationReason = "all_hypotheses_terminal"
	TerminatedIterationBudget TerminationReason = "iteration_budget"
	TerminatedCostBudget      TerminationReason = "cost_budget"
	TerminatedCancelled       TerminationReason = "cancelled"
)

// HypothesisOutcome summarizes one hypothesis at the end of a run.
type HypothesisOutcome struct {
	ID         core.HypothesisID       `json:"id"`
	Category   string                  `json:"category"`
	Statement  string                  `json:"statement"`
	Status     signal.HypothesisStatus `json:"status"`
	Confidence float64                 `json:"confidence"`
	Iterations int                     `json:"iterations"`
}

// RunStats is the aggregate outcome of one organization's run. Always
// produced, even when the run ends early or every hop fails.
type RunStats struct {
	RunID           core.RunID          `json:"run_id"`
	EntityID        core.EntityID       `json:"entity_id"`
	OrgName         string              `json:"org_name"`
	Iterations      int                 `json:"iterations"`
	Cost            float64             `json:"cost"`
	Candidates      int                 `json:"candidates"`
	ChannelFailures int                 `json:"channel_failures"`
	Terminated      TerminationReason   `json:"terminated"`
	Hypotheses      []HypothesisOutcome `json:"hypotheses"`
	StartedAt       time.Time           `json:"started_at"`
	FinishedAt      time.Time           `json:"finished_at"`
}

// Loop drives the per-organization state machine: select channel, collect
// evidence, decide, update confidence, repeat within the iteration and cost
// budgets. Iterations for one hypothesis are strictly sequential; evidence
// from hop N informs the channel choice for hop N+1.
type Loop struct {
	selector  *Selector
	collector ports.EvidencePort
	engine    *Engine
	tracker   *Tracker
	sink      CandidateSink
	cfg       LoopConfig
	log       *internal.Logger
}

// NewLoop wires a discovery loop from its collaborators.
func NewLoop(selector *Selector, collector ports.EvidencePort, engine *Engine, tracker *Tracker, sink CandidateSink, cfg LoopConfig, log *internal.Logger) *Loop {
	return &Loop{
		selector:  selector,
		collector: collector,
		engine:    engine,
		tracker:   tracker,
		sink:      sink,
		cfg:       cfg,
		log:       log.Component("DiscoveryLoop"),
	}
}

// Run executes the discovery loop for one organization's session until a
// budget runs out, every hypothesis is terminal, or ctx is cancelled.
func (l *Loop) Run(ctx context.Context, session *Session) *RunStats {
	stats := &RunStats{
		RunID:     session.RunID,
		EntityID:  session.EntityID,
		OrgName:   session.OrgName,
		StartedAt: session.StartedAt,
	}

	turn := 0
	for {
		if ctx.Err() != nil {
			// Cancellation leaves in-flight hypotheses ACTIVE; the last
			// committed confidence update stands untouched.
			stats.Terminated = TerminatedCancelled
			break
		}
		if session.Iterations() >= l.cfg.MaxIterations {
			stats.Terminated = TerminatedIterationBudget
			l.saturateRemaining(session)
			break
		}
		if session.Cost() >= l.cfg.MaxCost {
			stats.Terminated = TerminatedCostBudget
			l.saturateRemaining(session)
			break
		}

		active := session.Active()
		if len(active) == 0 {
			stats.Terminated = TerminatedAllResolved
			break
		}

		h := active[turn%len(active)]
		turn++

		l.step(ctx, session, h, stats)
	}

	stats.Iterations = session.Iterations()
	stats.Cost = session.Cost()
	stats.FinishedAt = time.Now()
	for _, h := range session.Hypotheses() {
		stats.Hypotheses = append(stats.Hypotheses, HypothesisOutcome{
			ID:         h.ID,
			Category:   h.Category,
			Statement:  h.Statement,
			Status:     h.Status,
			Confidence: h.Confidence,
			Iterations: h.IterationCount,
		})
	}

	l.log.Info("run %s for %s finished: %d iterations, cost %.1f, %d candidates, reason=%s",
		session.RunID, session.OrgName, stats.Iterations, stats.Cost, stats.Candidates, stats.Terminated)
	return stats
}

// step performs one iteration against one hypothesis. A collector or
// reasoning transport failure consumes the iteration and charges the
// channel's blacklist entry without producing a Decision.
func (l *Loop) step(ctx context.Context, session *Session, h *signal.Hypothesis, stats *RunStats) {
	channels := ChannelsFor(h.Category, session.Templates)

	// Snapshot exhaustion before ranking: Rank's starvation unblock and a
	// later RecordSuccess both clear blacklist flags, so this is the only
	// point where "no remaining eligible channels" is still observable.
	exhausted := session.Blacklist.AllBlacklisted(channels)

	ranked := l.selector.Rank(session.Blacklist, channels)
	if len(ranked) == 0 {
		l.log.Warn("no channels declared for category %s, saturating hypothesis %s", h.Category, h.ID)
		l.tracker.Saturate(h)
		return
	}
	ch := ranked[0]

	session.CountIteration(l.cfg.HopCost)

	res, err := l.collector.Collect(ctx, ports.CollectRequest{
		Channel:  ch,
		EntityID: session.EntityID,
		Query:    map[string]string{"org": session.OrgName},
	})
	if err != nil {
		l.log.Warn("hop on %s failed for %s: %v", ch, session.OrgName, err)
		session.Blacklist.RecordFailure(ch)
		stats.ChannelFailures++
		return
	}

	ev := signal.NewEvidence(res.SourceURL, ch, snippet(res.Content), l.cfg.ChannelCredibility[ch], core.NewTimestamp(res.CollectedAt))

	session.AddCost(l.cfg.ReasoningCost)
	decision, err := l.engine.Decide(ctx, h, ev, GuidanceFor(h.Category, session.Templates))
	if err != nil {
		l.log.Warn("reasoning call failed on %s for %s: %v", ch, session.OrgName, err)
		session.Blacklist.RecordFailure(ch)
		stats.ChannelFailures++
		return
	}
	session.Blacklist.RecordSuccess(ch)

	if decision.Kind.Supportive() {
		session.AddEvidence(h.ID, ev)
	}

	if err := l.tracker.Apply(h, decision, session.EvidenceFor(h.ID), exhausted); err != nil {
		l.log.Warn("skipping decision for terminal hypothesis %s: %v", h.ID, err)
		return
	}

	l.log.Debug("hypothesis %s: %s via %s, confidence now %.3f (%s)",
		h.ID, decision.Kind, ch, h.Confidence, h.Status)

	if decision.Kind.Supportive() {
		candidate := signal.CandidateSignal{
			EntityID:   session.EntityID,
			SignalType: h.Category,
			Confidence: h.Confidence,
			Evidence:   session.EvidenceFor(h.ID),
			Metadata: map[string]string{
				"run_id":        session.RunID.String(),
				"hypothesis_id": h.ID.String(),
				"statement":     h.Statement,
				"decision":      string(decision.Kind),
			},
		}
		if err := l.sink.Submit(ctx, candidate); err != nil {
			l.log.Warn("candidate hand-off failed for %s: %v", session.OrgName, err)
		} else {
			stats.Candidates++
		}
	}
}

// saturateRemaining marks still-active hypotheses saturated on graceful
// budget exhaustion. Terminal hypotheses are left untouched.
func (l *Loop) saturateRemaining(session *Session) {
	for _, h := range session.Active() {
		l.tracker.Saturate(h)
	}
}

const maxSnippetLen = 4000

// snippet truncates collected content to a bounded evidence snippet.
func snippet(content string) string {
	if len(content) <= maxSnippetLen {
		return content
	}
	return content[:maxSnippetLen]
}
