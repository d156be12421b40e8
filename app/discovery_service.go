package app

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"orgscout/domain/core"
	"orgscout/domain/signal"
	"orgscout/internal"
	"orgscout/internal/config"
	"orgscout/internal/discovery"
	"orgscout/internal/report"
	"orgscout/internal/validate"
	"orgscout/ports"
)

// Org identifies one organization to scout.
type Org struct {
	EntityID core.EntityID `json:"entity_id"`
	Name     string        `json:"name"`
}

// DiscoveryService runs discovery loops across organizations and feeds the
// resulting candidates straight into the validation pipeline. Organizations
// run concurrently; iterations within one organization stay sequential.
type DiscoveryService struct {
	collector ports.EvidencePort
	reasoning ports.ReasoningPort
	pipeline  *validate.Pipeline
	cfg       config.DiscoveryConfig
	templates []discovery.HypothesisTemplate
	weights   map[signal.ChannelType]float64
	cred      map[signal.ChannelType]float64
	maxOrgs   int
	log       *internal.Logger

	mu         sync.Mutex
	lastReport *report.RunReport
}

// NewDiscoveryService wires a discovery service with the default hypothesis
// templates and channel weights.
func NewDiscoveryService(collector ports.EvidencePort, reasoning ports.ReasoningPort, pipeline *validate.Pipeline, cfg config.DiscoveryConfig) *DiscoveryService {
	return &DiscoveryService{
		collector: collector,
		reasoning: reasoning,
		pipeline:  pipeline,
		cfg:       cfg,
		templates: discovery.DefaultTemplates(),
		weights:   config.DefaultChannelWeights(),
		cred:      config.DefaultChannelCredibility(),
		maxOrgs:   4,
		log:       internal.Component("DiscoveryService"),
	}
}

// RunBatch scouts every organization concurrently. A failure in one
// organization's run never aborts the others; it is recorded in that
// organization's result instead.
func (s *DiscoveryService) RunBatch(ctx context.Context, orgs []Org) *report.RunReport {
	started := time.Now()
	results := make([]report.OrgResult, len(orgs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxOrgs)

	for i, org := range orgs {
		i, org := i, org
		g.Go(func() error {
			results[i] = s.runOrg(ctx, org)
			return nil
		})
	}
	g.Wait()

	rep := &report.RunReport{
		StartedAt:  started,
		FinishedAt: time.Now(),
		Results:    results,
	}

	s.mu.Lock()
	s.lastReport = rep
	s.mu.Unlock()

	return rep
}

// LastReport returns the most recent batch report, or nil before any run.
func (s *DiscoveryService) LastReport() *report.RunReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReport
}

func (s *DiscoveryService) runOrg(ctx context.Context, org Org) report.OrgResult {
	s.log.Info("starting discovery for %s (%s)", org.Name, org.EntityID)

	sink := &pipelineSink{pipeline: s.pipeline, log: s.log}

	tracker := discovery.NewTracker(discovery.TrackerConfig{
		AcceptThreshold:   s.cfg.AcceptThreshold,
		WeakAcceptCeiling: s.cfg.WeakAcceptCeiling,
		TemporalBonus:     s.cfg.TemporalBonus,
		MultiYearBonus:    s.cfg.MultiYearBonus,
		RecencyWindow:     s.cfg.RecencyWindow,
		MaxIterations:     s.cfg.MaxIterations,
	})
	engine := discovery.NewEngine(s.reasoning, internal.DefaultLogger)
	selector := discovery.NewSelector(s.weights)
	loop := discovery.NewLoop(selector, s.collector, engine, tracker, sink, discovery.LoopConfig{
		MaxIterations:      s.cfg.MaxIterations,
		MaxCost:            s.cfg.MaxCost,
		HopCost:            s.cfg.HopCost,
		ReasoningCost:      s.cfg.ReasoningCost,
		ChannelCredibility: s.cred,
	}, internal.DefaultLogger)

	session := discovery.NewSession(org.EntityID, org.Name, s.templates, s.cfg.BlacklistThreshold)
	stats := loop.Run(ctx, session)

	result := report.OrgResult{
		EntityID:    org.EntityID,
		OrgName:     org.Name,
		RunID:       stats.RunID,
		Iterations:  stats.Iterations,
		Cost:        stats.Cost,
		Termination: string(stats.Terminated),
		Candidates:  stats.Candidates,
		Validated:   sink.validated,
		Rejected:    sink.rejected,
	}
	if stats.Terminated == discovery.TerminatedCancelled {
		result.Err = ctx.Err()
	}
	for _, h := range stats.Hypotheses {
		result.Hypotheses = append(result.Hypotheses, report.HypothesisLine{
			Statement:  h.Statement,
			Category:   h.Category,
			Status:     h.Status,
			Confidence: h.Confidence,
			Iterations: h.Iterations,
		})
	}

	s.log.Info("finished discovery for %s: %d iterations, %d candidates, %d validated",
		org.Name, stats.Iterations, stats.Candidates, sink.validated)
	return result
}

// pipelineSink feeds loop candidates into the validation pipeline. A
// collaborator outage during validation counts the candidate as rejected
// rather than failing the run; candidates are transient and the next
// iteration can reproduce them.
type pipelineSink struct {
	pipeline *validate.Pipeline
	log      *internal.Logger

	mu        sync.Mutex
	validated int
	rejected  int
}

func (s *pipelineSink) Submit(ctx context.Context, c signal.CandidateSignal) error {
	outcome, err := s.pipeline.Validate(ctx, c)

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case err != nil:
		s.log.Warn("validation unavailable for %s candidate: %v", c.EntityID, err)
		s.rejected++
	case outcome.Accepted:
		s.validated++
	default:
		s.log.Debug("candidate rejected at pass %d: %s", outcome.Pass, outcome.Reason)
		s.rejected++
	}
	return nil
}
