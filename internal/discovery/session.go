package discovery

import (
	"sync"
	"time"

	"orgscout/domain/core"
	"orgscout/domain/signal"
)

// Session owns all mutable discovery state for one organization: the seeded
// hypotheses, the channel blacklist, the evidence gathered per hypothesis,
// and the running iteration/cost counters. Sessions are never shared across
// organizations, which keeps concurrent runs isolated by construction.
type Session struct {
	RunID     core.RunID
	EntityID  core.EntityID
	OrgName   string
	Templates []HypothesisTemplate
	Blacklist *Blacklist
	StartedAt time.Time

	mu         sync.Mutex
	hypotheses []*signal.Hypothesis
	evidence   map[core.HypothesisID][]signal.Evidence
	iterations int
	cost       float64
}

// NewSession seeds a session for one organization from the given templates.
func NewSession(entity core.EntityID, orgName string, templates []HypothesisTemplate, blacklistThreshold int) *Session {
	return &Session{
		RunID:      core.RunID(core.NewID()),
		EntityID:   entity,
		OrgName:    orgName,
		Templates:  templates,
		Blacklist:  NewBlacklist(blacklistThreshold),
		StartedAt:  time.Now(),
		hypotheses: Seed(entity, orgName, templates),
		evidence:   make(map[core.HypothesisID][]signal.Evidence),
	}
}

// Hypotheses returns the session's hypotheses (shared pointers; mutation is
// the tracker's job).
func (s *Session) Hypotheses() []*signal.Hypothesis {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*signal.Hypothesis, len(s.hypotheses))
	copy(out, s.hypotheses)
	return out
}

// Active returns the hypotheses still open for decisions.
func (s *Session) Active() []*signal.Hypothesis {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := make([]*signal.Hypothesis, 0, len(s.hypotheses))
	for _, h := range s.hypotheses {
		if !h.Status.Terminal() {
			active = append(active, h)
		}
	}
	return active
}

// AddEvidence appends collected evidence to a hypothesis's supporting set.
func (s *Session) AddEvidence(id core.HypothesisID, ev signal.Evidence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evidence[id] = append(s.evidence[id], ev)
}

// EvidenceFor returns a copy of the evidence gathered for a hypothesis.
func (s *Session) EvidenceFor(id core.HypothesisID) []signal.Evidence {
	s.mu.Lock()
	defer s.mu.Unlock()
	evs := s.evidence[id]
	out := make([]signal.Evidence, len(evs))
	copy(out, evs)
	return out
}

// CountIteration advances the run's iteration counter and adds hop cost.
func (s *Session) CountIteration(cost float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.iterations++
	s.cost += cost
}

// AddCost accrues additional cost (e.g. a reasoning call) to the run.
func (s *Session) AddCost(cost float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cost += cost
}

// Iterations returns the run-level iteration count.
func (s *Session) Iterations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iterations
}

// Cost returns the cumulative run cost.
func (s *Session) Cost() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cost
}
