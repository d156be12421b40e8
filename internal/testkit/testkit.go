// Package testkit holds in-memory fakes shared across package tests.
package testkit

import (
	"context"
	"sync"
	"time"

	"orgscout/domain/core"
	"orgscout/domain/signal"
	"orgscout/ports"
)

// MemorySignalStore is an in-memory ports.SignalStore.
type MemorySignalStore struct {
	mu      sync.Mutex
	signals map[core.SignalID]signal.ValidatedSignal
	Upserts int
	FailErr error
}

func NewMemorySignalStore() *MemorySignalStore {
	return &MemorySignalStore{signals: make(map[core.SignalID]signal.ValidatedSignal)}
}

func (m *MemorySignalStore) UpsertSignal(ctx context.Context, s *signal.ValidatedSignal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailErr != nil {
		return m.FailErr
	}
	m.signals[s.ID] = *s
	m.Upserts++
	return nil
}

func (m *MemorySignalStore) QueryRecentSignals(ctx context.Context, entity core.EntityID, window time.Duration) ([]signal.ValidatedSignal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-window)
	var out []signal.ValidatedSignal
	for _, s := range m.signals {
		if s.EntityID == entity && !s.CreatedAt.Time().Before(cutoff) {
			out = append(out, s)
		}
	}
	return out, nil
}

// All returns every stored signal.
func (m *MemorySignalStore) All() []signal.ValidatedSignal {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]signal.ValidatedSignal, 0, len(m.signals))
	for _, s := range m.signals {
		out = append(out, s)
	}
	return out
}

// ScriptedReasoning is a ports.ReasoningPort returning verdicts in
// sequence. The last verdict repeats once the script runs out.
type ScriptedReasoning struct {
	mu       sync.Mutex
	Verdicts []ports.Verdict
	Checks   []ports.DuplicateCheck

	EvaluateErr error
	CheckErr    error

	EvaluateCalls int
	CheckCalls    int
}

func (s *ScriptedReasoning) EvaluateEvidence(ctx context.Context, req ports.EvidenceReview) (*ports.Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.EvaluateCalls++
	if s.EvaluateErr != nil {
		return nil, s.EvaluateErr
	}
	if len(s.Verdicts) == 0 {
		return &ports.Verdict{Decision: string(signal.DecisionNoProgress), Justification: "scripted default"}, nil
	}
	idx := s.EvaluateCalls - 1
	if idx >= len(s.Verdicts) {
		idx = len(s.Verdicts) - 1
	}
	v := s.Verdicts[idx]
	return &v, nil
}

func (s *ScriptedReasoning) CheckConsistency(ctx context.Context, req ports.ConsistencyReview) (*ports.DuplicateCheck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CheckCalls++
	if s.CheckErr != nil {
		return nil, s.CheckErr
	}
	if len(s.Checks) == 0 {
		return &ports.DuplicateCheck{Flagged: false, Reason: "no overlap"}, nil
	}
	idx := s.CheckCalls - 1
	if idx >= len(s.Checks) {
		idx = len(s.Checks) - 1
	}
	c := s.Checks[idx]
	return &c, nil
}

// CollectedSink records submitted candidates.
type CollectedSink struct {
	mu         sync.Mutex
	Candidates []signal.CandidateSignal
	Err        error
}

func (s *CollectedSink) Submit(ctx context.Context, c signal.CandidateSignal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Candidates = append(s.Candidates, c)
	return nil
}

// Count returns the number of submitted candidates.
func (s *CollectedSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Candidates)
}

// Evidence builds a test evidence item collected at the given time.
func Evidence(channel signal.ChannelType, content string, credibility float64, collectedAt time.Time) signal.Evidence {
	return signal.NewEvidence(
		"https://example.test/"+string(channel),
		channel,
		content,
		credibility,
		core.NewTimestamp(collectedAt),
	)
}

// Candidate builds a test candidate with n evidence items at the given
// credibility, all collected now.
func Candidate(entity core.EntityID, signalType string, confidence float64, n int, credibility float64) signal.CandidateSignal {
	evidence := make([]signal.Evidence, 0, n)
	for i := 0; i < n; i++ {
		evidence = append(evidence, Evidence(signal.ChannelNewsSearch, "evidence item", credibility, time.Now()))
	}
	return signal.CandidateSignal{
		EntityID:   entity,
		SignalType: signalType,
		Confidence: confidence,
		Evidence:   evidence,
		Metadata:   map[string]string{"source": "test"},
	}
}
