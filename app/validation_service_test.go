package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"orgscout/domain/core"
	"orgscout/domain/signal"
	"orgscout/internal"
	"orgscout/internal/testkit"
	"orgscout/internal/validate"
)

func newTestValidationService(store *testkit.MemorySignalStore, reasoning *testkit.ScriptedReasoning) *ValidationService {
	cfg := validate.Config{
		MinEvidence:      3,
		MinConfidence:    0.7,
		CredibilityFloor: 0.6,
		RecentWindow:     90 * 24 * time.Hour,
		MaxConcurrent:    2,
	}
	return NewValidationService(validate.NewPipeline(cfg, store, reasoning, internal.DefaultLogger))
}

func TestValidateBatchMixedOutcomes(t *testing.T) {
	store := testkit.NewMemorySignalStore()
	svc := newTestValidationService(store, &testkit.ScriptedReasoning{})

	batch := []signal.CandidateSignal{
		testkit.Candidate("entity-1", "procurement_intent", 0.8, 3, 0.85),
		testkit.Candidate("entity-2", "capacity_expansion", 0.9, 1, 0.9),
	}

	summary, err := svc.ValidateBatch(context.Background(), batch)
	if err != nil {
		t.Fatal(err)
	}

	if summary.ValidatedSignals != 1 || summary.RejectedSignals != 1 {
		t.Fatalf("got %d validated, %d rejected; want 1 and 1",
			summary.ValidatedSignals, summary.RejectedSignals)
	}
	if len(summary.Signals) != 1 || len(summary.Rejections) != 1 {
		t.Fatalf("summary slices out of step with counters")
	}
	if store.Upserts != 1 {
		t.Errorf("store received %d upserts, want 1", store.Upserts)
	}

	rej := summary.Rejections[0]
	if rej.EntityID != "entity-2" || rej.Pass != 1 {
		t.Errorf("rejection = %+v, want entity-2 at pass 1", rej)
	}
	if !strings.HasPrefix(rej.Reason, "Insufficient evidence") {
		t.Errorf("reason = %q", rej.Reason)
	}
}

func TestValidateBatchEmptyIsNotAnError(t *testing.T) {
	svc := newTestValidationService(testkit.NewMemorySignalStore(), &testkit.ScriptedReasoning{})

	summary, err := svc.ValidateBatch(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if summary.ValidatedSignals != 0 || summary.RejectedSignals != 0 {
		t.Errorf("empty batch must produce an all-zero summary, got %+v", summary)
	}
	if summary.Signals == nil || summary.Rejections == nil {
		t.Error("summary slices must be non-nil so JSON renders [] not null")
	}
}

func TestValidateBatchFailsOnCollaboratorOutage(t *testing.T) {
	store := testkit.NewMemorySignalStore()
	seedSignal(t, store, "entity-1", "capacity_expansion")

	reasoning := &testkit.ScriptedReasoning{CheckErr: errOutage("reasoning service unreachable")}
	svc := newTestValidationService(store, reasoning)

	// Clears pass 1, then hits the collaborator during consistency review.
	batch := []signal.CandidateSignal{
		testkit.Candidate("entity-1", "procurement_intent", 0.8, 3, 0.85),
	}

	if _, err := svc.ValidateBatch(context.Background(), batch); err == nil {
		t.Fatal("collaborator outage must fail the batch")
	}
}

func TestIngestAndValidate(t *testing.T) {
	store := testkit.NewMemorySignalStore()
	svc := newTestValidationService(store, &testkit.ScriptedReasoning{})

	source := staticSource{
		testkit.Candidate("entity-1", "procurement_intent", 0.8, 3, 0.85),
	}
	summary, err := svc.IngestAndValidate(context.Background(), source)
	if err != nil {
		t.Fatal(err)
	}
	if summary.ValidatedSignals != 1 {
		t.Errorf("got %d validated signals, want 1", summary.ValidatedSignals)
	}
}

func seedSignal(t *testing.T, store *testkit.MemorySignalStore, entity core.EntityID, signalType string) {
	t.Helper()
	c := signal.CandidateSignal{
		EntityID:   entity,
		SignalType: signalType,
		Confidence: 0.85,
		Evidence: []signal.Evidence{
			testkit.Evidence(signal.ChannelPressRelease, "announced warehouse expansion", 0.8, time.Now()),
			testkit.Evidence(signal.ChannelPublicFilings, "capex disclosure for new facility", 0.8, time.Now()),
			testkit.Evidence(signal.ChannelCareersPage, "hiring wave for logistics roles", 0.8, time.Now()),
		},
	}
	seeded, err := signal.NewValidatedSignal(c, 0.8, 3, 0.7)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertSignal(context.Background(), seeded); err != nil {
		t.Fatal(err)
	}
}

type staticSource []signal.CandidateSignal

func (s staticSource) ReadCandidates(ctx context.Context) ([]signal.CandidateSignal, error) {
	return s, nil
}

type errOutage string

func (e errOutage) Error() string { return string(e) }
