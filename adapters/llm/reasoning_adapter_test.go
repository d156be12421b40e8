package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"orgscout/domain/core"
	"orgscout/domain/signal"
	"orgscout/internal/errors"
	"orgscout/internal/retry"
	"orgscout/ports"
)

func fastPolicy() retry.Policy {
	return retry.Policy{MaxRetries: 2, BaseDelay: 0, Jitter: 0}
}

func sampleReview() ports.EvidenceReview {
	return ports.EvidenceReview{
		Hypothesis: ports.HypothesisContext{
			Statement:  "Acme is buying security tooling",
			Category:   "procurement_intent",
			Confidence: 0.2,
		},
		Evidence: []signal.Evidence{
			signal.NewEvidence("https://example.test/rfp", signal.ChannelRFPListing, "RFP issued", 0.9, core.Now()),
		},
	}
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    ports.Verdict
		wantErr bool
	}{
		{
			name:    "plain json",
			content: `{"decision": "ACCEPT", "confidence_delta": 0.06, "justification": "direct RFP match"}`,
			want:    ports.Verdict{Decision: "ACCEPT", ConfidenceDelta: 0.06, Justification: "direct RFP match"},
		},
		{
			name: "markdown fenced",
			content: "```json\n" +
				`{"decision": "weak_accept", "confidence_delta": 0.02, "justification": "stale corroboration"}` +
				"\n```",
			want: ports.Verdict{Decision: "WEAK_ACCEPT", ConfidenceDelta: 0.02, Justification: "stale corroboration"},
		},
		{
			name: "chatter prefix",
			content: "Here is the verdict:\n" +
				`{"decision": "REJECT", "confidence_delta": 0, "justification": "contradicts hypothesis"}`,
			want: ports.Verdict{Decision: "REJECT", ConfidenceDelta: 0, Justification: "contradicts hypothesis"},
		},
		{
			name:    "unknown decision",
			content: `{"decision": "MAYBE", "confidence_delta": 0, "justification": "unsure"}`,
			wantErr: true,
		},
		{
			name:    "missing justification",
			content: `{"decision": "ACCEPT", "confidence_delta": 0.06, "justification": "  "}`,
			wantErr: true,
		},
		{
			name:    "not json",
			content: "I cannot evaluate this evidence.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVerdict(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.CodeMalformedResponse),
					"schema violations must carry MALFORMED_RESPONSE, got %v", err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseDuplicateCheck(t *testing.T) {
	got, err := parseDuplicateCheck(`{"duplicate": true, "reason": "same event"}`)
	assert.NoError(t, err)
	assert.True(t, got.Flagged)
	assert.Equal(t, "same event", got.Reason)

	_, err = parseDuplicateCheck(`{"reason": "no duplicate field"}`)
	assert.True(t, errors.HasCode(err, errors.CodeMalformedResponse))
}

func TestEvaluateEvidenceMalformedIsNotRetried(t *testing.T) {
	client := &MockClient{Responses: []string{"garbage", `{"decision": "ACCEPT", "confidence_delta": 0.06, "justification": "x"}`}}
	adapter := NewReasoningAdapter(client, fastPolicy())

	_, err := adapter.EvaluateEvidence(context.Background(), sampleReview())
	assert.True(t, errors.HasCode(err, errors.CodeMalformedResponse))
	assert.Equal(t, 1, client.Calls, "malformed responses must not be retried")
}

func TestEvaluateEvidenceTransportIsRetried(t *testing.T) {
	client := &MockClient{Error: assert.AnError}
	adapter := NewReasoningAdapter(client, fastPolicy())

	_, err := adapter.EvaluateEvidence(context.Background(), sampleReview())
	assert.True(t, errors.HasCode(err, errors.CodeExternalService))
	assert.Equal(t, 3, client.Calls, "transport failures retry up to the policy budget")
}

func TestEvaluateEvidenceSuccess(t *testing.T) {
	client := &MockClient{Responses: []string{
		`{"decision": "ACCEPT", "confidence_delta": 0.06, "justification": "direct match"}`,
	}}
	adapter := NewReasoningAdapter(client, fastPolicy())

	v, err := adapter.EvaluateEvidence(context.Background(), sampleReview())
	assert.NoError(t, err)
	assert.Equal(t, "ACCEPT", v.Decision)
	assert.InDelta(t, 0.06, v.ConfidenceDelta, 1e-9)
}

func TestCleanJSONContent(t *testing.T) {
	in := "```\n{\"a\": 1}\n```"
	assert.Equal(t, `{"a": 1}`, cleanJSONContent(in))
}

func TestConsistencyPromptCarriesRecentClaims(t *testing.T) {
	review := ports.ConsistencyReview{
		Candidate: signal.CandidateSignal{
			EntityID:   "entity-1",
			SignalType: "procurement_intent",
			Confidence: 0.8,
			Evidence: []signal.Evidence{
				signal.NewEvidence("https://example.test/rfp", signal.ChannelRFPListing,
					"RFP issued for endpoint monitoring", 0.9, core.Now()),
			},
		},
		Recent: []signal.ValidatedSignal{{
			ID:             "sig-1",
			Type:           "procurement_intent",
			Confidence:     0.82,
			Validated:      true,
			ValidationPass: 3,
			EntityID:       "entity-1",
			Evidence: []signal.Evidence{
				signal.NewEvidence("https://example.test/award", signal.ChannelNewsSearch,
					"network refresh contract awarded to incumbent", 0.6, core.Now()),
			},
			CreatedAt: core.Now(),
		}},
	}

	prompt := buildConsistencyPrompt(review)

	// The collaborator can only judge duplication if both sides' claim
	// content is in the prompt, not just types and confidences.
	assert.Contains(t, prompt, "RFP issued for endpoint monitoring")
	assert.Contains(t, prompt, "network refresh contract awarded to incumbent")
	assert.Contains(t, prompt, "type=procurement_intent")
}
