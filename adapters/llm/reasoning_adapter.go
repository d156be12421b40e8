package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"orgscout/domain/signal"
	"orgscout/internal"
	apperrors "orgscout/internal/errors"
	"orgscout/internal/retry"
	"orgscout/ports"
)

// ReasoningAdapter implements ports.ReasoningPort on a chat-completion
// client. Transport failures are retried per the policy; malformed
// responses are not retried and surface as MALFORMED_RESPONSE errors so
// the decision engine can downgrade them to NO_PROGRESS.
type ReasoningAdapter struct {
	client Client
	policy retry.Policy
	log    *internal.Logger
}

func NewReasoningAdapter(client Client, policy retry.Policy) *ReasoningAdapter {
	return &ReasoningAdapter{
		client: client,
		policy: policy,
		log:    internal.Component("Reasoning"),
	}
}

func (a *ReasoningAdapter) EvaluateEvidence(ctx context.Context, review ports.EvidenceReview) (*ports.Verdict, error) {
	prompt := buildEvidencePrompt(review)

	var verdict *ports.Verdict
	err := a.policy.Do(ctx, func(ctx context.Context) error {
		content, err := a.client.ChatCompletion(ctx, prompt)
		if err != nil {
			a.log.Warn("evidence evaluation call failed: %v", err)
			return apperrors.ExternalServiceError("llm", err)
		}
		v, perr := parseVerdict(content)
		if perr != nil {
			a.log.Warn("malformed verdict for %q: %v", review.Hypothesis.Statement, perr)
			return retry.Permanent(perr)
		}
		verdict = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.log.Debug("verdict for %q: %s (delta %+.2f)", review.Hypothesis.Statement, verdict.Decision, verdict.ConfidenceDelta)
	return verdict, nil
}

func (a *ReasoningAdapter) CheckConsistency(ctx context.Context, review ports.ConsistencyReview) (*ports.DuplicateCheck, error) {
	prompt := buildConsistencyPrompt(review)

	var check *ports.DuplicateCheck
	err := a.policy.Do(ctx, func(ctx context.Context) error {
		content, err := a.client.ChatCompletion(ctx, prompt)
		if err != nil {
			a.log.Warn("consistency check call failed: %v", err)
			return apperrors.ExternalServiceError("llm", err)
		}
		c, perr := parseDuplicateCheck(content)
		if perr != nil {
			return retry.Permanent(perr)
		}
		check = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return check, nil
}

func parseVerdict(content string) (*ports.Verdict, error) {
	content = cleanJSONContent(content)

	var raw struct {
		Decision        string  `json:"decision"`
		ConfidenceDelta float64 `json:"confidence_delta"`
		Justification   string  `json:"justification"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, apperrors.MalformedResponse("llm", fmt.Errorf("failed to parse verdict JSON: %w", err))
	}

	kind := signal.DecisionKind(strings.ToUpper(strings.TrimSpace(raw.Decision)))
	if !kind.Valid() {
		return nil, apperrors.MalformedResponse("llm", fmt.Errorf("unknown decision %q", raw.Decision))
	}
	if strings.TrimSpace(raw.Justification) == "" {
		return nil, apperrors.MalformedResponse("llm", fmt.Errorf("missing justification"))
	}

	return &ports.Verdict{
		Decision:        string(kind),
		ConfidenceDelta: raw.ConfidenceDelta,
		Justification:   strings.TrimSpace(raw.Justification),
	}, nil
}

func parseDuplicateCheck(content string) (*ports.DuplicateCheck, error) {
	content = cleanJSONContent(content)

	var raw struct {
		Duplicate *bool  `json:"duplicate"`
		Reason    string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, apperrors.MalformedResponse("llm", fmt.Errorf("failed to parse duplicate check JSON: %w", err))
	}
	if raw.Duplicate == nil {
		return nil, apperrors.MalformedResponse("llm", fmt.Errorf("missing duplicate field"))
	}

	return &ports.DuplicateCheck{
		Flagged: *raw.Duplicate,
		Reason:  strings.TrimSpace(raw.Reason),
	}, nil
}

// cleanJSONContent strips markdown code fences and chatter lines that
// models sometimes wrap around JSON output.
func cleanJSONContent(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") && strings.HasSuffix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	} else if strings.HasPrefix(content, "```") && strings.HasSuffix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if trimmed == "" ||
			strings.HasPrefix(lower, "here is") ||
			strings.HasPrefix(lower, "the json") ||
			strings.HasPrefix(lower, "output:") ||
			strings.HasPrefix(lower, "response:") {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}
	return strings.Join(cleaned, "\n")
}
