package llm

import (
	"fmt"
	"strings"

	"orgscout/ports"
)

func buildEvidencePrompt(review ports.EvidenceReview) string {
	var b strings.Builder

	b.WriteString("Evaluate whether the evidence below supports the hypothesis.\n\n")
	fmt.Fprintf(&b, "HYPOTHESIS: %s\n", review.Hypothesis.Statement)
	fmt.Fprintf(&b, "CATEGORY: %s\n", review.Hypothesis.Category)
	fmt.Fprintf(&b, "CURRENT CONFIDENCE: %.2f (after %d iterations)\n\n", review.Hypothesis.Confidence, review.Hypothesis.Iteration)

	if review.ChannelGuidance != "" {
		fmt.Fprintf(&b, "CHANNEL GUIDANCE: %s\n\n", review.ChannelGuidance)
	}

	b.WriteString("EVIDENCE:\n")
	for _, ev := range review.Evidence {
		fmt.Fprintf(&b, "- channel=%s source=%s collected=%s\n  %s\n",
			ev.ChannelType, ev.SourceURL, ev.CollectedAt.Time().Format("2006-01-02"), ev.ContentSnippet)
	}
	b.WriteString("\n")

	if len(review.History) > 0 {
		b.WriteString("PRIOR DECISIONS FOR THIS HYPOTHESIS:\n")
		for _, d := range review.History {
			fmt.Fprintf(&b, "- %s (delta %+.2f): %s\n", d.Kind, d.ConfidenceDelta, d.Justification)
		}
		b.WriteString("\n")
	}

	b.WriteString(`Respond with JSON only:
{
  "decision": "ACCEPT|WEAK_ACCEPT|REJECT|NO_PROGRESS|SATURATED",
  "confidence_delta": 0.06,
  "justification": "one sentence citing the evidence"
}

Rules:
- ACCEPT requires direct, dated evidence of the hypothesized activity; confidence_delta must be positive.
- WEAK_ACCEPT is for indirect or stale corroboration; keep confidence_delta small.
- REJECT means the evidence contradicts the hypothesis. NO_PROGRESS means it is irrelevant.
- SATURATED means this channel has nothing new to offer.
- REJECT, NO_PROGRESS and SATURATED take confidence_delta 0.`)

	return b.String()
}

func buildConsistencyPrompt(review ports.ConsistencyReview) string {
	var b strings.Builder

	b.WriteString("Check the candidate signal against recently validated signals for the same organization.\n\n")
	fmt.Fprintf(&b, "CANDIDATE: type=%s confidence=%.2f\n", review.Candidate.SignalType, review.Candidate.Confidence)
	for _, ev := range review.Candidate.Evidence {
		fmt.Fprintf(&b, "- [%s] %s\n", ev.ChannelType, ev.ContentSnippet)
	}
	b.WriteString("\nRECENT VALIDATED SIGNALS:\n")
	for _, s := range review.Recent {
		fmt.Fprintf(&b, "- type=%s confidence=%.2f created=%s\n", s.Type, s.Confidence, s.CreatedAt.Time().Format("2006-01-02"))
		// The comparison needs the claims themselves, not just the labels.
		for _, ev := range s.Evidence {
			fmt.Fprintf(&b, "  - [%s] %s\n", ev.ChannelType, ev.ContentSnippet)
		}
	}

	b.WriteString(`
Respond with JSON only:
{
  "duplicate": false,
  "reason": "one sentence"
}

Flag duplicate=true when the candidate restates a recent signal's underlying event, or when it contradicts a recent signal without new evidence.`)

	return b.String()
}
