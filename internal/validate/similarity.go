package validate

import (
	"strings"
	"unicode"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"

	"orgscout/domain/signal"
)

// meanCredibility returns the mean credibility score across evidence.
func meanCredibility(evidence []signal.Evidence) float64 {
	if len(evidence) == 0 {
		return 0
	}
	scores := make([]float64, len(evidence))
	for i, ev := range evidence {
		scores[i] = ev.CredibilityScore
	}
	mean, err := stats.Mean(scores)
	if err != nil {
		return 0
	}
	return mean
}

// duplicateSimilarity returns the highest cosine similarity between the
// candidate's evidence text and any recent signal's evidence text, in
// [0,1]. This is the duplicate-distance input to the final scoring pass;
// it depends only on the candidate and the store snapshot, so re-running
// against an unchanged store yields the same value.
func duplicateSimilarity(c signal.CandidateSignal, recent []signal.ValidatedSignal) float64 {
	candVec := termFrequencies(evidenceText(c.Evidence))
	if len(candVec) == 0 {
		return 0
	}

	max := 0.0
	for _, s := range recent {
		sim := cosine(candVec, termFrequencies(evidenceText(s.Evidence)))
		if sim > max {
			max = sim
		}
	}
	return max
}

func evidenceText(evidence []signal.Evidence) string {
	var b strings.Builder
	for _, ev := range evidence {
		b.WriteString(ev.ContentSnippet)
		b.WriteString(" ")
	}
	return b.String()
}

// termFrequencies tokenizes text into lowercase terms and counts them.
func termFrequencies(text string) map[string]float64 {
	freqs := make(map[string]float64)
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if len(tok) < 2 {
			continue
		}
		freqs[tok]++
	}
	return freqs
}

// cosine computes cosine similarity between two term-frequency maps over
// their shared vocabulary.
func cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	vocab := make([]string, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for term := range a {
		vocab = append(vocab, term)
		seen[term] = true
	}
	for term := range b {
		if !seen[term] {
			vocab = append(vocab, term)
		}
	}

	va := make([]float64, len(vocab))
	vb := make([]float64, len(vocab))
	for i, term := range vocab {
		va[i] = a[term]
		vb[i] = b[term]
	}

	normA := floats.Norm(va, 2)
	normB := floats.Norm(vb, 2)
	if normA == 0 || normB == 0 {
		return 0
	}
	return floats.Dot(va, vb) / (normA * normB)
}
