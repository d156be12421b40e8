package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"orgscout/domain/core"
	"orgscout/domain/signal"
)

// OrgResult is the per-organization slice of a batch run.
type OrgResult struct {
	EntityID    core.EntityID
	OrgName     string
	RunID       core.RunID
	Iterations  int
	Cost        float64
	Termination string
	Hypotheses  []HypothesisLine
	Candidates  int
	Validated   int
	Rejected    int
	Err         error
}

// HypothesisLine is one hypothesis summary row.
type HypothesisLine struct {
	Statement  string
	Category   string
	Status     signal.HypothesisStatus
	Confidence float64
	Iterations int
}

// RunReport summarizes one discovery batch across organizations.
type RunReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []OrgResult
}

// Markdown renders the report as a markdown document. Organizations are
// sorted by name so reruns diff cleanly.
func (r *RunReport) Markdown() string {
	results := make([]OrgResult, len(r.Results))
	copy(results, r.Results)
	sort.Slice(results, func(i, j int) bool { return results[i].OrgName < results[j].OrgName })

	var b strings.Builder
	b.WriteString("# Discovery Run Report\n\n")
	fmt.Fprintf(&b, "Started: %s  \n", r.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Finished: %s  \n", r.FinishedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Organizations: %d\n\n", len(results))

	totalValidated, totalRejected := 0, 0
	for _, res := range results {
		totalValidated += res.Validated
		totalRejected += res.Rejected
	}
	fmt.Fprintf(&b, "**Validated signals: %d** · Rejected candidates: %d\n\n", totalValidated, totalRejected)

	for _, res := range results {
		fmt.Fprintf(&b, "## %s\n\n", res.OrgName)
		if res.Err != nil {
			fmt.Fprintf(&b, "Run failed: %v\n\n", res.Err)
			continue
		}
		fmt.Fprintf(&b, "- Run: `%s`\n", res.RunID)
		fmt.Fprintf(&b, "- Iterations: %d (cost %g)\n", res.Iterations, res.Cost)
		fmt.Fprintf(&b, "- Termination: %s\n", res.Termination)
		fmt.Fprintf(&b, "- Candidates: %d, validated %d, rejected %d\n\n", res.Candidates, res.Validated, res.Rejected)

		if len(res.Hypotheses) > 0 {
			b.WriteString("| Hypothesis | Category | Status | Confidence | Iterations |\n")
			b.WriteString("|---|---|---|---|---|\n")
			for _, h := range res.Hypotheses {
				fmt.Fprintf(&b, "| %s | %s | %s | %.2f | %d |\n",
					escapePipes(h.Statement), h.Category, h.Status, h.Confidence, h.Iterations)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// HTML renders the markdown report to a standalone HTML fragment.
func (r *RunReport) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse([]byte(r.Markdown()))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(doc, renderer)
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
