package excel

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"orgscout/domain/core"
	"orgscout/domain/signal"
	"orgscout/internal"
)

// CandidateReader ingests analyst-curated candidate signals from a
// workbook. Everything it yields still goes through the full validation
// pipeline; a spreadsheet row is never trusted on its own.
//
// Expected layout:
//
//	"candidates" sheet: candidate_id | entity_id | signal_type | confidence
//	"evidence" sheet:   candidate_id | source_url | channel_type | content | credibility | collected_at
type CandidateReader struct {
	filePath string
	log      *internal.Logger
}

// NewCandidateReader creates a reader for the given workbook path.
func NewCandidateReader(filePath string) *CandidateReader {
	return &CandidateReader{
		filePath: filePath,
		log:      internal.Component("CandidateReader"),
	}
}

type candidateRow struct {
	key        string
	entityID   core.EntityID
	signalType string
	confidence float64
}

// ReadCandidates implements ports.CandidateSource.
func (r *CandidateReader) ReadCandidates(ctx context.Context) ([]signal.CandidateSignal, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("workbook not found: %s", r.filePath)
	}

	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	candidates, order, err := r.readCandidateSheet(f)
	if err != nil {
		return nil, err
	}

	evidence, err := r.readEvidenceSheet(f)
	if err != nil {
		return nil, err
	}

	out := make([]signal.CandidateSignal, 0, len(order))
	for _, key := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := candidates[key]
		out = append(out, signal.CandidateSignal{
			EntityID:   row.entityID,
			SignalType: row.signalType,
			Confidence: row.confidence,
			Evidence:   evidence[key],
			Metadata: map[string]string{
				"source":       "workbook",
				"candidate_id": key,
			},
		})
	}

	r.log.Info("read %d candidates (%d with evidence) from %s", len(out), len(evidence), r.filePath)
	return out, nil
}

func (r *CandidateReader) readCandidateSheet(f *excelize.File) (map[string]candidateRow, []string, error) {
	rows, err := f.GetRows("candidates")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read candidates sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("candidates sheet must have a header row and at least one data row")
	}

	cols, err := headerIndex(rows[0], "candidate_id", "entity_id", "signal_type", "confidence")
	if err != nil {
		return nil, nil, fmt.Errorf("candidates sheet: %w", err)
	}

	candidates := make(map[string]candidateRow)
	var order []string
	for i := 1; i < len(rows); i++ {
		key := cell(rows[i], cols["candidate_id"])
		if key == "" {
			continue
		}
		confidence, err := strconv.ParseFloat(cell(rows[i], cols["confidence"]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("candidates row %d: bad confidence: %w", i+1, err)
		}
		entityID, err := core.ParseEntityID(cell(rows[i], cols["entity_id"]))
		if err != nil {
			return nil, nil, fmt.Errorf("candidates row %d: %w", i+1, err)
		}
		if _, dup := candidates[key]; dup {
			return nil, nil, fmt.Errorf("candidates row %d: duplicate candidate_id %s", i+1, key)
		}
		candidates[key] = candidateRow{
			key:        key,
			entityID:   entityID,
			signalType: cell(rows[i], cols["signal_type"]),
			confidence: confidence,
		}
		order = append(order, key)
	}

	return candidates, order, nil
}

func (r *CandidateReader) readEvidenceSheet(f *excelize.File) (map[string][]signal.Evidence, error) {
	rows, err := f.GetRows("evidence")
	if err != nil {
		return nil, fmt.Errorf("failed to read evidence sheet: %w", err)
	}
	if len(rows) < 2 {
		return map[string][]signal.Evidence{}, nil
	}

	cols, err := headerIndex(rows[0], "candidate_id", "source_url", "channel_type", "content", "credibility", "collected_at")
	if err != nil {
		return nil, fmt.Errorf("evidence sheet: %w", err)
	}

	evidence := make(map[string][]signal.Evidence)
	for i := 1; i < len(rows); i++ {
		key := cell(rows[i], cols["candidate_id"])
		if key == "" {
			continue
		}
		credibility, err := strconv.ParseFloat(cell(rows[i], cols["credibility"]), 64)
		if err != nil {
			return nil, fmt.Errorf("evidence row %d: bad credibility: %w", i+1, err)
		}
		collectedAt, err := parseDate(cell(rows[i], cols["collected_at"]))
		if err != nil {
			return nil, fmt.Errorf("evidence row %d: bad collected_at: %w", i+1, err)
		}
		ev := signal.NewEvidence(
			cell(rows[i], cols["source_url"]),
			signal.ChannelType(cell(rows[i], cols["channel_type"])),
			cell(rows[i], cols["content"]),
			credibility,
			core.NewTimestamp(collectedAt),
		)
		evidence[key] = append(evidence[key], ev)
	}

	return evidence, nil
}

func headerIndex(header []string, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return idx, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02", "01-02-06", "1/2/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
