package excel

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"orgscout/domain/signal"
)

func writeWorkbook(t *testing.T, candidates [][]interface{}, evidence [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", "candidates")
	if _, err := f.NewSheet("evidence"); err != nil {
		t.Fatal(err)
	}

	writeRows := func(sheet string, header []interface{}, rows [][]interface{}) {
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			t.Fatal(err)
		}
		for i, row := range rows {
			axis, err := excelize.JoinCellName("A", i+2)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetSheetRow(sheet, axis, &row); err != nil {
				t.Fatal(err)
			}
		}
	}

	writeRows("candidates",
		[]interface{}{"candidate_id", "entity_id", "signal_type", "confidence"}, candidates)
	writeRows("evidence",
		[]interface{}{"candidate_id", "source_url", "channel_type", "content", "credibility", "collected_at"}, evidence)

	path := filepath.Join(t.TempDir(), "candidates.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadCandidatesJoinsEvidence(t *testing.T) {
	path := writeWorkbook(t,
		[][]interface{}{
			{"c-1", "entity-1", "procurement_intent", 0.8},
			{"c-2", "entity-2", "capacity_expansion", 0.65},
		},
		[][]interface{}{
			{"c-1", "https://example.test/rfp", "rfp_listing", "rfp for endpoint monitoring", 0.9, "2026-08-01"},
			{"c-1", "https://example.test/news", "news_search", "award coverage", 0.6, "2026-08-10"},
			{"c-2", "https://example.test/careers", "careers_page", "hiring wave", 0.7, "2026-07-15"},
		})

	candidates, err := NewCandidateReader(path).ReadCandidates(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}

	first := candidates[0]
	if first.EntityID != "entity-1" || first.SignalType != "procurement_intent" {
		t.Errorf("first candidate = %s/%s", first.EntityID, first.SignalType)
	}
	if first.Confidence != 0.8 {
		t.Errorf("confidence = %g", first.Confidence)
	}
	if len(first.Evidence) != 2 {
		t.Fatalf("first candidate carries %d evidence items, want 2", len(first.Evidence))
	}
	if first.Evidence[0].ChannelType != signal.ChannelRFPListing {
		t.Errorf("channel = %s", first.Evidence[0].ChannelType)
	}
	if first.Metadata["candidate_id"] != "c-1" || first.Metadata["source"] != "workbook" {
		t.Errorf("metadata = %v", first.Metadata)
	}

	if len(candidates[1].Evidence) != 1 {
		t.Errorf("second candidate carries %d evidence items, want 1", len(candidates[1].Evidence))
	}
}

func TestReadCandidatesRejectsDuplicateIDs(t *testing.T) {
	path := writeWorkbook(t,
		[][]interface{}{
			{"c-1", "entity-1", "procurement_intent", 0.8},
			{"c-1", "entity-1", "procurement_intent", 0.9},
		},
		nil)

	_, err := NewCandidateReader(path).ReadCandidates(context.Background())
	if err == nil || !strings.Contains(err.Error(), "duplicate candidate_id") {
		t.Fatalf("err = %v, want duplicate candidate_id", err)
	}
}

func TestReadCandidatesRejectsBadConfidence(t *testing.T) {
	path := writeWorkbook(t,
		[][]interface{}{{"c-1", "entity-1", "procurement_intent", "high"}},
		nil)

	_, err := NewCandidateReader(path).ReadCandidates(context.Background())
	if err == nil || !strings.Contains(err.Error(), "bad confidence") {
		t.Fatalf("err = %v, want bad confidence", err)
	}
}

func TestReadCandidatesMissingWorkbook(t *testing.T) {
	_, err := NewCandidateReader(filepath.Join(t.TempDir(), "missing.xlsx")).ReadCandidates(context.Background())
	if err == nil {
		t.Fatal("missing workbook must error")
	}
}
