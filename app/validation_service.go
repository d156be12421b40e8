package app

import (
	"context"
	"time"

	"orgscout/domain/signal"
	"orgscout/internal"
	"orgscout/internal/validate"
	"orgscout/ports"
)

// RejectedSignal is the machine-readable record of one rejection.
type RejectedSignal struct {
	EntityID   string `json:"entity_id"`
	SignalType string `json:"signal_type"`
	Pass       int    `json:"pass"`
	Reason     string `json:"reason"`
}

// Summary is the batch validation result. Zero candidates yields a valid
// all-zero summary, not an error.
type Summary struct {
	ValidatedSignals      int                      `json:"validated_signals"`
	RejectedSignals       int                      `json:"rejected_signals"`
	Signals               []signal.ValidatedSignal `json:"signals"`
	Rejections            []RejectedSignal         `json:"rejections"`
	ValidationTimeSeconds float64                  `json:"validation_time_seconds"`
}

// ValidationService runs batches of candidates through the three-pass
// pipeline, whichever producer they came from.
type ValidationService struct {
	pipeline *validate.Pipeline
	log      *internal.Logger
}

func NewValidationService(pipeline *validate.Pipeline) *ValidationService {
	return &ValidationService{
		pipeline: pipeline,
		log:      internal.Component("ValidationService"),
	}
}

// ValidateBatch validates candidates sequentially in submission order; the
// pipeline itself bounds concurrency when callers overlap. A collaborator
// outage fails the whole batch so the caller can retry it intact.
func (s *ValidationService) ValidateBatch(ctx context.Context, candidates []signal.CandidateSignal) (*Summary, error) {
	started := time.Now()
	summary := &Summary{
		Signals:    make([]signal.ValidatedSignal, 0, len(candidates)),
		Rejections: make([]RejectedSignal, 0),
	}

	for _, c := range candidates {
		outcome, err := s.pipeline.Validate(ctx, c)
		if err != nil {
			return nil, err
		}
		if outcome.Accepted {
			summary.ValidatedSignals++
			summary.Signals = append(summary.Signals, *outcome.Signal)
		} else {
			summary.RejectedSignals++
			summary.Rejections = append(summary.Rejections, RejectedSignal{
				EntityID:   c.EntityID.String(),
				SignalType: c.SignalType,
				Pass:       outcome.Pass,
				Reason:     outcome.Reason,
			})
		}
	}

	summary.ValidationTimeSeconds = time.Since(started).Seconds()
	s.log.Info("batch validated: %d accepted, %d rejected in %.2fs",
		summary.ValidatedSignals, summary.RejectedSignals, summary.ValidationTimeSeconds)
	return summary, nil
}

// IngestAndValidate drains a candidate source (for example an analyst
// workbook) through the pipeline.
func (s *ValidationService) IngestAndValidate(ctx context.Context, source ports.CandidateSource) (*Summary, error) {
	candidates, err := source.ReadCandidates(ctx)
	if err != nil {
		return nil, err
	}
	s.log.Info("ingested %d candidates from source", len(candidates))
	return s.ValidateBatch(ctx, candidates)
}
