package ports

import (
	"context"

	"orgscout/domain/signal"
)

// CandidateSource is any ingestion path other than the discovery loop that
// produces candidate signals. Everything it yields still goes through the
// full three-pass validation pipeline.
type CandidateSource interface {
	ReadCandidates(ctx context.Context) ([]signal.CandidateSignal, error)
}
