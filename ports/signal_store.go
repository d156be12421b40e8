package ports

import (
	"context"
	"time"

	"orgscout/domain/core"
	"orgscout/domain/signal"
)

// SignalStore is the durable knowledge store. Only the validation pipeline
// writes to it; the discovery loop never touches it directly.
type SignalStore interface {
	// UpsertSignal persists a validated signal, replacing any prior row
	// with the same ID.
	UpsertSignal(ctx context.Context, s *signal.ValidatedSignal) error

	// QueryRecentSignals returns the validated signals for an entity whose
	// creation time falls inside the trailing window, newest first.
	QueryRecentSignals(ctx context.Context, entity core.EntityID, window time.Duration) ([]signal.ValidatedSignal, error)
}
