package retry

import (
	"context"
	"math/rand"
	"time"
)

// Policy is the single retry/backoff value object shared by every external
// collaborator client (evidence collection and reasoning calls alike).
// MaxRetries counts retries after the first attempt, so MaxRetries=2 means
// at most three calls.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Jitter     float64 // fraction of the delay randomized, 0..1
}

// DefaultPolicy returns the default bounded backoff: two retries starting
// at 500ms with 20% jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: 2,
		BaseDelay:  500 * time.Millisecond,
		Jitter:     0.2,
	}
}

// Delay returns the backoff before retry attempt n (0-based), doubling per
// attempt with jitter applied.
func (p Policy) Delay(attempt int) time.Duration {
	d := p.BaseDelay << uint(attempt)
	if p.Jitter > 0 {
		spread := float64(d) * p.Jitter
		d = time.Duration(float64(d) - spread/2 + rand.Float64()*spread)
	}
	if d < 0 {
		d = 0
	}
	return d
}

// Do runs op, retrying transient failures up to MaxRetries times with
// exponential backoff. It stops early when ctx is done or when op reports a
// permanent failure via Permanent.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(p.Delay(attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err = op(ctx)
		if err == nil {
			return nil
		}
		if pe, ok := err.(*permanentError); ok {
			return pe.err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

// Permanent wraps an error so Do stops retrying and returns it unwrapped.
// Used for failures that a retry cannot fix, like schema violations.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }
