package pricing

import (
	"context"
	"errors"
	"time"

	"farewatch/internal/domain"
	"farewatch/internal/metrics"
)

// RetrySource decorates a Source with a bounded retry loop. Only
// transient failures are retried; the delay doubles each attempt up to
// MaxBackoff. Retries stay inside one FetchPrice call — the scheduler
// never re-queues a failed check within a tick.
//
// AttemptTimeout bounds each individual attempt, so a provider that
// hangs burns one attempt and its deadline, not the whole loop. Zero
// leaves the caller's deadline in charge.
type RetrySource struct {
	Inner          Source
	Attempts       int
	AttemptTimeout time.Duration
	BaseBackoff    time.Duration
	MaxBackoff     time.Duration
}

func NewRetrySource(inner Source, attempts int, attemptTimeout, base, max time.Duration) *RetrySource {
	if attempts < 1 {
		attempts = 1
	}
	if base <= 0 {
		base = time.Second
	}
	if max < base {
		max = base
	}
	return &RetrySource{
		Inner:          inner,
		Attempts:       attempts,
		AttemptTimeout: attemptTimeout,
		BaseBackoff:    base,
		MaxBackoff:     max,
	}
}

// Budget returns the worst-case wall time one FetchPrice call can take:
// every attempt runs to its deadline and every backoff delay is served.
// Callers that wrap the whole chain in a deadline should size it from
// this, or the later attempts can never run.
func (r *RetrySource) Budget() time.Duration {
	total := time.Duration(r.Attempts) * r.AttemptTimeout
	delay := r.BaseBackoff
	for i := 1; i < r.Attempts; i++ {
		total += delay
		delay *= 2
		if delay > r.MaxBackoff {
			delay = r.MaxBackoff
		}
	}
	return total
}

func (r *RetrySource) FetchPrice(ctx context.Context, route Route) (*domain.PriceQuote, error) {
	var lastErr error
	delay := r.BaseBackoff
	for attempt := 0; attempt < r.Attempts; attempt++ {
		if attempt > 0 {
			metrics.FetchRetriesTotal.Inc()
			select {
			case <-ctx.Done():
				return nil, fetchErr(FetchTimeout, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
			if delay > r.MaxBackoff {
				delay = r.MaxBackoff
			}
		}

		quote, err := r.fetchOnce(ctx, route)
		if err == nil {
			return quote, nil
		}
		lastErr = err

		var fe *FetchError
		if errors.As(err, &fe) && !fe.Transient() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// fetchOnce runs a single attempt under its own deadline. A timed-out
// attempt cancels only itself; the parent context stays live for the
// remaining attempts.
func (r *RetrySource) fetchOnce(ctx context.Context, route Route) (*domain.PriceQuote, error) {
	if r.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.AttemptTimeout)
		defer cancel()
	}
	return r.Inner.FetchPrice(ctx, route)
}
