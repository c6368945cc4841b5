package pricing

import (
	"context"
	"sync"
	"testing"
	"time"

	"farewatch/internal/domain"
)

// fake source you can control
type fakeSource struct {
	results []func() (*domain.PriceQuote, error)
	calls   int
}

func (f *fakeSource) FetchPrice(ctx context.Context, route Route) (*domain.PriceQuote, error) {
	if f.calls >= len(f.results) {
		return nil, fetchErr(FetchTransport, nil)
	}
	r := f.results[f.calls]
	f.calls++
	return r()
}

func quote(p float64) func() (*domain.PriceQuote, error) {
	return func() (*domain.PriceQuote, error) {
		return &domain.PriceQuote{Price: p, Currency: "USD"}, nil
	}
}

func failure(kind FetchKind) func() (*domain.PriceQuote, error) {
	return func() (*domain.PriceQuote, error) { return nil, fetchErr(kind, nil) }
}

func TestRetrySource_SucceedsAfterRetry(t *testing.T) {
	f := &fakeSource{results: []func() (*domain.PriceQuote, error){
		failure(FetchTimeout),
		quote(480),
	}}
	rs := NewRetrySource(f, 3, 0, time.Millisecond, 4*time.Millisecond)

	q, err := rs.FetchPrice(context.Background(), Route{Origin: "OSL", Destination: "JFK"})
	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if q.Price != 480 {
		t.Fatalf("unexpected quote: %+v", q)
	}
	if f.calls != 2 {
		t.Fatalf("want 2 calls, got %d", f.calls)
	}
}

func TestRetrySource_ExhaustsBudget(t *testing.T) {
	f := &fakeSource{results: []func() (*domain.PriceQuote, error){
		failure(FetchTimeout),
		failure(FetchTransport),
		failure(FetchRateLimited),
	}}
	rs := NewRetrySource(f, 3, 0, time.Millisecond, 2*time.Millisecond)

	_, err := rs.FetchPrice(context.Background(), Route{Origin: "OSL", Destination: "JFK"})
	if err == nil {
		t.Fatal("expected error after budget exhausted")
	}
	if f.calls != 3 {
		t.Fatalf("want 3 attempts, got %d", f.calls)
	}
}

func TestRetrySource_PermanentFailsFast(t *testing.T) {
	f := &fakeSource{results: []func() (*domain.PriceQuote, error){
		failure(FetchPermanent),
		quote(480), // must never be reached
	}}
	rs := NewRetrySource(f, 3, 0, time.Millisecond, 2*time.Millisecond)

	_, err := rs.FetchPrice(context.Background(), Route{Origin: "XXX", Destination: "JFK"})
	if err == nil {
		t.Fatal("expected permanent error")
	}
	if f.calls != 1 {
		t.Fatalf("permanent failure must not retry, got %d calls", f.calls)
	}
}

func TestRetrySource_CancelledContextStopsRetrying(t *testing.T) {
	f := &fakeSource{results: []func() (*domain.PriceQuote, error){
		failure(FetchTransport),
		failure(FetchTransport),
	}}
	rs := NewRetrySource(f, 5, 0, 50*time.Millisecond, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := rs.FetchPrice(ctx, Route{Origin: "OSL", Destination: "JFK"})
	if err == nil {
		t.Fatal("expected error")
	}
	if f.calls > 1 {
		t.Fatalf("cancelled context should stop retries, got %d calls", f.calls)
	}
}

func TestRetrySource_BackoffDoublesAndCaps(t *testing.T) {
	f := &fakeSource{results: []func() (*domain.PriceQuote, error){
		failure(FetchTransport),
		failure(FetchTransport),
		failure(FetchTransport),
		failure(FetchTransport),
	}}
	rs := NewRetrySource(f, 4, 0, 5*time.Millisecond, 10*time.Millisecond)

	start := time.Now()
	_, _ = rs.FetchPrice(context.Background(), Route{Origin: "OSL", Destination: "JFK"})
	elapsed := time.Since(start)

	// delays: 5ms, 10ms, 10ms (capped) = 25ms minimum
	if elapsed < 25*time.Millisecond {
		t.Fatalf("backoff too short: %v", elapsed)
	}
}

// hangingSource blocks until its context expires, like a provider that
// accepts the connection and never answers.
type hangingSource struct {
	mu    sync.Mutex
	calls int
}

func (h *hangingSource) FetchPrice(ctx context.Context, route Route) (*domain.PriceQuote, error) {
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()
	<-ctx.Done()
	return nil, fetchErr(FetchTimeout, ctx.Err())
}

func (h *hangingSource) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func TestRetrySource_HungProviderRetriedPerAttempt(t *testing.T) {
	h := &hangingSource{}
	rs := NewRetrySource(h, 3, 15*time.Millisecond, time.Millisecond, 4*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), rs.Budget()+100*time.Millisecond)
	defer cancel()

	_, err := rs.FetchPrice(ctx, Route{Origin: "OSL", Destination: "JFK"})
	if err == nil {
		t.Fatal("expected error from a hung provider")
	}
	if got := h.count(); got != 3 {
		t.Fatalf("each hung attempt must time out on its own and be retried: want 3 attempts, got %d", got)
	}
	if ctx.Err() != nil {
		t.Fatal("retry loop must finish within its own budget")
	}
}

func TestRetrySource_BudgetCoversAttemptsAndBackoff(t *testing.T) {
	rs := NewRetrySource(&hangingSource{}, 3, 100*time.Millisecond, 10*time.Millisecond, 15*time.Millisecond)

	// 3 attempts x 100ms + delays 10ms and 15ms (20 capped at 15)
	if got := rs.Budget(); got != 325*time.Millisecond {
		t.Fatalf("unexpected budget: %v", got)
	}
}
