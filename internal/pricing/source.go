package pricing

import (
	"context"
	"fmt"
	"time"

	"farewatch/internal/domain"
)

// Route identifies one fare search. Dates are optional; a nil departure
// means "whenever" and the client substitutes tomorrow, matching the
// provider's behavior for date-less searches.
type Route struct {
	Origin        string
	Destination   string
	DepartureDate *time.Time
	ReturnDate    *time.Time
	Currency      string
}

func (r Route) String() string {
	return r.Origin + "-" + r.Destination
}

// Source is implemented by anything that can quote a route: the real
// provider client, the retry decorator, the cache layer, test fakes.
type Source interface {
	FetchPrice(ctx context.Context, route Route) (*domain.PriceQuote, error)
}

// FetchKind classifies fetch failures. Transient kinds are worth
// retrying within the same check; permanent ones are not.
type FetchKind string

const (
	FetchTimeout     FetchKind = "timeout"
	FetchRateLimited FetchKind = "rate_limited"
	FetchNoResult    FetchKind = "no_result"
	FetchTransport   FetchKind = "transport"
	FetchPermanent   FetchKind = "permanent"
)

type FetchError struct {
	Kind FetchKind
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s", e.Kind)
	}
	return fmt.Sprintf("fetch %s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Transient reports whether a retry inside the same check could help.
func (e *FetchError) Transient() bool {
	return e.Kind != FetchPermanent
}

func fetchErr(kind FetchKind, err error) *FetchError {
	return &FetchError{Kind: kind, Err: err}
}
