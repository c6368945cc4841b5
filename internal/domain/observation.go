package domain

import "time"

// PriceObservation is one observed price for an alert's route. Rows are
// append-only; they are removed only when the owning alert is deleted.
type PriceObservation struct {
	ID         int64     `json:"id"`
	AlertID    AlertID   `json:"alert_id"`
	Price      float64   `json:"price"`
	Currency   string    `json:"currency"`
	ObservedAt time.Time `json:"observed_at"`
	RawPayload []byte    `json:"raw_payload,omitempty"`
}

// PriceQuote is what the price source returns for a route.
type PriceQuote struct {
	Price      float64 `json:"price"`
	Currency   string  `json:"currency"`
	BookingURL string  `json:"booking_url,omitempty"`
	RawPayload []byte  `json:"-"`
}

// CheckOutcome is the transient result of checking one alert. It lives
// for one scheduler tick and is never persisted.
type CheckOutcome struct {
	AlertID          AlertID
	PreviousPrice    *float64
	CurrentPrice     float64
	Dropped          bool
	CrossedThreshold bool
	Quote            *PriceQuote
	Err              error
}
