package domain

import "time"

type AlertID string

type AlertStatus string

const (
	StatusActive    AlertStatus = "active"
	StatusPaused    AlertStatus = "paused"
	StatusTriggered AlertStatus = "triggered"
	StatusExpired   AlertStatus = "expired"
	StatusCancelled AlertStatus = "cancelled"
)

// Alert is a user's standing request to be told when a route's price
// falls to or below a target.
type Alert struct {
	ID     AlertID `json:"id"`
	UserID string  `json:"user_id"`
	ChatID string  `json:"chat_id"`

	Origin      string `json:"origin"`
	Destination string `json:"destination"`

	DepartureDate *time.Time `json:"departure_date,omitempty"`
	ReturnDate    *time.Time `json:"return_date,omitempty"`
	OneWay        bool       `json:"one_way"`

	TargetPrice   float64       `json:"target_price"`
	Currency      string        `json:"currency"`
	CheckInterval time.Duration `json:"check_interval"`

	LastPrice         *float64    `json:"last_price"`
	LowestPriceFound  *float64    `json:"lowest_price_found"`
	LastNotifiedPrice *float64    `json:"last_notified_price"`
	LastCheckedAt     *time.Time  `json:"last_checked_at"`
	LastNotifiedAt    *time.Time  `json:"last_notified_at"`
	Status            AlertStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Checkable reports whether the scheduler may pick this alert up at all.
func (a *Alert) Checkable() bool {
	return a.Status == StatusActive
}

// Due reports whether the alert needs a price check at now. Alerts that
// were never checked are due immediately.
func (a *Alert) Due(now time.Time) bool {
	if !a.Checkable() {
		return false
	}
	if a.LastCheckedAt == nil {
		return true
	}
	return !now.Before(a.LastCheckedAt.Add(a.CheckInterval))
}
