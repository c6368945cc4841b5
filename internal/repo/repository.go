package repo

import (
	"context"
	"errors"
	"time"

	"farewatch/internal/domain"
)

// Sentinel errors shared by all adapters. ErrStoreUnavailable means the
// backing store could not be reached; callers skip the current pass and
// try again later instead of failing hard.
var (
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Ports (interfaces) — swap in any DB adapter later.

// AlertStore is the scheduler's and the CRUD layer's view of alert
// persistence. LoadDueAlerts is a pure query: it never mutates state,
// returns each due alert at most once, and keeps a stable order within
// one call.
type AlertStore interface {
	Create(ctx context.Context, a *domain.Alert) error
	Load(ctx context.Context, id domain.AlertID) (*domain.Alert, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Alert, error)
	LoadDueAlerts(ctx context.Context, now time.Time) ([]*domain.Alert, error)

	// UpdateAfterCheck advances the price/timestamp fields after a
	// successful fetch. lowestPrice is the already-computed minimum.
	UpdateAfterCheck(ctx context.Context, id domain.AlertID, price float64, checkedAt time.Time, lowestPrice float64) error

	// TouchChecked advances last_checked_at without recording a price.
	// Used when a check failed in a way retrying next tick cannot fix,
	// so the alert waits out its normal interval instead of being
	// re-selected every tick.
	TouchChecked(ctx context.Context, id domain.AlertID, checkedAt time.Time) error

	// MarkNotified records a confirmed delivery. Called only after the
	// notification channel reported success.
	MarkNotified(ctx context.Context, id domain.AlertID, priceAtNotification float64, notifiedAt time.Time) error

	UpdateStatus(ctx context.Context, id domain.AlertID, status domain.AlertStatus) error
	Delete(ctx context.Context, id domain.AlertID) error
}

// HistoryStore is the append-only price history log.
type HistoryStore interface {
	Append(ctx context.Context, obs *domain.PriceObservation) error
	ListByAlert(ctx context.Context, id domain.AlertID, limit int) ([]*domain.PriceObservation, error)
}
