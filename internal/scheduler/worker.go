package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"farewatch/internal/domain"
	"farewatch/internal/metrics"
	"farewatch/internal/pricing"
	"farewatch/internal/repo"
)

// Worker performs one alert's price check: fetch, record history,
// compare, update the alert row. Retry/backoff lives inside the Source
// chain; from here a fetch either succeeds or has already given up.
type Worker struct {
	Logger       *zap.Logger
	Alerts       repo.AlertStore
	History      repo.HistoryStore
	Source       pricing.Source
	FetchTimeout time.Duration
}

func NewWorker(logger *zap.Logger, alerts repo.AlertStore, history repo.HistoryStore, source pricing.Source, fetchTimeout time.Duration) *Worker {
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	return &Worker{
		Logger:       logger,
		Alerts:       alerts,
		History:      history,
		Source:       source,
		FetchTimeout: fetchTimeout,
	}
}

// CheckAlert checks a single alert by ID and returns the outcome plus
// the alert as it was loaded (pre-update), which the notification gate
// needs for its last-notified comparison. A nil outcome means the alert
// was skipped: gone, or no longer active by the time the worker ran.
//
// On transient fetch failure last_checked_at is left alone on purpose —
// the alert stays due and is re-selected next tick instead of being
// silently pushed back a full interval. Permanent failures (bad route,
// unsupported currency) do advance it: retrying those every tick would
// hammer the provider with requests that can never succeed.
func (w *Worker) CheckAlert(ctx context.Context, id domain.AlertID) (*domain.CheckOutcome, *domain.Alert) {
	alert, err := w.Alerts.Load(ctx, id)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			w.Logger.Warn("check_load_error", zap.String("alert_id", string(id)), zap.Error(err))
		}
		metrics.ChecksTotal.WithLabelValues("skipped").Inc()
		return nil, nil
	}
	if !alert.Checkable() {
		metrics.ChecksTotal.WithLabelValues("skipped").Inc()
		return nil, nil
	}

	route := pricing.Route{
		Origin:        alert.Origin,
		Destination:   alert.Destination,
		DepartureDate: alert.DepartureDate,
		ReturnDate:    alert.ReturnDate,
		Currency:      alert.Currency,
	}

	fctx, cancel := context.WithTimeout(ctx, w.FetchTimeout)
	defer cancel()

	start := time.Now()
	quote, err := w.Source.FetchPrice(fctx, route)
	metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		result := "fetch_transient"
		var fe *pricing.FetchError
		permanent := errors.As(err, &fe) && !fe.Transient()
		if permanent {
			result = "fetch_permanent"
		}
		metrics.ChecksTotal.WithLabelValues(result).Inc()
		w.Logger.Warn("check_fetch_failed",
			zap.String("alert_id", string(id)),
			zap.String("route", route.String()),
			zap.String("result", result),
			zap.Error(err),
		)
		if permanent {
			if terr := w.Alerts.TouchChecked(ctx, id, time.Now().UTC()); terr != nil {
				w.Logger.Warn("check_touch_error", zap.String("alert_id", string(id)), zap.Error(terr))
			}
		}
		return &domain.CheckOutcome{AlertID: id, PreviousPrice: alert.LastPrice, Err: err}, alert
	}

	checkedAt := time.Now().UTC()
	obs := &domain.PriceObservation{
		AlertID:    alert.ID,
		Price:      quote.Price,
		Currency:   quote.Currency,
		ObservedAt: checkedAt,
		RawPayload: quote.RawPayload,
	}
	if err := w.History.Append(ctx, obs); err != nil {
		// history is best effort; the alert row is the system of record
		w.Logger.Warn("check_history_append_error", zap.String("alert_id", string(id)), zap.Error(err))
	}

	previous := alert.LastPrice
	dropped := previous != nil && quote.Price < *previous
	crossed := quote.Price <= alert.TargetPrice

	lowest := quote.Price
	if alert.LowestPriceFound != nil && *alert.LowestPriceFound < lowest {
		lowest = *alert.LowestPriceFound
	}

	if err := w.Alerts.UpdateAfterCheck(ctx, alert.ID, quote.Price, checkedAt, lowest); err != nil {
		metrics.ChecksTotal.WithLabelValues("store_error").Inc()
		w.Logger.Warn("check_update_error", zap.String("alert_id", string(id)), zap.Error(err))
		return &domain.CheckOutcome{AlertID: id, PreviousPrice: previous, CurrentPrice: quote.Price, Err: err}, alert
	}

	metrics.ChecksTotal.WithLabelValues("ok").Inc()
	w.Logger.Debug("check_done",
		zap.String("alert_id", string(id)),
		zap.String("route", route.String()),
		zap.Float64("price", quote.Price),
		zap.Bool("dropped", dropped),
		zap.Bool("crossed_threshold", crossed),
	)

	return &domain.CheckOutcome{
		AlertID:          alert.ID,
		PreviousPrice:    previous,
		CurrentPrice:     quote.Price,
		Dropped:          dropped,
		CrossedThreshold: crossed,
		Quote:            quote,
	}, alert
}
