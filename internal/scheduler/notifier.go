package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"farewatch/internal/domain"
	"farewatch/internal/metrics"
	"farewatch/internal/notify"
	"farewatch/internal/repo"
)

// NotificationGate decides whether a check outcome earns a message and
// delivers it. The rule: the price must be at or below target, and
// strictly below the price at the previous notification — a flat low
// price notifies once, a further drop notifies again.
type NotificationGate struct {
	Logger *zap.Logger
	Alerts repo.AlertStore
	Sender notify.Notifier
}

func NewNotificationGate(logger *zap.Logger, alerts repo.AlertStore, sender notify.Notifier) *NotificationGate {
	return &NotificationGate{Logger: logger, Alerts: alerts, Sender: sender}
}

// NotifyIfDue returns true when a notification was delivered. The alert
// is marked notified only after delivery succeeds; a failed send leaves
// the alert untouched so the next qualifying price re-attempts.
func (g *NotificationGate) NotifyIfDue(ctx context.Context, outcome *domain.CheckOutcome, alert *domain.Alert) bool {
	if outcome == nil || outcome.Err != nil || !outcome.CrossedThreshold {
		return false
	}
	if alert.LastNotifiedAt != nil && alert.LastNotifiedPrice != nil &&
		outcome.CurrentPrice >= *alert.LastNotifiedPrice {
		// already told the user at this price or lower
		return false
	}

	bookingURL := ""
	if outcome.Quote != nil {
		bookingURL = outcome.Quote.BookingURL
	}
	text := notify.PriceDropMessage(alert, outcome.PreviousPrice, outcome.CurrentPrice, bookingURL)

	if err := g.Sender.Send(ctx, alert.ChatID, text); err != nil {
		metrics.NotificationFailuresTotal.Inc()
		g.Logger.Warn("notify_delivery_failed",
			zap.String("alert_id", string(alert.ID)),
			zap.Float64("price", outcome.CurrentPrice),
			zap.Error(err),
		)
		return false
	}

	metrics.NotificationsSentTotal.Inc()
	if err := g.Alerts.MarkNotified(ctx, alert.ID, outcome.CurrentPrice, time.Now().UTC()); err != nil {
		// delivered but not recorded; the next check may re-notify once
		g.Logger.Warn("notify_mark_error", zap.String("alert_id", string(alert.ID)), zap.Error(err))
	}
	g.Logger.Info("notify_sent",
		zap.String("alert_id", string(alert.ID)),
		zap.Float64("price", outcome.CurrentPrice),
		zap.Float64("target", alert.TargetPrice),
	)
	return true
}
