package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"farewatch/internal/metrics"
	"farewatch/internal/repo"
)

// Scheduler drives the periodic price-check pass: select due alerts,
// fan out workers under a concurrency cap, drain before the next tick.
// The in-flight set guarantees one concurrent check per alert even if a
// slow worker outlives its tick.
type Scheduler struct {
	Logger      *zap.Logger
	Alerts      repo.AlertStore
	Worker      *Worker
	Gate        *NotificationGate
	Interval    time.Duration
	Concurrency int

	inflight *inFlightSet
}

func New(
	logger *zap.Logger,
	alerts repo.AlertStore,
	worker *Worker,
	gate *NotificationGate,
	interval time.Duration,
	concurrency int,
) *Scheduler {
	if concurrency < 1 {
		concurrency = 1
	}
	if interval < 0 {
		interval = 0
	}
	return &Scheduler{
		Logger:      logger,
		Alerts:      alerts,
		Worker:      worker,
		Gate:        gate,
		Interval:    interval,
		Concurrency: concurrency,
		inflight:    newInFlightSet(),
	}
}

// Run starts the loop. It does an immediate pass, then runs each tick.
// Stops when ctx is cancelled; in-flight workers are waited for, not
// abandoned, so no in-flight membership leaks.
func (s *Scheduler) Run(ctx context.Context) {
	if s.Interval == 0 {
		// disabled
		s.Logger.Info("scheduler_disabled")
		return
	}
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	// immediate pass
	s.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("scheduler_stopped")
			return
		case <-t.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce is one tick: Selecting, Dispatching, Draining.
func (s *Scheduler) runOnce(ctx context.Context) {
	metrics.TicksTotal.Inc()
	now := time.Now().UTC()

	due, err := s.Alerts.LoadDueAlerts(ctx, now)
	if err != nil {
		// skip the whole tick; the next one re-attempts naturally
		metrics.TicksSkippedTotal.Inc()
		s.Logger.Warn("tick_skipped", zap.Error(err))
		return
	}
	metrics.DueAlertsSelected.Observe(float64(len(due)))
	if len(due) == 0 {
		return
	}
	s.Logger.Info("tick_selected", zap.Int("due", len(due)))

	sem := make(chan struct{}, s.Concurrency)
	var wg sync.WaitGroup

	for _, alert := range due {
		select {
		case <-ctx.Done():
			// shutting down; drain what was already dispatched
			wg.Wait()
			return
		default:
		}

		id := alert.ID
		if !s.inflight.TryAdd(id) {
			// still being checked from a previous tick
			continue
		}

		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			defer s.inflight.Remove(id)

			metrics.InFlightChecks.Inc()
			defer metrics.InFlightChecks.Dec()

			outcome, fresh := s.Worker.CheckAlert(ctx, id)
			if outcome == nil || outcome.Err != nil {
				return
			}
			s.Gate.NotifyIfDue(ctx, outcome, fresh)
		}()
	}

	wg.Wait()
}
