//go:build integration

package postgres

// go test -tags=integration ./internal/repo/postgres -count=1

import (
	"context"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"farewatch/internal/domain"
	"farewatch/internal/repo"
)

func TestAlertLifecycle(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL empty")
	}
	ctx := context.Background()
	store, err := New(ctx, dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	a := &domain.Alert{
		UserID:        "itest",
		ChatID:        "1",
		Origin:        "OSL",
		Destination:   "JFK",
		TargetPrice:   500,
		Currency:      "USD",
		CheckInterval: time.Hour,
	}
	if err := store.Create(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	defer store.Delete(ctx, a.ID)

	// freshly created alert is due
	due, err := store.LoadDueAlerts(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("due: %v", err)
	}
	found := false
	for _, d := range due {
		if d.ID == a.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("never-checked alert missing from due set")
	}

	now := time.Now().UTC()
	if err := store.UpdateAfterCheck(ctx, a.ID, 480, now, 480); err != nil {
		t.Fatalf("update after check: %v", err)
	}
	got, err := store.Load(ctx, a.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.LastPrice == nil || *got.LastPrice != 480 || got.LastCheckedAt == nil {
		t.Fatalf("check fields not persisted: %+v", got)
	}

	if err := store.MarkNotified(ctx, a.ID, 480, now); err != nil {
		t.Fatalf("mark notified: %v", err)
	}

	touched := now.Add(time.Minute)
	if err := store.TouchChecked(ctx, a.ID, touched); err != nil {
		t.Fatalf("touch checked: %v", err)
	}
	got, err = store.Load(ctx, a.ID)
	if err != nil {
		t.Fatalf("load after touch: %v", err)
	}
	if got.LastCheckedAt == nil || !got.LastCheckedAt.Equal(touched) {
		t.Fatalf("touch did not advance last_checked_at: %+v", got.LastCheckedAt)
	}
	if got.LastPrice == nil || *got.LastPrice != 480 {
		t.Fatalf("touch must not change price fields: %+v", got.LastPrice)
	}

	obs := &domain.PriceObservation{AlertID: a.ID, Price: 480, Currency: "USD", ObservedAt: now}
	if err := store.Append(ctx, obs); err != nil {
		t.Fatalf("append: %v", err)
	}
	if obs.ID == 0 {
		t.Fatal("observation id not returned")
	}
	hist, err := store.ListByAlert(ctx, a.ID, 10)
	if err != nil || len(hist) == 0 {
		t.Fatalf("history: %v (%d rows)", err, len(hist))
	}

	if err := store.UpdateStatus(ctx, a.ID, domain.StatusPaused); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := store.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, a.ID); err != repo.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
