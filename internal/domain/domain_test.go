package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAlert_Due(t *testing.T) {
	now := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	hourAgo := now.Add(-1 * time.Hour)
	tenMinAgo := now.Add(-10 * time.Minute)

	cases := []struct {
		name  string
		alert Alert
		want  bool
	}{
		{"never checked active", Alert{Status: StatusActive, CheckInterval: time.Hour}, true},
		{"interval elapsed", Alert{Status: StatusActive, CheckInterval: time.Hour, LastCheckedAt: &hourAgo}, true},
		{"interval not elapsed", Alert{Status: StatusActive, CheckInterval: time.Hour, LastCheckedAt: &tenMinAgo}, false},
		{"paused never checked", Alert{Status: StatusPaused, CheckInterval: time.Hour}, false},
		{"cancelled elapsed", Alert{Status: StatusCancelled, CheckInterval: time.Hour, LastCheckedAt: &hourAgo}, false},
		{"triggered elapsed", Alert{Status: StatusTriggered, CheckInterval: time.Hour, LastCheckedAt: &hourAgo}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.alert.Due(now); got != tc.want {
				t.Fatalf("Due() = %v, want %v (alert=%+v)", got, tc.want, tc.alert)
			}
		})
	}
}

func TestAlert_DueExactlyAtBoundary(t *testing.T) {
	now := time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)
	checked := now.Add(-time.Hour)
	a := Alert{Status: StatusActive, CheckInterval: time.Hour, LastCheckedAt: &checked}
	if !a.Due(now) {
		t.Fatal("alert checked exactly one interval ago should be due")
	}
}

func TestAlert_JSONRoundTrip(t *testing.T) {
	price := 480.0
	checked := time.Date(2025, 8, 18, 11, 0, 0, 0, time.UTC)
	want := Alert{
		ID:            AlertID("A1"),
		UserID:        "u-1",
		ChatID:        "12345",
		Origin:        "OSL",
		Destination:   "JFK",
		TargetPrice:   500,
		Currency:      "USD",
		CheckInterval: time.Hour,
		LastPrice:     &price,
		LastCheckedAt: &checked,
		Status:        StatusActive,
	}
	b, err := json.Marshal(want)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Alert
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != want.ID || got.Origin != want.Origin || got.Status != want.Status {
		t.Fatalf("mismatch after round-trip:\nwant=%+v\ngot =%+v", want, got)
	}
	if got.LastPrice == nil || *got.LastPrice != price {
		t.Fatalf("last price lost in round-trip: %+v", got.LastPrice)
	}
}
