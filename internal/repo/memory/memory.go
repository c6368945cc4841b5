package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"farewatch/internal/domain"
	"farewatch/internal/repo"
)

var _ repo.AlertStore = (*Store)(nil)
var _ repo.HistoryStore = (*Store)(nil)

// Store keeps alerts and price history in process memory. Used by tests
// and by DB-less local runs.
type Store struct {
	mu      sync.RWMutex
	alerts  map[domain.AlertID]*domain.Alert
	history []*domain.PriceObservation
	nextObs int64
}

func New() *Store {
	return &Store{
		alerts:  make(map[domain.AlertID]*domain.Alert),
		history: make([]*domain.PriceObservation, 0, 128),
	}
}

func (m *Store) Create(ctx context.Context, a *domain.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.ID == "" {
		a.ID = domain.AlertID(uuid.NewString())
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = domain.StatusActive
	}
	cp := *a
	m.alerts[a.ID] = &cp
	return nil
}

func (m *Store) Load(ctx context.Context, id domain.AlertID) (*domain.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.alerts[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *Store) ListByUser(ctx context.Context, userID string) ([]*domain.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Alert
	for _, a := range m.alerts {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Store) LoadDueAlerts(ctx context.Context, now time.Time) ([]*domain.Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Alert
	for _, a := range m.alerts {
		if a.Due(now) {
			cp := *a
			out = append(out, &cp)
		}
	}
	// stable order within a tick
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Store) UpdateAfterCheck(ctx context.Context, id domain.AlertID, price float64, checkedAt time.Time, lowestPrice float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok {
		return repo.ErrNotFound
	}
	p, low := price, lowestPrice
	ca := checkedAt
	a.LastPrice = &p
	a.LowestPriceFound = &low
	a.LastCheckedAt = &ca
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Store) TouchChecked(ctx context.Context, id domain.AlertID, checkedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok {
		return repo.ErrNotFound
	}
	ca := checkedAt
	a.LastCheckedAt = &ca
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Store) MarkNotified(ctx context.Context, id domain.AlertID, priceAtNotification float64, notifiedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok {
		return repo.ErrNotFound
	}
	p := priceAtNotification
	na := notifiedAt
	a.LastNotifiedPrice = &p
	a.LastNotifiedAt = &na
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Store) UpdateStatus(ctx context.Context, id domain.AlertID, status domain.AlertStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok {
		return repo.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *Store) Delete(ctx context.Context, id domain.AlertID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.alerts[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.alerts, id)
	// cascade: drop the alert's history rows
	kept := m.history[:0]
	for _, obs := range m.history {
		if obs.AlertID != id {
			kept = append(kept, obs)
		}
	}
	m.history = kept
	return nil
}

func (m *Store) Append(ctx context.Context, obs *domain.PriceObservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextObs++
	obs.ID = m.nextObs
	cp := *obs
	m.history = append(m.history, &cp)
	return nil
}

func (m *Store) ListByAlert(ctx context.Context, id domain.AlertID, limit int) ([]*domain.PriceObservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.PriceObservation
	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].AlertID != id {
			continue
		}
		cp := *m.history[i]
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
