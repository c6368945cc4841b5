package scheduler

import (
	"sync"

	"farewatch/internal/domain"
)

// inFlightSet tracks alerts currently being checked. Membership from
// dispatch to worker completion is what serializes checks per alert:
// at most one worker may hold an ID at any instant.
type inFlightSet struct {
	mu sync.Mutex
	m  map[domain.AlertID]struct{}
}

func newInFlightSet() *inFlightSet {
	return &inFlightSet{m: make(map[domain.AlertID]struct{})}
}

// TryAdd claims the ID. Returns false if a check for it is already
// running, in which case the caller must not dispatch.
func (s *inFlightSet) TryAdd(id domain.AlertID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; ok {
		return false
	}
	s.m[id] = struct{}{}
	return true
}

func (s *inFlightSet) Remove(id domain.AlertID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
}

func (s *inFlightSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
