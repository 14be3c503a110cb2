package auth

import (
	"sync"
	"time"
)

// stateStore tracks issued OAuth state values. Each value is accepted once and
// only before its deadline.
type stateStore struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[string]time.Time
}

func newStateStore(now func() time.Time) *stateStore {
	return &stateStore{now: now, items: map[string]time.Time{}}
}

func (s *stateStore) put(state string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.sweepLocked(now)
	s.items[state] = now.Add(ttl)
}

func (s *stateStore) consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	deadline, ok := s.items[state]
	delete(s.items, state)
	return ok && !s.now().After(deadline)
}

func (s *stateStore) sweepLocked(now time.Time) {
	for k, deadline := range s.items {
		if now.After(deadline) {
			delete(s.items, k)
		}
	}
}
