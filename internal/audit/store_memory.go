package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps audit events in memory for tests and development.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event
}

// NewInMemoryStore constructs an empty in-memory audit store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ClientID] = append(s.events[event.ClientID], event)
	return nil
}

func (s *InMemoryStore) ListByClient(_ context.Context, clientID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[clientID]...), nil
}
