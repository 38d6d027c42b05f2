package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps the trail in process memory. It backs tests and
// single-node deployments.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *InMemoryStore) ListByEvent(_ context.Context, eventID int64) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, ev := range s.events {
		if ev.EventID != nil && *ev.EventID == eventID {
			out = append(out, ev)
		}
	}
	return out, nil
}
