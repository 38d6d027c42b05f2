package match

import (
	"context"
	"sort"
	"sync"
	"time"

	"fedevents/pkg/platform/sentinel"
)

// InMemoryStore keeps the schedule in a mutex-guarded map. It doubles as
// the test fake.
type InMemoryStore struct {
	mu      sync.RWMutex
	matches map[int64]*Match
	nextID  int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{matches: make(map[int64]*Match)}
}

func cloneMatch(m *Match) *Match {
	dup := *m
	return &dup
}

func (s *InMemoryStore) Save(_ context.Context, m *Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == 0 {
		s.nextID++
		m.ID = s.nextID
		m.CreatedAt = time.Now().UTC()
	} else if m.ID > s.nextID {
		s.nextID = m.ID
	}
	m.UpdatedAt = time.Now().UTC()
	s.matches[m.ID] = cloneMatch(m)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneMatch(m), nil
}

// ListByEvent returns the event's schedule ordered by scheduled time, with
// unscheduled matches last in ID order.
func (s *InMemoryStore) ListByEvent(_ context.Context, eventID int64) ([]*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Match
	for _, m := range s.matches {
		if m.EventID == eventID {
			out = append(out, cloneMatch(m))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.ScheduledAt == nil && b.ScheduledAt == nil:
			return a.ID < b.ID
		case a.ScheduledAt == nil:
			return false
		case b.ScheduledAt == nil:
			return true
		case a.ScheduledAt.Equal(*b.ScheduledAt):
			return a.ID < b.ID
		default:
			return a.ScheduledAt.Before(*b.ScheduledAt)
		}
	})
	return out, nil
}
