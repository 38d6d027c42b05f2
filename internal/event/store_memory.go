package event

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"fedevents/pkg/platform/sentinel"
)

// InMemoryStore keeps events in a mutex-guarded map. It doubles as the test
// fake for every service that consumes an event store.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[int64]*Event
	nextID int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[int64]*Event)}
}

func clone(ev *Event) *Event {
	dup := *ev
	dup.Categories = append([]Category(nil), ev.Categories...)
	dup.Scenarios = append([]Scenario(nil), ev.Scenarios...)
	dup.Invitations = append([]Invitation(nil), ev.Invitations...)
	return &dup
}

func (s *InMemoryStore) Save(_ context.Context, ev *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.ID == 0 {
		s.nextID++
		ev.ID = s.nextID
		ev.CreatedAt = time.Now().UTC()
	} else if ev.ID > s.nextID {
		s.nextID = ev.ID
	}
	ev.UpdatedAt = time.Now().UTC()
	s.events[ev.ID] = clone(ev)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(ev), nil
}

// List returns non-deleted events, optionally filtered by a title substring,
// ordered by ID.
func (s *InMemoryStore) List(_ context.Context, search string) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(search))
	var out []*Event
	for _, ev := range s.events {
		if ev.Deleted {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(ev.Title), needle) {
			continue
		}
		out = append(out, clone(ev))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.events, id)
	return nil
}
