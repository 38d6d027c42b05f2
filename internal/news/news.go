// Package news turns finished matches into published news items. The
// one-shot guarantee lives on the match; this package only renders and
// stores the item.
package news

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fedevents/internal/event"
	"fedevents/internal/match"
)

// Item is one published news entry.
type Item struct {
	ID          uuid.UUID
	EventID     int64
	MatchID     int64
	Title       string
	Body        string
	PublishedAt time.Time
}

// Store persists published items.
type Store interface {
	Append(ctx context.Context, item Item) error
	ListByEvent(ctx context.Context, eventID int64) ([]Item, error)
}

// InMemoryStore keeps published items in memory, newest first.
type InMemoryStore struct {
	mu    sync.RWMutex
	items []Item
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, item)
	return nil
}

func (s *InMemoryStore) ListByEvent(_ context.Context, eventID int64) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Item
	for _, item := range s.items {
		if item.EventID == eventID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	return out, nil
}

// Service renders match results into news items.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Publish writes one news item for a finished match.
func (s *Service) Publish(ctx context.Context, ev *event.Event, m *match.Match) error {
	r := m.Result
	title := fmt.Sprintf("%s: %s %d - %d %s",
		ev.Title, m.Local.Name, *r.LocalScore, *r.VisitorScore, m.Visitor.Name)

	body := fmt.Sprintf("En la fase %s del evento %s, %s y %s terminaron %d - %d.",
		m.Phase, ev.Title, m.Local.Name, m.Visitor.Name, *r.LocalScore, *r.VisitorScore)
	switch {
	case r.WinnerTeamID != nil && m.SlotOf(*r.WinnerTeamID) != nil:
		body += fmt.Sprintf(" Ganó %s por %s.", m.SlotOf(*r.WinnerTeamID).Name, r.Criterion)
	case r.HasScores() && *r.LocalScore == *r.VisitorScore:
		body += " El encuentro terminó en empate."
	}

	return s.store.Append(ctx, Item{
		ID:          uuid.New(),
		EventID:     ev.ID,
		MatchID:     m.ID,
		Title:       title,
		Body:        body,
		PublishedAt: s.now().UTC(),
	})
}

// ListByEvent exposes the published items of one event.
func (s *Service) ListByEvent(ctx context.Context, eventID int64) ([]Item, error) {
	return s.store.ListByEvent(ctx, eventID)
}
