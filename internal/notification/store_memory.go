package notification

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"fedevents/pkg/platform/sentinel"
)

// InMemoryStore keeps the ledger in a mutex-guarded slice per user.
type InMemoryStore struct {
	mu     sync.RWMutex
	byID   map[int64]*Notification
	nextID int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[int64]*Notification)}
}

func (s *InMemoryStore) Append(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	n.ID = s.nextID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	dup := *n
	s.byID[n.ID] = &dup
	return nil
}

func matches(n *Notification, q Query) bool {
	if n.UserID != q.UserID {
		return false
	}
	switch q.Filter {
	case FilterUnread:
		if n.Read {
			return false
		}
	case FilterRead:
		if !n.Read {
			return false
		}
	}
	if needle := strings.ToLower(strings.TrimSpace(q.Search)); needle != "" {
		if !strings.Contains(strings.ToLower(n.Title), needle) &&
			!strings.Contains(strings.ToLower(n.Message), needle) {
			return false
		}
	}
	return true
}

// List returns matching entries, newest first.
func (s *InMemoryStore) List(_ context.Context, q Query) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Notification
	for _, n := range s.byID {
		if matches(n, q) {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) CountUnread(_ context.Context, userID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.byID {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) SetRead(_ context.Context, id, userID int64, read bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byID[id]
	if !ok || n.UserID != userID {
		return sentinel.ErrNotFound
	}
	n.Read = read
	if read {
		n.ReadAt = &at
	} else {
		n.ReadAt = nil
	}
	return nil
}

// SetReadAll flips the read flag on every entry of one user and returns the
// number affected.
func (s *InMemoryStore) SetReadAll(_ context.Context, userID int64, read bool, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	affected := 0
	for _, n := range s.byID {
		if n.UserID != userID || n.Read == read {
			continue
		}
		n.Read = read
		if read {
			stamp := at
			n.ReadAt = &stamp
		} else {
			n.ReadAt = nil
		}
		affected++
	}
	return affected, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byID[id]
	if !ok || n.UserID != userID {
		return sentinel.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

// Clear hard-deletes every entry of one user. Irreversible.
func (s *InMemoryStore) Clear(_ context.Context, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for id, n := range s.byID {
		if n.UserID == userID {
			delete(s.byID, id)
			deleted++
		}
	}
	return deleted, nil
}
