package registration

import (
	"context"
	"sort"
	"sync"
	"time"

	"fedevents/pkg/platform/sentinel"
)

// InMemoryStore keeps registrations in a mutex-guarded map keyed by
// (event, institution). It doubles as the test fake.
type InMemoryStore struct {
	mu        sync.RWMutex
	records   map[[2]int64]*Registration
	nextID    int64
	nextDocID int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[[2]int64]*Registration)}
}

func key(eventID, institutionID int64) [2]int64 { return [2]int64{eventID, institutionID} }

func cloneRegistration(r *Registration) *Registration {
	dup := *r
	dup.StudentIDs = append([]int64(nil), r.StudentIDs...)
	dup.Documents = append([]Document(nil), r.Documents...)
	return &dup
}

// Save persists the registration, assigning record and document IDs on
// first sight.
func (s *InMemoryStore) Save(_ context.Context, r *Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		s.nextID++
		r.ID = s.nextID
		r.CreatedAt = time.Now().UTC()
	}
	for i := range r.Documents {
		if r.Documents[i].ID == 0 {
			s.nextDocID++
			r.Documents[i].ID = s.nextDocID
		}
	}
	r.UpdatedAt = time.Now().UTC()
	s.records[key(r.EventID, r.InstitutionID)] = cloneRegistration(r)
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, eventID, institutionID int64) (*Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[key(eventID, institutionID)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneRegistration(r), nil
}

// ListByEvent returns every institution's registration for one event,
// ordered by institution.
func (s *InMemoryStore) ListByEvent(_ context.Context, eventID int64) ([]*Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Registration
	for k, r := range s.records {
		if k[0] == eventID {
			out = append(out, cloneRegistration(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InstitutionID < out[j].InstitutionID })
	return out, nil
}

// StudentInMemoryStore is the athlete directory backing enrollment and
// eligibility checks.
type StudentInMemoryStore struct {
	mu       sync.RWMutex
	students map[int64]*Student
	nextID   int64
}

func NewStudentInMemoryStore() *StudentInMemoryStore {
	return &StudentInMemoryStore{students: make(map[int64]*Student)}
}

func (s *StudentInMemoryStore) Save(_ context.Context, st *Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.ID == 0 {
		s.nextID++
		st.ID = s.nextID
		st.CreatedAt = time.Now().UTC()
	} else if st.ID > s.nextID {
		s.nextID = st.ID
	}
	dup := *st
	s.students[st.ID] = &dup
	return nil
}

func (s *StudentInMemoryStore) FindByID(_ context.Context, id int64) (*Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	dup := *st
	return &dup, nil
}

// ListByInstitution returns the institution's students ordered by ID,
// optionally including soft-deleted ones.
func (s *StudentInMemoryStore) ListByInstitution(_ context.Context, institutionID int64, includeDeleted bool) ([]*Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Student
	for _, st := range s.students {
		if st.InstitutionID != institutionID {
			continue
		}
		if st.Deleted && !includeDeleted {
			continue
		}
		dup := *st
		out = append(out, &dup)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SetDeleted flips the soft-delete flag.
func (s *StudentInMemoryStore) SetDeleted(_ context.Context, id int64, deleted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	st.Deleted = deleted
	return nil
}

// Delete removes the student record outright.
func (s *StudentInMemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.students, id)
	return nil
}

// Catalog is the fixed required-document catalog for events.
type Catalog struct {
	mu    sync.RWMutex
	types []DocumentType
}

func NewCatalog(types ...DocumentType) *Catalog {
	c := &Catalog{}
	for i := range types {
		if types[i].ID == 0 {
			types[i].ID = int64(i + 1)
		}
	}
	c.types = types
	return c
}

// List returns the catalog in declaration order.
func (c *Catalog) List(_ context.Context) ([]DocumentType, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]DocumentType(nil), c.types...), nil
}
