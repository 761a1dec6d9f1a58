package calls

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("calls: not found")

// Store keeps every call record for the life of the process, append-only
// in spirit: records mutate in place but are never removed, so ended calls
// stay queryable for reporting.
type Store struct {
	mu    sync.Mutex
	byID  map[string]*Call
	order []string
}

func NewStore() *Store {
	return &Store{byID: make(map[string]*Call)}
}

// New inserts a fresh call record and returns a copy with its id set.
func (s *Store) New(c Call) Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	stored := c
	s.byID[c.ID] = &stored
	s.order = append(s.order, c.ID)
	return c
}

func (s *Store) Get(id string) (Call, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return Call{}, false
	}
	return *c, true
}

// Mutate applies fn to the stored record under the store lock. fn must be
// a short in-memory operation; no I/O.
func (s *Store) Mutate(id string, fn func(*Call)) (Call, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[id]
	if !ok {
		return Call{}, ErrNotFound
	}
	fn(c)
	return *c, nil
}

// FindByConnectionID correlates an asynchronous control-plane event back to
// a call without the caller knowing the internal id.
func (s *Store) FindByConnectionID(connectionID string) (Call, bool) {
	if connectionID == "" {
		return Call{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		c := s.byID[id]
		if c.ExternalConnectionID == connectionID {
			return *c, true
		}
	}
	return Call{}, false
}

// ListActive returns all calls that are not ended, oldest first.
func (s *Store) ListActive() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, 0)
	for _, id := range s.order {
		c := s.byID[id]
		if c.Status.Live() {
			out = append(out, *c)
		}
	}
	return out
}

func (s *Store) ListByAgent(agentID string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, 0)
	for _, id := range s.order {
		c := s.byID[id]
		if c.AssignedAgentID == agentID {
			out = append(out, *c)
		}
	}
	return out
}

func (s *Store) ListByGroup(groupID string) []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, 0)
	for _, id := range s.order {
		c := s.byID[id]
		if c.GroupID == groupID {
			out = append(out, *c)
		}
	}
	return out
}

// List returns every call record, oldest first.
func (s *Store) List() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.byID[id])
	}
	return out
}
