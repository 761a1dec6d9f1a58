package agents

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("agents: not found")
	ErrInvalidState = errors.New("agents: invalid state")
	ErrInvalidInput = errors.New("agents: invalid input")
)

// Directory owns all agent records. It is the single source of truth for
// "who can take a call right now".
//
// All mutations happen under one lock; ReserveForCall is the check-and-set
// that prevents double-booking an agent. Callers get copies, never pointers
// into the store.
type Directory struct {
	mu    sync.Mutex
	byID  map[string]*Agent
	order []string // insertion order; keeps listings stable

	clock func() time.Time
}

func NewDirectory() *Directory {
	return &Directory{
		byID:  make(map[string]*Agent),
		clock: time.Now,
	}
}

// SetClock is for deterministic tests.
func (d *Directory) SetClock(clock func() time.Time) { d.clock = clock }

type CreateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// Create registers a new agent. New agents start offline with zeroed
// statistics regardless of what the request asks for.
func (d *Directory) Create(req CreateRequest) (Agent, error) {
	if req.Name == "" || req.Username == "" || req.Password == "" {
		return Agent{}, ErrInvalidInput
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, a := range d.byID {
		if a.Username == req.Username {
			return Agent{}, ErrInvalidInput
		}
	}

	now := d.clock().UTC()
	role := req.Role
	if role == "" {
		role = "agent"
	}
	a := &Agent{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Email:          req.Email,
		Username:       req.Username,
		Password:       req.Password,
		Role:           role,
		Status:         StatusOffline,
		GroupIDs:       []string{},
		CreatedAt:      now,
		LastActivityAt: now,
	}
	d.byID[a.ID] = a
	d.order = append(d.order, a.ID)
	return a.clone(), nil
}

func (d *Directory) Get(id string) (Agent, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.byID[id]
	if !ok {
		return Agent{}, false
	}
	return a.clone(), true
}

// Authenticate matches username and secret. Plain comparison; credential
// hardening is explicitly out of scope.
func (d *Directory) Authenticate(username, password string) (Agent, bool) {
	if username == "" || password == "" {
		return Agent{}, false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range d.order {
		a := d.byID[id]
		if a.Username == username && a.Password == password {
			return a.clone(), true
		}
	}
	return Agent{}, false
}

func (d *Directory) List() []Agent {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Agent, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.byID[id].clone())
	}
	return out
}

// ListByGroup returns members of a group in directory insertion order.
// That order is the routing tie-break, so it must be stable.
func (d *Directory) ListByGroup(groupID string) []Agent {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Agent, 0)
	for _, id := range d.order {
		a := d.byID[id]
		if a.memberOf(groupID) {
			out = append(out, a.clone())
		}
	}
	return out
}

func (d *Directory) ListAvailableByGroup(groupID string) []Agent {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Agent, 0)
	for _, id := range d.order {
		a := d.byID[id]
		if a.memberOf(groupID) && a.Status == StatusAvailable {
			out = append(out, a.clone())
		}
	}
	return out
}

type UpdateRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// Update merges non-empty fields and stamps last activity.
func (d *Directory) Update(id string, req UpdateRequest) (Agent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.byID[id]
	if !ok {
		return Agent{}, ErrNotFound
	}
	if req.Name != "" {
		a.Name = req.Name
	}
	if req.Email != "" {
		a.Email = req.Email
	}
	if req.Password != "" {
		a.Password = req.Password
	}
	a.LastActivityAt = d.clock().UTC()
	return a.clone(), nil
}

// UpdateStatus is the console-driven status change (available/busy/offline).
// In-call transitions are owned by ReserveForCall/Release; requesting them
// here, or changing status while in a call, is an invalid-state error.
func (d *Directory) UpdateStatus(id string, status Status) (Agent, error) {
	if !IsValidStatus(status) {
		return Agent{}, ErrInvalidInput
	}
	if status == StatusInCall {
		return Agent{}, ErrInvalidState
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.byID[id]
	if !ok {
		return Agent{}, ErrNotFound
	}
	if a.Status == StatusInCall {
		return Agent{}, ErrInvalidState
	}
	a.Status = status
	a.LastActivityAt = d.clock().UTC()
	return a.clone(), nil
}

// BindTelephonyIdentity attaches the external calling identity once the
// agent's telephony session reports in.
func (d *Directory) BindTelephonyIdentity(id, identity string) error {
	if identity == "" {
		return ErrInvalidInput
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.byID[id]
	if !ok {
		return ErrNotFound
	}
	a.TelephonyIdentity = identity
	a.LastActivityAt = d.clock().UTC()
	return nil
}

func (d *Directory) Delete(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.byID[id]; !ok {
		return false
	}
	delete(d.byID, id)
	for i, oid := range d.order {
		if oid == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return true
}

// ReserveForCall atomically binds an available agent to a call. This is the
// sole gate against double-booking: check and set happen under one lock.
func (d *Directory) ReserveForCall(agentID, callID string) error {
	if callID == "" {
		return ErrInvalidInput
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.byID[agentID]
	if !ok {
		return ErrNotFound
	}
	if a.Status != StatusAvailable {
		return ErrInvalidState
	}
	a.Status = StatusInCall
	a.CurrentCallID = callID
	a.LastActivityAt = d.clock().UTC()
	return nil
}

// Release returns an agent to available and folds the finished call into
// its statistics. Releasing an agent that is not in a call is a no-op
// success: a failed external hangup must never leave an agent unavailable
// forever, so the recovery path has to be idempotent.
func (d *Directory) Release(agentID string, durationSeconds int) (Agent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.byID[agentID]
	if !ok {
		return Agent{}, ErrNotFound
	}
	if a.Status != StatusInCall {
		return a.clone(), nil
	}

	now := d.clock().UTC()
	a.Status = StatusAvailable
	a.CurrentCallID = ""
	a.LastActivityAt = now
	foldCall(&a.Statistics, durationSeconds, now)
	return a.clone(), nil
}

func foldCall(s *Statistics, durationSeconds int, now time.Time) {
	if durationSeconds < 0 {
		durationSeconds = 0
	}
	s.TotalDurationSeconds += durationSeconds
	s.TotalCalls++
	s.AverageDurationSeconds = s.TotalDurationSeconds / s.TotalCalls

	last := s.LastCallAt
	if sameDay(last, now) {
		s.CallsToday++
	} else {
		s.CallsToday = 1
	}
	if sameISOWeek(last, now) {
		s.CallsThisWeek++
	} else {
		s.CallsThisWeek = 1
	}
	if sameMonth(last, now) {
		s.CallsThisMonth++
	} else {
		s.CallsThisMonth = 1
	}
	s.LastCallAt = now
}

func sameDay(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sameISOWeek(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	ay, aw := a.ISOWeek()
	by, bw := b.ISOWeek()
	return ay == by && aw == bw
}

func sameMonth(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return ay == by && am == bm
}

func (a *Agent) memberOf(groupID string) bool {
	for _, g := range a.GroupIDs {
		if g == groupID {
			return true
		}
	}
	return false
}

// AttachGroup / DetachGroup maintain the agent side of group membership.
// Only the group directory calls these.

func (d *Directory) AttachGroup(agentID, groupID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.byID[agentID]
	if !ok {
		return ErrNotFound
	}
	if a.memberOf(groupID) {
		return nil
	}
	a.GroupIDs = append(a.GroupIDs, groupID)
	return nil
}

func (d *Directory) DetachGroup(agentID, groupID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.byID[agentID]
	if !ok {
		return ErrNotFound
	}
	for i, g := range a.GroupIDs {
		if g == groupID {
			a.GroupIDs = append(a.GroupIDs[:i], a.GroupIDs[i+1:]...)
			return nil
		}
	}
	return nil
}
