package groups

import (
	"errors"
	"sync"
	"time"

	"callcenter-platform/internal/agents"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("groups: not found")
	ErrInvalidInput = errors.New("groups: invalid input")
	ErrDuplicate    = errors.New("groups: phone number already mapped")
)

// Directory owns group records, the phone-number-to-group index, and the
// overflow graph. It maintains both sides of the agent/group many-to-many
// through the agent directory.
type Directory struct {
	mu      sync.Mutex
	byID    map[string]*Group
	byPhone map[string]string // phone number -> group id
	order   []string

	agents *agents.Directory
	clock  func() time.Time
}

func NewDirectory(agentDir *agents.Directory) *Directory {
	return &Directory{
		byID:    make(map[string]*Group),
		byPhone: make(map[string]string),
		agents:  agentDir,
		clock:   time.Now,
	}
}

// SetClock is for deterministic tests.
func (d *Directory) SetClock(clock func() time.Time) { d.clock = clock }

type CreateRequest struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	PhoneNumber string `json:"phone_number"`
}

func (d *Directory) Create(req CreateRequest) (Group, error) {
	if req.Name == "" || req.PhoneNumber == "" {
		return Group{}, ErrInvalidInput
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, taken := d.byPhone[req.PhoneNumber]; taken {
		return Group{}, ErrDuplicate
	}

	now := d.clock().UTC()
	g := &Group{
		ID:               uuid.NewString(),
		Name:             req.Name,
		Location:         req.Location,
		PhoneNumber:      req.PhoneNumber,
		AgentIDs:         []string{},
		OverflowGroupIDs: []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	d.byID[g.ID] = g
	d.byPhone[g.PhoneNumber] = g.ID
	d.order = append(d.order, g.ID)
	return g.clone(), nil
}

func (d *Directory) Get(id string) (Group, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.byID[id]
	if !ok {
		return Group{}, false
	}
	return g.clone(), true
}

func (d *Directory) List() []Group {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Group, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.byID[id].clone())
	}
	return out
}

type UpdateRequest struct {
	Name        string `json:"name,omitempty"`
	Location    string `json:"location,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

func (d *Directory) Update(id string, req UpdateRequest) (Group, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.byID[id]
	if !ok {
		return Group{}, ErrNotFound
	}
	if req.PhoneNumber != "" && req.PhoneNumber != g.PhoneNumber {
		if _, taken := d.byPhone[req.PhoneNumber]; taken {
			return Group{}, ErrDuplicate
		}
		delete(d.byPhone, g.PhoneNumber)
		g.PhoneNumber = req.PhoneNumber
		d.byPhone[g.PhoneNumber] = g.ID
	}
	if req.Name != "" {
		g.Name = req.Name
	}
	if req.Location != "" {
		g.Location = req.Location
	}
	g.UpdatedAt = d.clock().UTC()
	return g.clone(), nil
}

// Delete removes a group and strips its id from every member agent.
func (d *Directory) Delete(id string) bool {
	d.mu.Lock()
	g, ok := d.byID[id]
	if !ok {
		d.mu.Unlock()
		return false
	}
	members := append([]string(nil), g.AgentIDs...)
	delete(d.byID, id)
	delete(d.byPhone, g.PhoneNumber)
	for i, oid := range d.order {
		if oid == id {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	// Other groups may reference this one as overflow; stale ids are
	// tolerated there and filtered at candidate time.
	d.mu.Unlock()

	for _, agentID := range members {
		_ = d.agents.DetachGroup(agentID, id)
	}
	return true
}

// FindByPhoneNumber is the lookup an inbound call uses to find its
// destination group.
func (d *Directory) FindByPhoneNumber(number string) (Group, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.byPhone[number]
	if !ok {
		return Group{}, false
	}
	return d.byID[id].clone(), true
}

// AddAgent adds an agent to the roster and maintains the agent side.
func (d *Directory) AddAgent(groupID, agentID string) error {
	if _, ok := d.agents.Get(agentID); !ok {
		return agents.ErrNotFound
	}

	d.mu.Lock()
	g, ok := d.byID[groupID]
	if !ok {
		d.mu.Unlock()
		return ErrNotFound
	}
	already := false
	for _, id := range g.AgentIDs {
		if id == agentID {
			already = true
			break
		}
	}
	if !already {
		g.AgentIDs = append(g.AgentIDs, agentID)
		g.UpdatedAt = d.clock().UTC()
	}
	d.mu.Unlock()

	if err := d.agents.AttachGroup(agentID, groupID); err != nil {
		return err
	}
	d.RecomputeStatistics(groupID)
	return nil
}

// RemoveAgent removes an agent from the roster and maintains the agent side.
func (d *Directory) RemoveAgent(groupID, agentID string) error {
	d.mu.Lock()
	g, ok := d.byID[groupID]
	if !ok {
		d.mu.Unlock()
		return ErrNotFound
	}
	for i, id := range g.AgentIDs {
		if id == agentID {
			g.AgentIDs = append(g.AgentIDs[:i], g.AgentIDs[i+1:]...)
			g.UpdatedAt = d.clock().UTC()
			break
		}
	}
	d.mu.Unlock()

	_ = d.agents.DetachGroup(agentID, groupID)
	d.RecomputeStatistics(groupID)
	return nil
}

// EvictAgent removes an agent from every group it belongs to. Used when an
// agent record is deleted administratively.
func (d *Directory) EvictAgent(agentID string) {
	d.mu.Lock()
	var touched []string
	for _, gid := range d.order {
		g := d.byID[gid]
		for i, id := range g.AgentIDs {
			if id == agentID {
				g.AgentIDs = append(g.AgentIDs[:i], g.AgentIDs[i+1:]...)
				g.UpdatedAt = d.clock().UTC()
				touched = append(touched, gid)
				break
			}
		}
	}
	d.mu.Unlock()

	for _, gid := range touched {
		_ = d.agents.DetachGroup(agentID, gid)
		d.RecomputeStatistics(gid)
	}
}

func (d *Directory) SetOverflowGroupIDs(groupID string, overflowIDs []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.byID[groupID]
	if !ok {
		return ErrNotFound
	}
	for _, id := range overflowIDs {
		if id == groupID {
			return ErrInvalidInput
		}
	}
	g.OverflowGroupIDs = append([]string(nil), overflowIDs...)
	g.UpdatedAt = d.clock().UTC()
	return nil
}

func (d *Directory) SetOverflowEnabled(groupID string, enabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.byID[groupID]
	if !ok {
		return ErrNotFound
	}
	g.OverflowEnabled = enabled
	g.UpdatedAt = d.clock().UTC()
	return nil
}

// RecomputeStatistics re-derives member counts from the agent directory.
// Called after membership changes and after agent status transitions that
// touch this group.
func (d *Directory) RecomputeStatistics(groupID string) {
	members := d.agents.ListByGroup(groupID)

	var stats Statistics
	stats.TotalAgents = len(members)
	for _, a := range members {
		switch a.Status {
		case agents.StatusAvailable:
			stats.AvailableAgents++
		case agents.StatusBusy, agents.StatusInCall:
			stats.BusyAgents++
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if g, ok := d.byID[groupID]; ok {
		g.Statistics = stats
	}
}

// OverflowCandidates returns the groups from the overflow list that exist
// and currently have at least one available agent, preserving configured
// order. That order is the tie-break contract: first configured group with
// capacity wins, not the least-loaded one.
//
// Returns nil when overflow is disabled for the group.
func (d *Directory) OverflowCandidates(groupID string) []Group {
	d.mu.Lock()
	g, ok := d.byID[groupID]
	if !ok || !g.OverflowEnabled {
		d.mu.Unlock()
		return nil
	}
	overflowIDs := append([]string(nil), g.OverflowGroupIDs...)
	d.mu.Unlock()

	out := make([]Group, 0, len(overflowIDs))
	for _, id := range overflowIDs {
		candidate, exists := d.Get(id)
		if !exists {
			continue
		}
		if len(d.agents.ListAvailableByGroup(id)) == 0 {
			continue
		}
		out = append(out, candidate)
	}
	return out
}
