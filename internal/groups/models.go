package groups

import "time"

// Group is a routable unit: one phone number, one roster of agents, and an
// ordered overflow list consulted when the roster has no free agent.
type Group struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`

	// PhoneNumber is the unique routing key for inbound calls.
	PhoneNumber string `json:"phone_number"`

	AgentIDs []string `json:"agent_ids"`

	// OverflowGroupIDs is consulted in configured order; first group with
	// capacity wins. OverflowEnabled gates the whole list.
	OverflowGroupIDs []string `json:"overflow_group_ids"`
	OverflowEnabled  bool     `json:"overflow_enabled"`

	Statistics Statistics `json:"statistics"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Statistics are derived from current membership, never independently
// mutated. Recomputed after membership or agent-status changes.
type Statistics struct {
	TotalAgents     int `json:"total_agents"`
	AvailableAgents int `json:"available_agents"`
	BusyAgents      int `json:"busy_agents"`
}

func (g Group) clone() Group {
	out := g
	out.AgentIDs = append([]string(nil), g.AgentIDs...)
	out.OverflowGroupIDs = append([]string(nil), g.OverflowGroupIDs...)
	return out
}
