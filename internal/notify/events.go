package notify

import (
	"time"

	"callcenter-platform/internal/agents"
	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/groups"
)

// Event is the wire shape pushed to console clients. Delivery is
// at-most-once with no ordering guarantee across subscribers; consoles
// treat events as hints and reconcile via the REST listings.
type Event struct {
	Type EventType `json:"type"`
	At   time.Time `json:"at"`

	Call  *calls.Call   `json:"call,omitempty"`
	Agent *agents.Agent `json:"agent,omitempty"`
	Group *groups.Group `json:"group,omitempty"`
}

type EventType string

const (
	EventCallIncoming    EventType = "call.incoming"
	EventCallAnswered    EventType = "call.answered"
	EventCallEnded       EventType = "call.ended"
	EventCallTransferred EventType = "call.transferred"
	EventAgentStatus     EventType = "agent.status"
	EventGroupUpdated    EventType = "group.updated"
)

func CallEvent(t EventType, c calls.Call) Event {
	return Event{Type: t, At: time.Now().UTC(), Call: &c}
}

func AgentEvent(a agents.Agent) Event {
	a.Password = ""
	return Event{Type: EventAgentStatus, At: time.Now().UTC(), Agent: &a}
}

func GroupEvent(g groups.Group) Event {
	return Event{Type: EventGroupUpdated, At: time.Now().UTC(), Group: &g}
}
