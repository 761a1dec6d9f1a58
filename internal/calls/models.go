package calls

import "time"

// Call is the routed-call record. Created on webhook receipt, owned and
// mutated exclusively by the router for the rest of its life, never
// deleted, only marked ended.
type Call struct {
	ID string `json:"id"`

	// ExternalIncomingContext is the opaque token required to answer the
	// call at the control plane; only valid until first answered.
	// ExternalConnectionID identifies the live leg after answer and is
	// required to end or transfer it. It is cleared once a transfer to an
	// agent's own telephony session completes.
	ExternalIncomingContext string `json:"external_incoming_context,omitempty"`
	ExternalConnectionID    string `json:"external_connection_id,omitempty"`

	Status Status `json:"status"`

	// GroupID changes when overflow reassigns the call to another group.
	GroupID         string `json:"group_id"`
	AssignedAgentID string `json:"assigned_agent_id,omitempty"`

	// PhoneNumber is the caller.
	PhoneNumber string `json:"phone_number"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	DurationSeconds int `json:"duration_seconds"`
	WaitTimeSeconds int `json:"wait_time_seconds"`
}

type Status string

const (
	StatusIncoming    Status = "incoming"
	StatusRinging     Status = "ringing"
	StatusConnected   Status = "connected"
	StatusTransferred Status = "transferred"
	StatusEnded       Status = "ended"
)

// Live reports whether the call still occupies an agent.
func (s Status) Live() bool {
	return s != StatusEnded
}
