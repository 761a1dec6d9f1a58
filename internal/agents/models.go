package agents

import "time"

// Agent is a call-center console identity that can receive routed calls.
//
// Concurrency invariant: Status and CurrentCallID form a pair that only the
// Directory mutates, and only under its lock. Status == StatusInCall iff
// CurrentCallID is set.
//
// TelephonyIdentity is the external calling identity bound once the agent's
// telephony session initializes; a call cannot be transferred to an agent
// without it.
type Agent struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`

	// Password is stored and compared as-is. Hashing is out of scope for
	// this service tier.
	Password string `json:"-"`

	Role string `json:"role"`

	Status        Status `json:"status"`
	CurrentCallID string `json:"current_call_id,omitempty"`

	GroupIDs []string `json:"group_ids"`

	TelephonyIdentity string `json:"telephony_identity,omitempty"`

	Statistics Statistics `json:"statistics"`

	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

type Status string

const (
	StatusAvailable Status = "available"
	StatusBusy      Status = "busy"
	StatusOffline   Status = "offline"
	StatusInCall    Status = "in_call"
)

func IsValidStatus(s Status) bool {
	switch s {
	case StatusAvailable, StatusBusy, StatusOffline, StatusInCall:
		return true
	default:
		return false
	}
}

// Statistics are monotonically accumulated counters, mutated only at call
// completion (Directory.Release).
type Statistics struct {
	TotalCalls             int `json:"total_calls"`
	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`

	CallsToday     int `json:"calls_today"`
	CallsThisWeek  int `json:"calls_this_week"`
	CallsThisMonth int `json:"calls_this_month"`

	LastCallAt time.Time `json:"last_call_at"`
}

func (a Agent) clone() Agent {
	out := a
	out.GroupIDs = append([]string(nil), a.GroupIDs...)
	return out
}
