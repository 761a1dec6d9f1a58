package calllog

import "time"

// Record is one archived call, written once when the call ends and never
// updated. The live call store stays authoritative for the process
// lifetime; the archive exists so history survives restarts.
type Record struct {
	CallID          string    `json:"call_id"`
	GroupID         string    `json:"group_id"`
	AgentID         string    `json:"agent_id"`
	PhoneNumber     string    `json:"phone_number"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationSeconds int       `json:"duration_seconds"`
	WaitTimeSeconds int       `json:"wait_time_seconds"`
	ArchivedAt      time.Time `json:"archived_at"`
}
