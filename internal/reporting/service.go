package reporting

import (
	"callcenter-platform/internal/agents"
	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/groups"
)

// Overview is the dashboard rollup: a point-in-time snapshot computed on
// demand from live state, never cached.
type Overview struct {
	Agents AgentBreakdown  `json:"agents"`
	Calls  CallBreakdown   `json:"calls"`
	Groups []GroupSnapshot `json:"groups"`
}

type AgentBreakdown struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Busy      int `json:"busy"`
	InCall    int `json:"in_call"`
	Offline   int `json:"offline"`
}

type CallBreakdown struct {
	Active    int `json:"active"`
	Incoming  int `json:"incoming"`
	Ringing   int `json:"ringing"`
	Connected int `json:"connected"`
	Ended     int `json:"ended"`

	TotalHandled           int `json:"total_handled"`
	AverageDurationSeconds int `json:"average_duration_seconds"`
	AverageWaitSeconds     int `json:"average_wait_seconds"`
}

type GroupSnapshot struct {
	GroupID     string `json:"group_id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Total       int    `json:"total_agents"`
	Available   int    `json:"available_agents"`
	Busy        int    `json:"busy_agents"`
	ActiveCalls int    `json:"active_calls"`
}

type Service struct {
	agents *agents.Directory
	groups *groups.Directory
	calls  *calls.Store
}

func NewService(agentDir *agents.Directory, groupDir *groups.Directory, store *calls.Store) *Service {
	return &Service{agents: agentDir, groups: groupDir, calls: store}
}

func (s *Service) Overview() Overview {
	var out Overview

	for _, a := range s.agents.List() {
		out.Agents.Total++
		switch a.Status {
		case agents.StatusAvailable:
			out.Agents.Available++
		case agents.StatusBusy:
			out.Agents.Busy++
		case agents.StatusInCall:
			out.Agents.InCall++
		case agents.StatusOffline:
			out.Agents.Offline++
		}
	}

	activeByGroup := make(map[string]int)
	var durationSum, waitSum int
	for _, c := range s.calls.List() {
		switch c.Status {
		case calls.StatusIncoming:
			out.Calls.Incoming++
		case calls.StatusRinging:
			out.Calls.Ringing++
		case calls.StatusConnected, calls.StatusTransferred:
			out.Calls.Connected++
		case calls.StatusEnded:
			out.Calls.Ended++
			out.Calls.TotalHandled++
			durationSum += c.DurationSeconds
			waitSum += c.WaitTimeSeconds
		}
		if c.Status.Live() {
			out.Calls.Active++
			activeByGroup[c.GroupID]++
		}
	}
	if out.Calls.TotalHandled > 0 {
		out.Calls.AverageDurationSeconds = durationSum / out.Calls.TotalHandled
		out.Calls.AverageWaitSeconds = waitSum / out.Calls.TotalHandled
	}

	for _, g := range s.groups.List() {
		s.groups.RecomputeStatistics(g.ID)
		refreshed, ok := s.groups.Get(g.ID)
		if !ok {
			continue
		}
		out.Groups = append(out.Groups, GroupSnapshot{
			GroupID:     refreshed.ID,
			Name:        refreshed.Name,
			PhoneNumber: refreshed.PhoneNumber,
			Total:       refreshed.Statistics.TotalAgents,
			Available:   refreshed.Statistics.AvailableAgents,
			Busy:        refreshed.Statistics.BusyAgents,
			ActiveCalls: activeByGroup[refreshed.ID],
		})
	}
	return out
}
