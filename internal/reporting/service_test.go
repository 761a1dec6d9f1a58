package reporting

import (
	"testing"
	"time"

	"callcenter-platform/internal/agents"
	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/groups"
)

func TestOverview(t *testing.T) {
	agentDir := agents.NewDirectory()
	groupDir := groups.NewDirectory(agentDir)
	store := calls.NewStore()
	svc := NewService(agentDir, groupDir, store)

	g, err := groupDir.Create(groups.CreateRequest{Name: "support", PhoneNumber: "+15550001"})
	if err != nil {
		t.Fatalf("group: %v", err)
	}

	mk := func(username string, status agents.Status) agents.Agent {
		a, err := agentDir.Create(agents.CreateRequest{Name: username, Username: username, Password: "pw"})
		if err != nil {
			t.Fatalf("agent: %v", err)
		}
		groupDir.AddAgent(g.ID, a.ID)
		if status != agents.StatusOffline {
			agentDir.UpdateStatus(a.ID, status)
		}
		return a
	}
	mk("alice", agents.StatusAvailable)
	mk("bob", agents.StatusBusy)
	mk("carol", agents.StatusOffline)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store.New(calls.Call{Status: calls.StatusRinging, GroupID: g.ID, StartTime: now})
	store.New(calls.Call{Status: calls.StatusConnected, GroupID: g.ID, StartTime: now})
	store.New(calls.Call{
		Status: calls.StatusEnded, GroupID: g.ID,
		StartTime: now, EndTime: now.Add(100 * time.Second),
		DurationSeconds: 100, WaitTimeSeconds: 10,
	})
	store.New(calls.Call{
		Status: calls.StatusEnded, GroupID: g.ID,
		StartTime: now, EndTime: now.Add(50 * time.Second),
		DurationSeconds: 50, WaitTimeSeconds: 4,
	})

	o := svc.Overview()

	if o.Agents.Total != 3 || o.Agents.Available != 1 || o.Agents.Busy != 1 || o.Agents.Offline != 1 {
		t.Fatalf("agent breakdown: %+v", o.Agents)
	}
	if o.Calls.Active != 2 || o.Calls.Ringing != 1 || o.Calls.Connected != 1 || o.Calls.Ended != 2 {
		t.Fatalf("call breakdown: %+v", o.Calls)
	}
	if o.Calls.AverageDurationSeconds != 75 || o.Calls.AverageWaitSeconds != 7 {
		t.Fatalf("averages: %+v", o.Calls)
	}

	if len(o.Groups) != 1 {
		t.Fatalf("groups: %d", len(o.Groups))
	}
	gs := o.Groups[0]
	if gs.Total != 3 || gs.Available != 1 || gs.Busy != 1 || gs.ActiveCalls != 2 {
		t.Fatalf("group snapshot: %+v", gs)
	}
}

func TestOverview_EmptyState(t *testing.T) {
	agentDir := agents.NewDirectory()
	svc := NewService(agentDir, groups.NewDirectory(agentDir), calls.NewStore())

	o := svc.Overview()
	if o.Agents.Total != 0 || o.Calls.Active != 0 || len(o.Groups) != 0 {
		t.Fatalf("expected empty overview: %+v", o)
	}
	if o.Calls.AverageDurationSeconds != 0 {
		t.Fatalf("average with no calls: %d", o.Calls.AverageDurationSeconds)
	}
}
