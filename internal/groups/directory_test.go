package groups

import (
	"testing"

	"callcenter-platform/internal/agents"
)

func setup(t *testing.T) (*agents.Directory, *Directory) {
	t.Helper()
	agentDir := agents.NewDirectory()
	return agentDir, NewDirectory(agentDir)
}

func mustGroup(t *testing.T, d *Directory, name, phone string) Group {
	t.Helper()
	g, err := d.Create(CreateRequest{Name: name, PhoneNumber: phone})
	if err != nil {
		t.Fatalf("create group %s: %v", name, err)
	}
	return g
}

func mustAgent(t *testing.T, d *agents.Directory, username string) agents.Agent {
	t.Helper()
	a, err := d.Create(agents.CreateRequest{Name: username, Username: username, Password: "pw"})
	if err != nil {
		t.Fatalf("create agent %s: %v", username, err)
	}
	return a
}

func TestCreate_PhoneNumberMustBeUnique(t *testing.T) {
	_, d := setup(t)
	mustGroup(t, d, "support", "+15550001")

	if _, err := d.Create(CreateRequest{Name: "sales", PhoneNumber: "+15550001"}); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUpdate_PhoneReindexes(t *testing.T) {
	_, d := setup(t)
	g := mustGroup(t, d, "support", "+15550001")
	mustGroup(t, d, "sales", "+15550002")

	if _, err := d.Update(g.ID, UpdateRequest{PhoneNumber: "+15550002"}); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate on taken number, got %v", err)
	}
	if _, err := d.Update(g.ID, UpdateRequest{PhoneNumber: "+15550003"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, ok := d.FindByPhoneNumber("+15550001"); ok {
		t.Fatalf("old number still mapped")
	}
	if got, ok := d.FindByPhoneNumber("+15550003"); !ok || got.ID != g.ID {
		t.Fatalf("new number not mapped")
	}
}

func TestMembership_RoundTrip(t *testing.T) {
	agentDir, d := setup(t)
	g := mustGroup(t, d, "support", "+15550001")
	a := mustAgent(t, agentDir, "alice")

	if err := d.AddAgent(g.ID, a.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	gotAgent, _ := agentDir.Get(a.ID)
	if len(gotAgent.GroupIDs) != 1 || gotAgent.GroupIDs[0] != g.ID {
		t.Fatalf("agent side not maintained: %v", gotAgent.GroupIDs)
	}
	gotGroup, _ := d.Get(g.ID)
	if len(gotGroup.AgentIDs) != 1 || gotGroup.AgentIDs[0] != a.ID {
		t.Fatalf("group side not maintained: %v", gotGroup.AgentIDs)
	}

	// Adding twice does not duplicate.
	if err := d.AddAgent(g.ID, a.ID); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	gotGroup, _ = d.Get(g.ID)
	if len(gotGroup.AgentIDs) != 1 {
		t.Fatalf("duplicate membership: %v", gotGroup.AgentIDs)
	}

	if err := d.RemoveAgent(g.ID, a.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	gotAgent, _ = agentDir.Get(a.ID)
	if len(gotAgent.GroupIDs) != 0 {
		t.Fatalf("agent side not cleaned: %v", gotAgent.GroupIDs)
	}
}

func TestDelete_StripsMembershipFromAgents(t *testing.T) {
	agentDir, d := setup(t)
	g := mustGroup(t, d, "support", "+15550001")
	a := mustAgent(t, agentDir, "alice")
	d.AddAgent(g.ID, a.ID)

	if !d.Delete(g.ID) {
		t.Fatalf("delete failed")
	}
	gotAgent, _ := agentDir.Get(a.ID)
	if len(gotAgent.GroupIDs) != 0 {
		t.Fatalf("membership survived group deletion: %v", gotAgent.GroupIDs)
	}
	if _, ok := d.FindByPhoneNumber("+15550001"); ok {
		t.Fatalf("phone mapping survived group deletion")
	}
}

func TestRecomputeStatistics(t *testing.T) {
	agentDir, d := setup(t)
	g := mustGroup(t, d, "support", "+15550001")

	a := mustAgent(t, agentDir, "alice")
	b := mustAgent(t, agentDir, "bob")
	c := mustAgent(t, agentDir, "carol")
	for _, id := range []string{a.ID, b.ID, c.ID} {
		d.AddAgent(g.ID, id)
	}
	agentDir.UpdateStatus(a.ID, agents.StatusAvailable)
	agentDir.UpdateStatus(b.ID, agents.StatusBusy)

	d.RecomputeStatistics(g.ID)
	got, _ := d.Get(g.ID)
	if got.Statistics.TotalAgents != 3 {
		t.Fatalf("total: %d", got.Statistics.TotalAgents)
	}
	if got.Statistics.AvailableAgents != 1 {
		t.Fatalf("available: %d", got.Statistics.AvailableAgents)
	}
	if got.Statistics.BusyAgents != 1 {
		t.Fatalf("busy: %d", got.Statistics.BusyAgents)
	}
}

func TestOverflowCandidates(t *testing.T) {
	agentDir, d := setup(t)
	primary := mustGroup(t, d, "support", "+15550001")
	b := mustGroup(t, d, "backup-b", "+15550002")
	c := mustGroup(t, d, "backup-c", "+15550003")

	// Only group C has capacity.
	ag := mustAgent(t, agentDir, "carol")
	d.AddAgent(c.ID, ag.ID)
	agentDir.UpdateStatus(ag.ID, agents.StatusAvailable)

	if err := d.SetOverflowGroupIDs(primary.ID, []string{b.ID, c.ID}); err != nil {
		t.Fatalf("set overflow: %v", err)
	}

	// Disabled: no candidates regardless of configuration.
	if got := d.OverflowCandidates(primary.ID); got != nil {
		t.Fatalf("expected nil while disabled, got %v", got)
	}

	d.SetOverflowEnabled(primary.ID, true)
	got := d.OverflowCandidates(primary.ID)
	if len(got) != 1 || got[0].ID != c.ID {
		t.Fatalf("expected only group C, got %+v", got)
	}
}

func TestSetOverflowGroupIDs_RejectsSelf(t *testing.T) {
	_, d := setup(t)
	g := mustGroup(t, d, "support", "+15550001")
	if err := d.SetOverflowGroupIDs(g.ID, []string{g.ID}); err != ErrInvalidInput {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestOverflowCandidates_SkipsDeletedGroups(t *testing.T) {
	agentDir, d := setup(t)
	primary := mustGroup(t, d, "support", "+15550001")
	b := mustGroup(t, d, "backup-b", "+15550002")
	c := mustGroup(t, d, "backup-c", "+15550003")

	for _, gid := range []string{b.ID, c.ID} {
		a := mustAgent(t, agentDir, "agent-"+gid)
		d.AddAgent(gid, a.ID)
		agentDir.UpdateStatus(a.ID, agents.StatusAvailable)
	}

	d.SetOverflowGroupIDs(primary.ID, []string{b.ID, c.ID})
	d.SetOverflowEnabled(primary.ID, true)
	d.Delete(b.ID)

	got := d.OverflowCandidates(primary.ID)
	if len(got) != 1 || got[0].ID != c.ID {
		t.Fatalf("stale overflow reference not filtered: %+v", got)
	}
}
