package calllog

import (
	"context"
	"errors"
	"testing"
	"time"

	"callcenter-platform/internal/calls"
)

func TestRecordEnded_ArchivesCallFields(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, nil)
	archivedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return archivedAt })

	start := archivedAt.Add(-2 * time.Minute)
	svc.RecordEnded(context.Background(), calls.Call{
		ID:              "c1",
		GroupID:         "g1",
		AssignedAgentID: "a1",
		PhoneNumber:     "+15551234",
		StartTime:       start,
		EndTime:         archivedAt,
		DurationSeconds: 120,
		WaitTimeSeconds: 5,
	})

	recs, err := repo.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("records: %d", len(recs))
	}
	rec := recs[0]
	if rec.CallID != "c1" || rec.AgentID != "a1" || rec.DurationSeconds != 120 {
		t.Fatalf("record: %+v", rec)
	}
	if !rec.ArchivedAt.Equal(archivedAt) {
		t.Fatalf("archived at: %v", rec.ArchivedAt)
	}
}

type failingRepo struct{}

func (failingRepo) Insert(context.Context, Record) error { return errors.New("db down") }
func (failingRepo) ListRecent(context.Context, int) ([]Record, error) {
	return nil, errors.New("db down")
}
func (failingRepo) ListByAgent(context.Context, string, int) ([]Record, error) {
	return nil, errors.New("db down")
}
func (failingRepo) ListByGroup(context.Context, string, int) ([]Record, error) {
	return nil, errors.New("db down")
}

func TestRecordEnded_InsertFailureIsSwallowed(t *testing.T) {
	svc := NewService(failingRepo{}, nil)
	// Must not panic or propagate; archiving is best-effort.
	svc.RecordEnded(context.Background(), calls.Call{ID: "c1"})
}

func TestMemoryRepo_FiltersAndLimits(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	for i, agentID := range []string{"a1", "a2", "a1", "a1"} {
		repo.Insert(ctx, Record{CallID: string(rune('0' + i)), AgentID: agentID, GroupID: "g1"})
	}

	byAgent, _ := repo.ListByAgent(ctx, "a1", 2)
	if len(byAgent) != 2 {
		t.Fatalf("limit not applied: %d", len(byAgent))
	}
	// Newest first.
	if byAgent[0].CallID != "3" || byAgent[1].CallID != "2" {
		t.Fatalf("ordering: %+v", byAgent)
	}

	byGroup, _ := repo.ListByGroup(ctx, "g1", 0)
	if len(byGroup) != 4 {
		t.Fatalf("group filter: %d", len(byGroup))
	}
}
