package calllog

import (
	"context"
	"sync"
)

// Repository persists archived call records.
type Repository interface {
	Insert(ctx context.Context, rec Record) error
	ListRecent(ctx context.Context, limit int) ([]Record, error)
	ListByAgent(ctx context.Context, agentID string, limit int) ([]Record, error)
	ListByGroup(ctx context.Context, groupID string, limit int) ([]Record, error)
}

// MemoryRepo holds archived records in process memory. Used when no
// database is configured, and in tests.
type MemoryRepo struct {
	mu   sync.Mutex
	recs []Record
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Insert(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
	return nil
}

func (r *MemoryRepo) ListRecent(_ context.Context, limit int) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(limit, func(Record) bool { return true }), nil
}

func (r *MemoryRepo) ListByAgent(_ context.Context, agentID string, limit int) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(limit, func(rec Record) bool { return rec.AgentID == agentID }), nil
}

func (r *MemoryRepo) ListByGroup(_ context.Context, groupID string, limit int) ([]Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(limit, func(rec Record) bool { return rec.GroupID == groupID }), nil
}

// filter walks newest first. Callers hold the lock.
func (r *MemoryRepo) filter(limit int, keep func(Record) bool) []Record {
	out := make([]Record, 0)
	for i := len(r.recs) - 1; i >= 0; i-- {
		if !keep(r.recs[i]) {
			continue
		}
		out = append(out, r.recs[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
