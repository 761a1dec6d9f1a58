package calllog

import (
	"context"
	"log/slog"
	"time"

	"callcenter-platform/internal/calls"
)

// Service turns ended calls into archive records. Archiving is strictly
// best-effort: a failed insert is logged and the call flow is never held
// up or rolled back for it.
type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

func NewService(repo Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, log: log, now: time.Now}
}

func (s *Service) SetClock(now func() time.Time) { s.now = now }

// RecordEnded archives one ended call.
func (s *Service) RecordEnded(ctx context.Context, c calls.Call) {
	if s == nil || s.repo == nil {
		return
	}
	rec := Record{
		CallID:          c.ID,
		GroupID:         c.GroupID,
		AgentID:         c.AssignedAgentID,
		PhoneNumber:     c.PhoneNumber,
		StartTime:       c.StartTime,
		EndTime:         c.EndTime,
		DurationSeconds: c.DurationSeconds,
		WaitTimeSeconds: c.WaitTimeSeconds,
		ArchivedAt:      s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		s.log.Error("call archive insert failed", "call_id", c.ID, "err", err)
	}
}

func (s *Service) Recent(ctx context.Context, limit int) ([]Record, error) {
	return s.repo.ListRecent(ctx, limit)
}

func (s *Service) ByAgent(ctx context.Context, agentID string, limit int) ([]Record, error) {
	return s.repo.ListByAgent(ctx, agentID, limit)
}

func (s *Service) ByGroup(ctx context.Context, groupID string, limit int) ([]Record, error) {
	return s.repo.ListByGroup(ctx, groupID, limit)
}
