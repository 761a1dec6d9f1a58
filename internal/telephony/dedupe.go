package telephony

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"callcenter-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Deduper filters redelivered webhook envelopes by event id. The control
// plane retries delivery until acknowledged, so replays are expected.
type Deduper interface {
	// FirstSeen reports whether this event id has not been processed yet.
	FirstSeen(ctx context.Context, eventID string) bool
}

const dedupeTTL = 10 * time.Minute

// RedisDeduper marks event ids in Redis so replays are filtered across
// process restarts. Fails open: if Redis is unreachable the event is
// treated as new, since processing twice beats dropping an incoming call.
type RedisDeduper struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewRedisDeduper(rdb *redis.Client, log *slog.Logger) *RedisDeduper {
	if log == nil {
		log = slog.Default()
	}
	return &RedisDeduper{rdb: rdb, log: log}
}

func (d *RedisDeduper) FirstSeen(ctx context.Context, eventID string) bool {
	if eventID == "" {
		return true
	}
	first, err := utils.MarkFirstSeen(ctx, d.rdb, "telephony:event:"+eventID, dedupeTTL)
	if err != nil {
		d.log.Warn("event dedupe unavailable", "event_id", eventID, "err", err)
		return true
	}
	return first
}

// MemoryDeduper is the in-process fallback when Redis is not configured.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{
		seen: make(map[string]time.Time),
		ttl:  dedupeTTL,
		now:  time.Now,
	}
}

func (d *MemoryDeduper) FirstSeen(_ context.Context, eventID string) bool {
	if eventID == "" {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for id, at := range d.seen {
		if now.Sub(at) > d.ttl {
			delete(d.seen, id)
		}
	}

	if _, ok := d.seen[eventID]; ok {
		return false
	}
	d.seen[eventID] = now
	return true
}
