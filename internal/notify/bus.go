package notify

import (
	"log/slog"
	"sync"

	"callcenter-platform/internal/rbac"

	"github.com/google/uuid"
)

// Bus fans state-change events out to two audiences: the agent a change
// concerns, and every connected supervisor.
//
// Delivery contract: at-most-once, best-effort, never transactional with
// the state change that produced the event. A subscriber that cannot keep
// up has events dropped rather than blocking the publisher.
type Bus struct {
	mu   sync.Mutex
	subs map[string]*Subscription

	log *slog.Logger
}

const subscriptionBuffer = 32

func NewBus(log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{subs: make(map[string]*Subscription), log: log}
}

// Subscription is one connected console client.
type Subscription struct {
	id      string
	role    string
	agentID string
	ch      chan Event

	bus  *Bus
	once sync.Once
}

func (s *Subscription) Events() <-chan Event { return s.ch }
func (s *Subscription) Role() string         { return s.role }
func (s *Subscription) AgentID() string      { return s.agentID }

// Close detaches the subscription. Safe to call more than once. The
// channel is closed under the bus lock, the same lock deliveries hold, so
// a concurrent publish either sees the subscription gone or finishes its
// send before the close.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s.id)
		close(s.ch)
		s.bus.mu.Unlock()
	})
}

// Subscribe registers a console client. agentID is required for the agent
// role and ignored for supervisors.
func (b *Bus) Subscribe(role, agentID string) *Subscription {
	sub := &Subscription{
		id:      uuid.NewString(),
		role:    role,
		agentID: agentID,
		ch:      make(chan Event, subscriptionBuffer),
		bus:     b,
	}
	b.mu.Lock()
	b.subs[sub.id] = sub
	b.mu.Unlock()
	return sub
}

// NotifyAgent delivers an event to the sessions of one agent.
func (b *Bus) NotifyAgent(agentID string, ev Event) {
	if agentID == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs {
		if s.role == rbac.RoleAgent && s.agentID == agentID {
			b.deliver(s, ev)
		}
	}
}

// NotifySupervisors delivers an event to every supervisor session.
func (b *Bus) NotifySupervisors(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.subs {
		if s.role == rbac.RoleSupervisor || s.role == rbac.RoleAdmin {
			b.deliver(s, ev)
		}
	}
}

// deliver requires b.mu held. The send is non-blocking, so holding the
// lock across it never stalls the routing path.
func (b *Bus) deliver(s *Subscription, ev Event) {
	select {
	case s.ch <- ev:
	default:
		// Slow consumer: drop rather than block the routing path.
		b.log.Warn("notification dropped",
			"event", string(ev.Type),
			"role", s.role,
			"agent_id", s.agentID,
		)
	}
}

// SubscriberCount reports connected sessions, for the health probe.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
