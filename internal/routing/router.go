package routing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"callcenter-platform/internal/agents"
	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/groups"
	"callcenter-platform/internal/notify"
	"callcenter-platform/internal/telephony"
)

var (
	// ErrNoRoute: no group owns the destination number. A normal negative
	// result, not an internal failure; no call record is created.
	ErrNoRoute = errors.New("routing: no group for destination number")

	ErrNotFound      = errors.New("routing: call not found")
	ErrInvalidState  = errors.New("routing: call state forbids operation")
	ErrNotAuthorized = errors.New("routing: agent is not assigned to this call")
)

// Gateway is the slice of the telephony adapter the router needs.
type Gateway interface {
	Answer(ctx context.Context, call calls.Call, agentIdentity string) (string, error)
	Hangup(ctx context.Context, call calls.Call) error
	Configured() bool
}

// Notifier is the event fan-out contract. Delivery is best-effort and not
// transactional with the state changes that produce events.
type Notifier interface {
	NotifyAgent(agentID string, ev notify.Event)
	NotifySupervisors(ev notify.Event)
}

// Archiver receives ended calls for the append-only log. Best-effort.
type Archiver interface {
	RecordEnded(ctx context.Context, call calls.Call)
}

// Router owns the call lifecycle: assignment of incoming calls to agents,
// overflow search across groups, answer/end/transfer, and the handling of
// asynchronous control-plane events.
//
// Locking discipline: the directories and the call store each serialize
// their own mutations; the router never holds any of their locks across a
// gateway call. Call state advances only after the external outcome is
// known.
type Router struct {
	Agents  *agents.Directory
	Groups  *groups.Directory
	Calls   *calls.Store
	Gateway Gateway
	Bus     Notifier
	Archive Archiver // optional

	Log *slog.Logger
	Now func() time.Time
}

func NewRouter(agentDir *agents.Directory, groupDir *groups.Directory, store *calls.Store, gw Gateway, bus Notifier, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		Agents:  agentDir,
		Groups:  groupDir,
		Calls:   store,
		Gateway: gw,
		Bus:     bus,
		Log:     log,
		Now:     time.Now,
	}
}

/* ===================== INBOUND ===================== */

// RouteIncomingCall creates a call for an inbound webhook event and tries
// to assign it: first an available agent in the group owning the dialed
// number, then the group's overflow candidates in configured order.
//
// If nobody anywhere has capacity the call stays incoming and unassigned —
// there is no queueing or retry timer; supervisors see it in the active
// backlog.
func (r *Router) RouteIncomingCall(ctx context.Context, destinationNumber, callerNumber, incomingContext string) (calls.Call, error) {
	group, ok := r.Groups.FindByPhoneNumber(destinationNumber)
	if !ok {
		return calls.Call{}, ErrNoRoute
	}

	call := r.Calls.New(calls.Call{
		Status:                  calls.StatusIncoming,
		GroupID:                 group.ID,
		PhoneNumber:             callerNumber,
		ExternalIncomingContext: incomingContext,
		StartTime:               r.Now().UTC(),
	})

	agentID, landedGroupID, assigned := r.assign(call.ID, group.ID)
	if !assigned {
		r.Log.Warn("call unassigned: no available agent",
			"call_id", call.ID,
			"group_id", group.ID,
			"destination", destinationNumber,
		)
		r.Bus.NotifySupervisors(notify.CallEvent(notify.EventCallIncoming, call))
		return call, nil
	}

	call, _ = r.Calls.Mutate(call.ID, func(c *calls.Call) {
		c.AssignedAgentID = agentID
		c.GroupID = landedGroupID // the call now belongs wherever it landed
		c.Status = calls.StatusRinging
	})

	r.Groups.RecomputeStatistics(landedGroupID)
	if landedGroupID != group.ID {
		r.Groups.RecomputeStatistics(group.ID)
	}

	r.Bus.NotifyAgent(agentID, notify.CallEvent(notify.EventCallIncoming, call))
	r.Bus.NotifySupervisors(notify.CallEvent(notify.EventCallIncoming, call))
	if agent, ok := r.Agents.Get(agentID); ok {
		r.Bus.NotifySupervisors(notify.AgentEvent(agent))
	}
	return call, nil
}

// assign reserves the first available agent, trying the primary group and
// then its overflow candidates. Selection within a group is first-available
// in listing order; the listing is stable, and fairness beyond that is a
// policy decision this router deliberately does not make.
func (r *Router) assign(callID, primaryGroupID string) (agentID, groupID string, ok bool) {
	if id, ok := r.reserveFrom(primaryGroupID, callID); ok {
		return id, primaryGroupID, true
	}
	for _, candidate := range r.Groups.OverflowCandidates(primaryGroupID) {
		if id, ok := r.reserveFrom(candidate.ID, callID); ok {
			return id, candidate.ID, true
		}
	}
	return "", "", false
}

func (r *Router) reserveFrom(groupID, callID string) (string, bool) {
	for _, a := range r.Agents.ListAvailableByGroup(groupID) {
		// The listing is a snapshot; ReserveForCall re-checks under the
		// directory lock, so losing a race here just moves to the next.
		if err := r.Agents.ReserveForCall(a.ID, callID); err == nil {
			return a.ID, true
		}
	}
	return "", false
}

/* ===================== AGENT ACTIONS ===================== */

// AnswerCall connects a ringing call: control-plane answer plus the
// transfer to the agent's telephony identity. Gateway failure leaves the
// call ringing; the caller decides whether to retry.
func (r *Router) AnswerCall(ctx context.Context, callID, agentID string) (calls.Call, error) {
	call, ok := r.Calls.Get(callID)
	if !ok {
		return calls.Call{}, ErrNotFound
	}
	if call.AssignedAgentID != agentID {
		return calls.Call{}, ErrNotAuthorized
	}
	if call.Status != calls.StatusRinging {
		return calls.Call{}, ErrInvalidState
	}

	agent, ok := r.Agents.Get(agentID)
	if !ok {
		return calls.Call{}, ErrNotFound
	}

	connectionID, err := r.Gateway.Answer(ctx, call, agent.TelephonyIdentity)
	if connectionID != "" {
		// Persist even when the transfer leg failed: the id is the only
		// handle for reconciling the partial-failure state.
		call, _ = r.Calls.Mutate(callID, func(c *calls.Call) {
			c.ExternalConnectionID = connectionID
		})
	}
	if err != nil {
		return calls.Call{}, err
	}

	now := r.Now().UTC()
	call, _ = r.Calls.Mutate(callID, func(c *calls.Call) {
		c.Status = calls.StatusConnected
		c.WaitTimeSeconds = int(now.Sub(c.StartTime).Seconds())
	})

	r.Bus.NotifyAgent(agentID, notify.CallEvent(notify.EventCallAnswered, call))
	r.Bus.NotifySupervisors(notify.CallEvent(notify.EventCallAnswered, call))
	return call, nil
}

// EndCall terminates a call. When agentID is set it must match the
// assigned agent (authorization-by-assignment); supervisors and system
// paths pass "".
//
// Gateway failure aborts the whole operation and the call keeps its prior
// state: there is no forced end that bypasses a failed hangup, because
// that would let internal and telephony state diverge.
func (r *Router) EndCall(ctx context.Context, callID, agentID string) (calls.Call, error) {
	call, ok := r.Calls.Get(callID)
	if !ok {
		return calls.Call{}, ErrNotFound
	}
	if call.Status == calls.StatusEnded {
		return calls.Call{}, ErrInvalidState
	}
	if agentID != "" && call.AssignedAgentID != agentID {
		return calls.Call{}, ErrNotAuthorized
	}

	if err := r.Gateway.Hangup(ctx, call); err != nil {
		return calls.Call{}, err
	}

	return r.finishCall(ctx, callID)
}

// finishCall performs the terminal transition exactly once: flips the call
// to ended, releases the assigned agent, folds statistics, archives, and
// notifies. Concurrent enders race on the status flip; losers get an
// invalid-state error and nothing is double-released.
func (r *Router) finishCall(ctx context.Context, callID string) (calls.Call, error) {
	now := r.Now().UTC()
	alreadyEnded := false
	call, err := r.Calls.Mutate(callID, func(c *calls.Call) {
		if c.Status == calls.StatusEnded {
			alreadyEnded = true
			return
		}
		c.Status = calls.StatusEnded
		c.EndTime = now
		c.DurationSeconds = int(now.Sub(c.StartTime).Seconds())
	})
	if err != nil {
		return calls.Call{}, ErrNotFound
	}
	if alreadyEnded {
		return calls.Call{}, ErrInvalidState
	}

	if call.AssignedAgentID != "" {
		agent, relErr := r.Agents.Release(call.AssignedAgentID, call.DurationSeconds)
		if relErr != nil {
			r.Log.Error("release failed for ended call",
				"call_id", call.ID,
				"agent_id", call.AssignedAgentID,
				"err", relErr,
			)
		} else {
			r.Bus.NotifyAgent(agent.ID, notify.CallEvent(notify.EventCallEnded, call))
			r.Bus.NotifySupervisors(notify.AgentEvent(agent))
		}
	}
	r.Groups.RecomputeStatistics(call.GroupID)
	r.Bus.NotifySupervisors(notify.CallEvent(notify.EventCallEnded, call))

	if r.Archive != nil {
		r.Archive.RecordEnded(ctx, call)
	}
	return call, nil
}

// TransferCall hands a live call from one agent to another inside the
// system. The target is reserved before the origin is released so the call
// is never unowned; the telephony control plane is not re-engaged for this
// internal handoff.
func (r *Router) TransferCall(ctx context.Context, callID, fromAgentID, toAgentID string) (calls.Call, error) {
	call, ok := r.Calls.Get(callID)
	if !ok {
		return calls.Call{}, ErrNotFound
	}
	if call.AssignedAgentID != fromAgentID {
		return calls.Call{}, ErrNotAuthorized
	}
	if call.Status != calls.StatusRinging && call.Status != calls.StatusConnected && call.Status != calls.StatusTransferred {
		return calls.Call{}, ErrInvalidState
	}

	if err := r.Agents.ReserveForCall(toAgentID, callID); err != nil {
		if errors.Is(err, agents.ErrNotFound) {
			return calls.Call{}, ErrNotFound
		}
		return calls.Call{}, ErrInvalidState
	}

	elapsed := int(r.Now().UTC().Sub(call.StartTime).Seconds())
	origin, relErr := r.Agents.Release(fromAgentID, elapsed)
	if relErr != nil {
		r.Log.Error("origin release failed on transfer",
			"call_id", callID,
			"agent_id", fromAgentID,
			"err", relErr,
		)
	}

	call, _ = r.Calls.Mutate(callID, func(c *calls.Call) {
		c.AssignedAgentID = toAgentID
		c.Status = calls.StatusTransferred
	})

	r.Groups.RecomputeStatistics(call.GroupID)

	r.Bus.NotifyAgent(fromAgentID, notify.CallEvent(notify.EventCallTransferred, call))
	r.Bus.NotifyAgent(toAgentID, notify.CallEvent(notify.EventCallTransferred, call))
	r.Bus.NotifySupervisors(notify.CallEvent(notify.EventCallTransferred, call))
	if relErr == nil {
		r.Bus.NotifySupervisors(notify.AgentEvent(origin))
	}
	if target, ok := r.Agents.Get(toAgentID); ok {
		r.Bus.NotifySupervisors(notify.AgentEvent(target))
	}
	return call, nil
}

/* ===================== QUERIES ===================== */

func (r *Router) GetCall(id string) (calls.Call, bool) { return r.Calls.Get(id) }

func (r *Router) ListActive() []calls.Call { return r.Calls.ListActive() }

func (r *Router) ListByAgent(agentID string) []calls.Call { return r.Calls.ListByAgent(agentID) }

func (r *Router) ListByGroup(groupID string) []calls.Call { return r.Calls.ListByGroup(groupID) }

func (r *Router) FindByConnectionID(id string) (calls.Call, bool) {
	return r.Calls.FindByConnectionID(id)
}

/* ===================== CONTROL-PLANE EVENTS ===================== */

// The methods below satisfy telephony.CallEventSink.

func (r *Router) HandleIncomingCall(ctx context.Context, destinationNumber, callerNumber, incomingContext string) error {
	_, err := r.RouteIncomingCall(ctx, destinationNumber, callerNumber, incomingContext)
	return err
}

// HandleCallConnected confirms the media-level connect. The answer path
// already advanced the call, so this is normally a no-op; it only matters
// when the synchronous confirmation was lost.
func (r *Router) HandleCallConnected(ctx context.Context, connectionID string) {
	call, ok := r.Calls.FindByConnectionID(connectionID)
	if !ok || call.Status != calls.StatusRinging {
		return
	}
	now := r.Now().UTC()
	call, _ = r.Calls.Mutate(call.ID, func(c *calls.Call) {
		if c.Status != calls.StatusRinging {
			return
		}
		c.Status = calls.StatusConnected
		c.WaitTimeSeconds = int(now.Sub(c.StartTime).Seconds())
	})
	r.Bus.NotifySupervisors(notify.CallEvent(notify.EventCallAnswered, call))
}

// HandleRemoteDisconnect ends a call the remote side already tore down.
// The external leg is gone, so the gateway is not re-engaged.
func (r *Router) HandleRemoteDisconnect(ctx context.Context, connectionID string) {
	call, ok := r.Calls.FindByConnectionID(connectionID)
	if !ok {
		r.Log.Debug("disconnect for unknown connection", "connection_id", connectionID)
		return
	}
	if call.Status == calls.StatusEnded {
		return
	}
	if _, err := r.finishCall(ctx, call.ID); err != nil && !errors.Is(err, ErrInvalidState) {
		r.Log.Error("remote disconnect handling failed",
			"call_id", call.ID,
			"connection_id", connectionID,
			"err", err,
		)
	}
}

// HandleTransferAccepted clears the stored connection id once a transfer
// is confirmed complete: control of the call has moved to the target's own
// telephony session and the old id no longer addresses anything.
func (r *Router) HandleTransferAccepted(ctx context.Context, connectionID string) {
	call, ok := r.Calls.FindByConnectionID(connectionID)
	if !ok {
		return
	}
	call, _ = r.Calls.Mutate(call.ID, func(c *calls.Call) {
		c.ExternalConnectionID = ""
	})
	r.Log.Info("transfer confirmed", "call_id", call.ID, "connection_id", connectionID)
}

// HandleTransferFailed only records the failure. The call stays in its
// current state; what to do about a stuck transfer is an operator call.
func (r *Router) HandleTransferFailed(ctx context.Context, connectionID string) {
	call, ok := r.Calls.FindByConnectionID(connectionID)
	if !ok {
		r.Log.Warn("transfer failure for unknown connection", "connection_id", connectionID)
		return
	}
	r.Log.Error("control plane reported transfer failure",
		"call_id", call.ID,
		"connection_id", connectionID,
		"assigned_agent_id", call.AssignedAgentID,
	)
}

var _ telephony.CallEventSink = (*Router)(nil)
