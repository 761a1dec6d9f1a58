package telephony

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"callcenter-platform/internal/calls"
)

// ErrTransferFailed marks the partial-failure state where the control
// plane answered the call but the handoff to the agent's telephony
// identity failed: the call is live at the control plane and bound to no
// agent. There is no automatic rollback; the failure is logged with enough
// correlation to reconcile by hand.
var ErrTransferFailed = errors.New("telephony: transfer to agent failed after answer")

// Gateway translates between the router's call vocabulary and the control
// plane client. It owns the reconciliation rules for races between explicit
// operations and asynchronous disconnect events.
type Gateway struct {
	client      CallClient
	callbackURL string
	log         *slog.Logger
}

func NewGateway(client CallClient, callbackURL string, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{client: client, callbackURL: callbackURL, log: log}
}

// Configured reports whether a control plane client is wired. An
// unconfigured gateway fails every answer/hangup that actually needs the
// control plane, which surfaces in the health probe.
func (g *Gateway) Configured() bool { return g.client != nil }

func (g *Gateway) Name() string {
	if g.client == nil {
		return "none"
	}
	return g.client.Name()
}

// Answer performs the control-plane answer and, when the agent's telephony
// identity is known, the transfer-to-agent handoff. The returned connection
// id is valid whenever the answer leg succeeded, even if the transfer leg
// then failed; callers must persist it for reconciliation either way.
func (g *Gateway) Answer(ctx context.Context, call calls.Call, agentIdentity string) (string, error) {
	if g.client == nil {
		return "", errors.New("telephony: gateway not configured")
	}
	if call.ExternalIncomingContext == "" {
		return "", errors.New("telephony: call has no incoming context")
	}

	connectionID, err := g.client.Answer(ctx, call.ExternalIncomingContext, g.callbackURL)
	if err != nil {
		return "", fmt.Errorf("telephony: answer: %w", err)
	}

	if agentIdentity == "" {
		return connectionID, nil
	}

	if err := g.client.Transfer(ctx, connectionID, agentIdentity); err != nil {
		// Connected at the control plane, assigned to nobody. Known gap:
		// operators reconcile using these ids.
		g.log.Error("transfer failed after answer",
			"call_id", call.ID,
			"connection_id", connectionID,
			"agent_identity", agentIdentity,
			"err", err,
		)
		return connectionID, ErrTransferFailed
	}
	return connectionID, nil
}

// Hangup ends the external leg of a call.
//
// Idempotence rules:
//   - No connection id: the call never progressed past a handoff to the
//     agent's own telephony session, which is authoritative for ending it.
//     Nothing for the gateway to do; success.
//   - Connection already gone at the control plane: success, because the
//     asynchronous disconnect event may have raced our request.
func (g *Gateway) Hangup(ctx context.Context, call calls.Call) error {
	if call.ExternalConnectionID == "" {
		return nil
	}
	if g.client == nil {
		return errors.New("telephony: gateway not configured")
	}

	err := g.client.Hangup(ctx, call.ExternalConnectionID, true)
	if err == nil || errors.Is(err, ErrConnectionNotFound) {
		return nil
	}
	g.log.Error("hangup failed",
		"call_id", call.ID,
		"connection_id", call.ExternalConnectionID,
		"err", err,
	)
	return fmt.Errorf("telephony: hangup: %w", err)
}
