package telephony

import (
	"context"
	"errors"
)

// CallClient is the provider-agnostic control-plane contract used by the
// gateway. Each operation is a single network call against the telephony
// control plane; failures are returned, never absorbed.
//
// Rules:
// - No provider HTTP calls outside this package.
// - Keep request/response vocabulary provider-agnostic.
type CallClient interface {
	Name() string

	// Answer accepts a not-yet-answered inbound call. incomingContext is
	// the opaque token delivered with the incoming-call event; callbackURI
	// is where the control plane posts subsequent call events. Returns the
	// connection id identifying the live leg.
	Answer(ctx context.Context, incomingContext, callbackURI string) (string, error)

	// Transfer hands the live leg over to the target's own telephony
	// identity.
	Transfer(ctx context.Context, connectionID, targetIdentity string) error

	// Hangup ends the live leg. forEveryone terminates the whole call
	// rather than just leaving it.
	Hangup(ctx context.Context, connectionID string, forEveryone bool) error
}

// ErrConnectionNotFound is returned when the control plane no longer knows
// the connection id. Callers treat it as already-ended, not as a failure:
// asynchronous disconnect events race with explicit hangups.
var ErrConnectionNotFound = errors.New("telephony: connection not found")
