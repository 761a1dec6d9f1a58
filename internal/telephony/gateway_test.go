package telephony

import (
	"context"
	"errors"
	"testing"

	"callcenter-platform/internal/calls"
)

func TestGatewayAnswer_AnswersThenTransfers(t *testing.T) {
	client := NewFakeClient()
	g := NewGateway(client, "https://example.test/events", nil)

	id, err := g.Answer(context.Background(), calls.Call{ID: "c1", ExternalIncomingContext: "ctx"}, "8:acs:alice")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if id == "" {
		t.Fatalf("no connection id")
	}
	want := []string{"answer:ctx", "transfer:" + id + ":8:acs:alice"}
	if len(client.Ops) != 2 || client.Ops[0] != want[0] || client.Ops[1] != want[1] {
		t.Fatalf("ops: %v", client.Ops)
	}
}

func TestGatewayAnswer_NoIdentitySkipsTransfer(t *testing.T) {
	client := NewFakeClient()
	g := NewGateway(client, "https://example.test/events", nil)

	if _, err := g.Answer(context.Background(), calls.Call{ID: "c1", ExternalIncomingContext: "ctx"}, ""); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if len(client.Ops) != 1 {
		t.Fatalf("transfer attempted without identity: %v", client.Ops)
	}
}

func TestGatewayAnswer_TransferFailureReturnsConnectionID(t *testing.T) {
	client := NewFakeClient()
	client.FailTransfer = errors.New("target unreachable")
	g := NewGateway(client, "https://example.test/events", nil)

	id, err := g.Answer(context.Background(), calls.Call{ID: "c1", ExternalIncomingContext: "ctx"}, "8:acs:alice")
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	if id == "" {
		t.Fatalf("connection id lost on transfer failure")
	}
}

func TestGatewayHangup_Idempotence(t *testing.T) {
	client := NewFakeClient()
	g := NewGateway(client, "https://example.test/events", nil)

	// No connection id: nothing external to end.
	if err := g.Hangup(context.Background(), calls.Call{ID: "c1"}); err != nil {
		t.Fatalf("hangup without connection: %v", err)
	}
	if len(client.Ops) != 0 {
		t.Fatalf("gateway touched the client: %v", client.Ops)
	}

	// Connection already gone: the disconnect event raced us.
	if err := g.Hangup(context.Background(), calls.Call{ID: "c1", ExternalConnectionID: "conn-99"}); err != nil {
		t.Fatalf("hangup of dead connection: %v", err)
	}
}

func TestGatewayHangup_RealFailurePropagates(t *testing.T) {
	client := NewFakeClient()
	client.FailHangup = errors.New("control plane down")
	g := NewGateway(client, "https://example.test/events", nil)

	if err := g.Hangup(context.Background(), calls.Call{ID: "c1", ExternalConnectionID: "conn-1"}); err == nil {
		t.Fatalf("expected failure")
	}
}

func TestGateway_Unconfigured(t *testing.T) {
	g := NewGateway(nil, "", nil)
	if g.Configured() {
		t.Fatalf("nil client reported as configured")
	}
	if _, err := g.Answer(context.Background(), calls.Call{ExternalIncomingContext: "ctx"}, ""); err == nil {
		t.Fatalf("expected error from unconfigured gateway")
	}
	// Hangup with no connection id stays a no-op even unconfigured.
	if err := g.Hangup(context.Background(), calls.Call{}); err != nil {
		t.Fatalf("unexpected: %v", err)
	}
}
