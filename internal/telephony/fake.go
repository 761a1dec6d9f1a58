package telephony

import (
	"context"
	"fmt"
	"sync"
)

// FakeClient is a deterministic control-plane double for local development
// and tests. Every state change is an explicit, externally triggered call;
// nothing runs on timers, so tests control timing precisely.
type FakeClient struct {
	mu sync.Mutex

	nextID      int
	connections map[string]bool // connection id -> live

	// Failure switches, checked per operation.
	FailAnswer   error
	FailTransfer error
	FailHangup   error

	// Transcript of operations in order, for assertions.
	Ops []string
}

func NewFakeClient() *FakeClient {
	return &FakeClient{connections: make(map[string]bool)}
}

func (f *FakeClient) Name() string { return "fake" }

func (f *FakeClient) Answer(_ context.Context, incomingContext, callbackURI string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Ops = append(f.Ops, "answer:"+incomingContext)
	if f.FailAnswer != nil {
		return "", f.FailAnswer
	}
	f.nextID++
	id := fmt.Sprintf("conn-%d", f.nextID)
	f.connections[id] = true
	return id, nil
}

func (f *FakeClient) Transfer(_ context.Context, connectionID, targetIdentity string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Ops = append(f.Ops, "transfer:"+connectionID+":"+targetIdentity)
	if f.FailTransfer != nil {
		return f.FailTransfer
	}
	if !f.connections[connectionID] {
		return ErrConnectionNotFound
	}
	return nil
}

func (f *FakeClient) Hangup(_ context.Context, connectionID string, forEveryone bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Ops = append(f.Ops, fmt.Sprintf("hangup:%s:%t", connectionID, forEveryone))
	if f.FailHangup != nil {
		return f.FailHangup
	}
	if !f.connections[connectionID] {
		return ErrConnectionNotFound
	}
	f.connections[connectionID] = false
	return nil
}

// Disconnect simulates the remote side ending a call, so a later Hangup
// sees connection-not-found the way a raced disconnect event would.
func (f *FakeClient) Disconnect(connectionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connections[connectionID] = false
}

// Live reports whether a connection is still up.
func (f *FakeClient) Live(connectionID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connections[connectionID]
}
