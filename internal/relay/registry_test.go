package relay

import (
	"sync"
	"testing"
)

// capturePeer records every payload it receives.
type capturePeer struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (p *capturePeer) Send(payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *capturePeer) received() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.payloads))
	copy(out, p.payloads)
	return out
}

func TestSendReachesRegisteredPeer(t *testing.T) {
	r := NewRegistry()
	peer := &capturePeer{}
	r.Register("alice", peer)

	if !r.Send("alice", []byte("hello")) {
		t.Fatal("send to registered identity should succeed")
	}
	if got := peer.received(); len(got) != 1 || string(got[0]) != "hello" {
		t.Fatalf("unexpected payloads: %v", got)
	}
}

func TestSendToUnknownIdentityDrops(t *testing.T) {
	r := NewRegistry()
	if r.Send("nobody", []byte("hello")) {
		t.Fatal("send to unknown identity should report not connected")
	}
}

func TestRegisterDisplacesPreviousConnection(t *testing.T) {
	r := NewRegistry()
	first := &capturePeer{}
	second := &capturePeer{}

	r.Register("alice", first)
	r.Register("alice", second)

	if !r.Send("alice", []byte("hi")) {
		t.Fatal("send should succeed")
	}
	if len(first.received()) != 0 {
		t.Fatal("displaced connection must not receive anything")
	}
	if len(second.received()) != 1 {
		t.Fatal("newest connection should receive the payload")
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 live connection, got %d", r.Len())
	}
}

func TestUnregisterIsOwnershipGuarded(t *testing.T) {
	r := NewRegistry()
	stale := &capturePeer{}
	current := &capturePeer{}

	r.Register("alice", stale)
	r.Register("alice", current)

	// The stale connection's teardown must not evict the newer one.
	r.Unregister("alice", stale)

	if !r.Send("alice", []byte("still here")) {
		t.Fatal("newer connection should still be reachable")
	}
	if len(current.received()) != 1 {
		t.Fatal("newer connection should receive the payload")
	}

	// The owner's own unregister does remove the mapping, and doing it twice
	// is harmless.
	r.Unregister("alice", current)
	r.Unregister("alice", current)
	if r.Send("alice", []byte("gone")) {
		t.Fatal("send after unregister should report not connected")
	}
	if r.IsOnline("alice") {
		t.Fatal("identity should read offline after unregister")
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			peer := &capturePeer{}
			r.Register("bob", peer)
			r.Send("bob", []byte("x"))
			r.Unregister("bob", peer)
		}()
	}
	wg.Wait()
}
