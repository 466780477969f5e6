package relay

import "sync"

// Peer is the outbound half of a live connection. Send must not block on the
// transport; implementations hand the payload to a buffered writer.
type Peer interface {
	Send(payload []byte) error
}

// Registry maps each identity to its single live connection. At most one peer
// is addressable per identity at any instant; registering again for the same
// identity silently displaces the previous mapping, but the displaced
// transport is left to die on its own read error.
type Registry struct {
	mu    sync.RWMutex
	peers map[string]Peer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{peers: make(map[string]Peer)}
}

// Register installs peer as the sole reachable channel for identity.
func (r *Registry) Register(identity string, peer Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers[identity] = peer
}

// Unregister removes the mapping for identity, but only if it still points at
// the caller's own peer. A stale connection's teardown must not evict a newer
// connection that took over the identity. Idempotent.
func (r *Registry) Unregister(identity string, peer Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.peers[identity]; ok && current == peer {
		delete(r.peers, identity)
	}
}

// Send writes payload to the identity's live connection. Returns false when no
// connection is registered; the payload is dropped, never buffered.
func (r *Registry) Send(identity string, payload []byte) bool {
	r.mu.RLock()
	peer, ok := r.peers[identity]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	// The write happens outside the lock; Peer.Send only enqueues.
	return peer.Send(payload) == nil
}

// IsOnline reports whether identity currently has a live connection.
func (r *Registry) IsOnline(identity string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.peers[identity]
	return ok
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}
