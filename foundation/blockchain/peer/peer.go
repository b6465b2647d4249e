// Package peer maintains the ordered registry of known peer nodes.
package peer

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
)

// ErrMissingScheme is returned when a peer address is registered without
// an explicit scheme.
var ErrMissingScheme = errors.New("peer address must carry a scheme")

// Peer represents information about a node in the network.
type Peer struct {
	Host string
}

// New parses the specified address and constructs a peer with the
// normalized scheme://host[:port]/path form.
func New(address string) (Peer, error) {
	u, err := url.Parse(address)
	if err != nil {
		return Peer{}, fmt.Errorf("parsing peer address: %w", err)
	}

	if u.Scheme == "" {
		return Peer{}, ErrMissingScheme
	}

	return Peer{Host: fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, u.Path)}, nil
}

// Match validates if the specified host matches this peer.
func (p Peer) Match(host string) bool {
	return p.Host == host
}

// =============================================================================

// Registry represents the set of known peers in registration order.
// Peers are never pruned here, liveness is the transport's concern. The
// explicit ordering makes every scan over the set deterministic, which
// in turn makes conflict-resolution tie-breaks testable.
type Registry struct {
	mu   sync.RWMutex
	list []Peer
	set  map[Peer]struct{}
}

// NewRegistry constructs a new registry to manage node peer information.
func NewRegistry() *Registry {
	return &Registry{
		set: make(map[Peer]struct{}),
	}
}

// Add adds the peer to the registry if not already known and reports
// whether it was added.
func (r *Registry) Add(p Peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.set[p]; exists {
		return false
	}

	r.set[p] = struct{}{}
	r.list = append(r.list, p)
	return true
}

// Count returns the number of registered peers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.list)
}

// Copy returns the registered peers in registration order, excluding any
// peer matching the specified host.
func (r *Registry) Copy(host string) []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var peers []Peer
	for _, p := range r.list {
		if !p.Match(host) {
			peers = append(peers, p)
		}
	}

	return peers
}
