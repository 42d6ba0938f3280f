// Package peer maintains the peer related information such as the set
// of known peers, their declared roles and the identity of this node.
package peer

import (
	"errors"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// Set of roles a node can declare.
const (
	RoleMaster       = "master"
	RoleProvider     = "provider"
	RoleRequester    = "requester"
	RoleIntermediary = "intermediary"
	RoleUserContract = "user_contract"
	RoleUnknown      = "unknown"
)

// ErrInvalidAddress is returned when an address has no host:port.
var ErrInvalidAddress = errors.New("invalid peer address")

// Peer represents information about a Node in the network.
type Peer struct {
	Address string `json:"address"`
	Role    string `json:"role"`
	Label   string `json:"label,omitempty"`
}

// IsMaster reports whether the peer declared the master role.
func (p Peer) IsMaster() bool {
	return p.Role == RoleMaster
}

// Normalize extracts the host:port from a bare address or a URL.
func Normalize(address string) (string, error) {
	address = strings.TrimSpace(address)

	raw := address
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", ErrInvalidAddress
	}

	return u.Host, nil
}

// =============================================================================

// Registry represents the data representation to maintain the set of known
// peers keyed by their normalized address.
type Registry struct {
	mu      sync.RWMutex
	self    string
	known   map[string]struct{}
	roles   map[string]string
	labels  map[string]string
	masters map[string]struct{}
}

// NewRegistry constructs a new registry to manage node peer information.
func NewRegistry() *Registry {
	return &Registry{
		known:   make(map[string]struct{}),
		roles:   make(map[string]string),
		labels:  make(map[string]string),
		masters: make(map[string]struct{}),
	}
}

// RegisterSelf records the identity of this node along with its role and
// display label.
func (r *Registry) RegisterSelf(address string, role string, label string) error {
	addr, err := Normalize(address)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.self = addr
	delete(r.known, addr)
	delete(r.masters, addr)
	r.roles[addr] = role
	if label != "" {
		r.labels[addr] = label
	}

	return nil
}

// Self returns the identity of this node.
func (r *Registry) Self() Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.peer(r.self)
}

// RegisterPeer adds the peer to the known set. It returns the normalized
// address and whether the peer was new. The local identity is never added.
func (r *Registry) RegisterPeer(address string) (string, bool, error) {
	addr, err := Normalize(address)
	if err != nil {
		return "", false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if addr == r.self {
		return addr, false, nil
	}

	if _, exists := r.known[addr]; exists {
		return addr, false, nil
	}

	r.known[addr] = struct{}{}
	if r.roles[addr] == RoleMaster {
		r.masters[addr] = struct{}{}
	}

	return addr, true, nil
}

// SetRole records the role declared by the peer, overwriting any previous
// role, and maintains the master set.
func (r *Registry) SetRole(address string, role string) error {
	addr, err := Normalize(address)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.roles[addr] = role

	switch {
	case role == RoleMaster && addr != r.self:
		r.masters[addr] = struct{}{}
	default:
		delete(r.masters, addr)
	}

	return nil
}

// SetLabel records a display only label for the peer.
func (r *Registry) SetLabel(address string, label string) error {
	addr, err := Normalize(address)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.labels[addr] = label
	return nil
}

// Merge registers every peer and records its role when one was declared.
// It returns the number of peers that were new.
func (r *Registry) Merge(peers []Peer) int {
	var added int
	for _, p := range peers {
		addr, isNew, err := r.RegisterPeer(p.Address)
		if err != nil {
			continue
		}

		if isNew {
			added++
		}

		if p.Role != "" && addr != r.Self().Address {
			r.SetRole(addr, p.Role)
		}

		if p.Label != "" {
			r.SetLabel(addr, p.Label)
		}
	}

	return added
}

// Remove removes the peer from every set.
func (r *Registry) Remove(address string) {
	addr, err := Normalize(address)
	if err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if addr == r.self {
		return
	}

	delete(r.known, addr)
	delete(r.roles, addr)
	delete(r.labels, addr)
	delete(r.masters, addr)
}

// =============================================================================

// Role returns the declared role of the peer or unknown.
func (r *Registry) Role(address string) string {
	addr, err := Normalize(address)
	if err != nil {
		return RoleUnknown
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.role(addr)
}

// IsKnown reports whether the peer is in the known set.
func (r *Registry) IsKnown(address string) bool {
	addr, err := Normalize(address)
	if err != nil {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.known[addr]
	return exists
}

// KnownPeers returns the addresses of every known peer excluding this node.
func (r *Registry) KnownPeers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return sorted(r.known, r.self)
}

// MasterPeers returns the addresses of every known master excluding this node.
func (r *Registry) MasterPeers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return sorted(r.masters, r.self)
}

// Peers returns the known peers with their roles excluding this node.
func (r *Registry) Peers() []Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	addrs := sorted(r.known, r.self)

	peers := make([]Peer, len(addrs))
	for i, addr := range addrs {
		peers[i] = r.peer(addr)
	}

	return peers
}

// PeersWithSelf returns this node followed by the known peers.
func (r *Registry) PeersWithSelf() []Peer {
	peers := r.Peers()

	self := r.Self()
	if self.Address == "" {
		return peers
	}

	return append([]Peer{self}, peers...)
}

// peer assembles the peer for the address. The caller must hold a lock.
func (r *Registry) peer(addr string) Peer {
	return Peer{
		Address: addr,
		Role:    r.role(addr),
		Label:   r.labels[addr],
	}
}

// role returns the role for the address. The caller must hold a lock.
func (r *Registry) role(addr string) string {
	role, exists := r.roles[addr]
	if !exists || role == "" {
		return RoleUnknown
	}
	return role
}

// sorted returns the keys of the set in order excluding the specified key.
func sorted(set map[string]struct{}, exclude string) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		if key != exclude {
			keys = append(keys, key)
		}
	}

	sort.Strings(keys)
	return keys
}
