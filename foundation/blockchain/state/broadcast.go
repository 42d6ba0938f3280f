package state

import (
	"context"
	"errors"
	"net"

	"github.com/roleledger/node/foundation/blockchain/database"
	"github.com/roleledger/node/foundation/blockchain/peer"
)

// PeerStatus represents the result of a call made to a single peer.
type PeerStatus string

// Set of peer call results.
const (
	PeerSuccess PeerStatus = "success"
	PeerTimeout PeerStatus = "timeout"
	PeerError   PeerStatus = "error"
)

// PeerResult is the result of proposing a block to one peer.
type PeerResult struct {
	Peer   string     `json:"peer"`
	Status PeerStatus `json:"status"`
	Code   int        `json:"code,omitempty"`
	Err    error      `json:"-"`
}

// BroadcastResult is the set of results for a broadcast in send order.
type BroadcastResult []PeerResult

// Count returns the number of results with the status.
func (br BroadcastResult) Count(status PeerStatus) int {
	var n int
	for _, pr := range br {
		if pr.Status == status {
			n++
		}
	}
	return n
}

// =============================================================================

// Broadcast proposes the block to the peers in priority order. A failing
// peer never stops the broadcast.
func (s *State) Broadcast(ctx context.Context, block database.Block) BroadcastResult {
	targets := s.BroadcastTargets()

	s.evHandler("state: Broadcast: started: blk[%d]: peers[%d]", block.Index, len(targets))

	result := make(BroadcastResult, 0, len(targets))
	for _, address := range targets {
		err := s.NetSendBlock(ctx, address, block)
		result = append(result, newPeerResult(address, err))
	}

	s.evHandler("state: Broadcast: completed: blk[%d]: success[%d]: timeout[%d]: error[%d]",
		block.Index, result.Count(PeerSuccess), result.Count(PeerTimeout), result.Count(PeerError))

	for _, pr := range result {
		if pr.Status != PeerSuccess {
			s.evHandler("state: Broadcast: peer[%s]: %s: %s", pr.Peer, pr.Status, pr.Err)
		}
	}

	return result
}

// BroadcastTargets returns the peers a block is proposed to in send order. A
// master only replicates to other masters. Every other role sends to the
// masters first, then the providers, then everyone else.
func (s *State) BroadcastTargets() []string {
	if s.role == peer.RoleMaster {
		return s.registry.MasterPeers()
	}

	var masters, providers, rest []string
	for _, p := range s.registry.Peers() {
		switch p.Role {
		case peer.RoleMaster:
			masters = append(masters, p.Address)
		case peer.RoleProvider:
			providers = append(providers, p.Address)
		default:
			rest = append(rest, p.Address)
		}
	}

	targets := make([]string, 0, len(masters)+len(providers)+len(rest))
	targets = append(targets, masters...)
	targets = append(targets, providers...)
	targets = append(targets, rest...)

	return targets
}

// newPeerResult classifies the error of a peer call.
func newPeerResult(address string, err error) PeerResult {
	if err == nil {
		return PeerResult{Peer: address, Status: PeerSuccess}
	}

	pr := PeerResult{Peer: address, Status: PeerError, Code: StatusCode(err), Err: err}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		pr.Status = PeerTimeout
	}

	return pr
}
