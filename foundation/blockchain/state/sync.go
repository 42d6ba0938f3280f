package state

import (
	"context"
	"fmt"

	"github.com/roleledger/node/foundation/blockchain/database"
)

// SyncResult describes the outcome of a pull sync.
type SyncResult struct {
	Replaced bool   `json:"replaced"`
	Length   uint64 `json:"length"`
	Peer     string `json:"peer,omitempty"`
}

// Sync compares the local chain against the master peers, or every known
// peer when there are no masters, and adopts the longest valid chain that is
// strictly longer than the local chain. Unreachable peers are skipped.
func (s *State) Sync(ctx context.Context) (SyncResult, error) {
	s.evHandler("state: Sync: started")
	defer s.evHandler("state: Sync: completed")

	candidates := s.registry.MasterPeers()
	if len(candidates) == 0 {
		candidates = s.registry.KnownPeers()
	}

	local := s.db.Summary()

	var best []database.Block
	var bestPeer string
	bestLength := local.Length

	for _, address := range candidates {
		if ctx.Err() != nil {
			return SyncResult{}, ctx.Err()
		}

		// A summary is enough to rule out a peer without pulling its chain.
		sum, err := s.NetRequestChainSummary(ctx, address)
		if err != nil {
			s.evHandler("state: Sync: peer[%s]: summary: WARNING: %s", address, err)
			continue
		}

		if sum.Length <= bestLength {
			continue
		}

		if sum.LastHash != nil && local.LastHash != nil && *sum.LastHash == *local.LastHash {
			continue
		}

		doc, err := s.NetRequestChain(ctx, address)
		if err != nil {
			s.evHandler("state: Sync: peer[%s]: chain: WARNING: %s", address, err)
			continue
		}

		if uint64(len(doc.Chain)) <= bestLength {
			continue
		}

		if err := database.ValidateChain(s.db.Difficulty(), doc.Chain); err != nil {
			s.evHandler("state: Sync: peer[%s]: invalid chain: %s", address, err)
			continue
		}

		best = doc.Chain
		bestPeer = address
		bestLength = uint64(len(doc.Chain))
	}

	if best == nil {
		return SyncResult{Length: local.Length}, nil
	}

	replaced, err := s.AdoptChain(best)
	if err != nil {
		return SyncResult{}, err
	}

	return SyncResult{Replaced: replaced, Length: s.db.Length(), Peer: bestPeer}, nil
}

// AdoptChain replaces the local chain with the specified chain when it is
// valid and strictly longer than the local chain. Contract state is rebuilt
// from the adopted chain.
func (s *State) AdoptChain(chain []database.Block) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The local chain may have grown while the network was being queried.
	if uint64(len(chain)) <= s.db.Length() {
		return false, nil
	}

	if err := s.db.Replace(chain); err != nil {
		return false, fmt.Errorf("adopt chain: %w", err)
	}

	s.evHandler("state: AdoptChain: replaced: length[%d]", len(chain))

	return true, nil
}
