package state

import (
	"context"
	"time"

	"github.com/roleledger/node/foundation/blockchain/database"
	"github.com/roleledger/node/foundation/blockchain/metrics"
)

// MineArgs represents the set of values used to mine a new block.
type MineArgs struct {
	MinedBy      string
	Transactions []database.Tx
}

// MineResult describes a block mined by this node and its propagation.
type MineResult struct {
	Block     database.Block  `json:"block"`
	Length    uint64          `json:"chain_length"`
	Broadcast BroadcastResult `json:"broadcast"`
}

// Mine pulls the longest chain from the network, mines a block holding the
// pending pool and the provided transactions, and broadcasts it.
func (s *State) Mine(ctx context.Context, args MineArgs) (MineResult, error) {
	start := time.Now()

	if _, err := s.Sync(ctx); err != nil {
		s.evHandler("state: Mine: sync: WARNING: %s", err)
	}
	s.metrics.Since(metrics.ChainSynced, start)

	block, err := s.MineNewBlock(ctx, args)
	if err != nil {
		return MineResult{}, err
	}
	s.metrics.Since(metrics.BlockMined, start)

	result := s.Broadcast(ctx, block)
	s.metrics.Since(metrics.BlockPropagation, start)

	return MineResult{
		Block:     block,
		Length:    s.db.Length(),
		Broadcast: result,
	}, nil
}

// MineNewBlock attempts to create a new block with a proof that solves the
// proof of the current tip. The proof search runs without holding the lock,
// so the tip is checked again before the block is appended and the search
// starts over if another block arrived in the meantime.
func (s *State) MineNewBlock(ctx context.Context, args MineArgs) (database.Block, error) {
	if args.MinedBy == "" {
		args.MinedBy = s.RetrieveMinerID()
	}

	for {
		tip := s.db.LatestBlock()

		s.evHandler("state: MineNewBlock: MINING: perform POW: tip[%d]", tip.Index)

		t := time.Now()
		proof, err := database.FindProof(ctx, s.db.Difficulty(), tip.Proof)
		if err != nil {
			return database.Block{}, err
		}

		s.evHandler("state: MineNewBlock: MINING: proof[%d]: duration[%v]", proof, time.Since(t))

		block, ok := s.appendIfTip(tip, proof, args)
		if ok {
			return block, nil
		}

		s.evHandler("state: MineNewBlock: MINING: tip moved, searching again")
	}
}

// appendIfTip appends a block with the proof only when the tip is unchanged.
func (s *State) appendIfTip(tip database.Block, proof uint64, args MineArgs) (database.Block, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db.LatestBlock().Hash() != tip.Hash() {
		return database.Block{}, false
	}

	block := s.db.AppendBlock(database.AppendArgs{
		Proof:        proof,
		MinedBy:      args.MinedBy,
		Transactions: args.Transactions,
	})

	return block, true
}
