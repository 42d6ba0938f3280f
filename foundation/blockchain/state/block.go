package state

import (
	"errors"
	"fmt"

	"github.com/roleledger/node/foundation/blockchain/database"
)

// Set of errors returned when a proposed block is not accepted.
var (
	ErrNeedsSync    = errors.New("block is ahead of the local chain, sync required")
	ErrInvalidBlock = errors.New("block does not link to the local chain")
)

// Outcome represents the result of processing a proposed block.
type Outcome int

// Set of outcomes for a proposed block.
const (
	OutcomeAccepted Outcome = iota + 1
	OutcomeAlreadyKnown
	OutcomeNeedsSync
	OutcomeInvalid
)

// String implements the fmt.Stringer interface.
func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeAlreadyKnown:
		return "already_known"
	case OutcomeNeedsSync:
		return "needs_sync"
	case OutcomeInvalid:
		return "invalid"
	}
	return "unknown"
}

// =============================================================================

// ProcessProposedBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain. An accepted block
// is broadcast onward and a block from the future signals a sync.
func (s *State) ProcessProposedBlock(block database.Block) (Outcome, error) {
	s.evHandler("state: ProcessProposedBlock: started: blk[%d]: minedBy[%s]: numTrans[%d]", block.Index, block.MinedBy, len(block.Transactions))

	outcome, err := s.processProposedBlock(block)

	s.evHandler("state: ProcessProposedBlock: completed: blk[%d]: outcome[%s]", block.Index, outcome)

	switch outcome {
	case OutcomeAccepted:
		if s.Worker != nil {
			s.Worker.SignalBroadcast(block)
		}

	case OutcomeNeedsSync:
		if s.Worker != nil {
			s.Worker.SignalSync()
		}
	}

	return outcome, err
}

func (s *State) processProposedBlock(block database.Block) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tip := s.db.LatestBlock()

	switch {
	case block.Index == tip.Index+1:
		if err := s.db.Append(block); err != nil {
			return OutcomeInvalid, fmt.Errorf("%w: %w", ErrInvalidBlock, err)
		}
		return OutcomeAccepted, nil

	case block.Index > tip.Index+1:
		return OutcomeNeedsSync, fmt.Errorf("%w: blk[%d] tip[%d]", ErrNeedsSync, block.Index, tip.Index)

	default:
		return OutcomeAlreadyKnown, nil
	}
}
