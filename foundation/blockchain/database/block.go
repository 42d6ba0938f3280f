package database

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Set of errors returned when a block or chain does not link correctly.
var (
	ErrEmptyChain   = errors.New("chain has no blocks")
	ErrInvalidIndex = errors.New("block index is not the next index")
	ErrInvalidLink  = errors.New("previous hash does not match parent block")
	ErrInvalidProof = errors.New("proof does not solve the parent proof")
)

// Genesis values shared by every node so independently started
// nodes agree on the root of the chain.
const (
	GenesisPreviousHash = "1"
	GenesisProof        = 100
	GenesisMinedBy      = "Genesis"
)

// =============================================================================

// Block represents a group of transactions batched together.
type Block struct {
	Index        uint64  `json:"index"`         // Position in the chain, genesis is 1.
	Timestamp    float64 `json:"timestamp"`     // Epoch seconds the block was sealed.
	Transactions []Tx    `json:"transactions"`  // Transactions sealed in this block.
	Proof        uint64  `json:"proof"`         // Value that solves the parent's proof.
	PreviousHash string  `json:"previous_hash"` // Hash of the parent block.
	MinedBy      string  `json:"mined_by"`      // Identity of the node that sealed the block.
}

// NewGenesis constructs the synthetic first block of every chain.
func NewGenesis() Block {
	return Block{
		Index:        1,
		Transactions: []Tx{},
		Proof:        GenesisProof,
		PreviousHash: GenesisPreviousHash,
		MinedBy:      GenesisMinedBy,
	}
}

// Hash returns the unique hash for the Block.
func (b Block) Hash() string {
	return Hash(b.canonical())
}

// ValidateNext checks the block can be linked directly after the
// specified parent block.
func (b Block) ValidateNext(parent Block, difficulty uint) error {
	if b.Index != parent.Index+1 {
		return fmt.Errorf("%w: got %d, exp %d", ErrInvalidIndex, b.Index, parent.Index+1)
	}

	if b.PreviousHash != parent.Hash() {
		return fmt.Errorf("%w: got %s, exp %s", ErrInvalidLink, b.PreviousHash, parent.Hash())
	}

	if !IsValidProof(difficulty, parent.Proof, b.Proof) {
		return fmt.Errorf("%w: parent proof %d, proof %d", ErrInvalidProof, parent.Proof, b.Proof)
	}

	return nil
}

// canonical returns a copy of the block where an empty transaction list is
// represented the same way regardless of how the block was constructed.
func (b Block) canonical() Block {
	if b.Transactions == nil {
		b.Transactions = []Tx{}
	}
	return b
}

// =============================================================================

// Hash returns the hex encoded sha256 digest of the JSON form of the value.
// Struct fields marshal in declaration order and map keys marshal sorted,
// so the digest does not depend on how the value was assembled.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ""
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// ValidateChain walks the chain from the first block verifying every block
// links to its predecessor.
func ValidateChain(difficulty uint, chain []Block) error {
	if len(chain) == 0 {
		return ErrEmptyChain
	}

	for i := 1; i < len(chain); i++ {
		if err := chain[i].ValidateNext(chain[i-1], difficulty); err != nil {
			return fmt.Errorf("block[%d]: %w", chain[i].Index, err)
		}
	}

	return nil
}

// now returns the current time as epoch seconds.
func now() float64 {
	return float64(time.Now().UTC().UnixNano()) / float64(time.Second)
}
