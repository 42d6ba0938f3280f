// Package database handles all the lower level support for maintaining the
// blockchain in memory: the ordered list of blocks, the pool of pending
// transactions and the rules for linking and validating blocks.
package database

import (
	"fmt"
	"sync"
)

// Applier interface represents the behavior required to be implemented by any
// package that derives state from the transactions of appended blocks.
type Applier interface {
	Apply(block Block)
	Reset()
}

// EventHandler defines a function that is called when events
// occur in the processing of blocks.
type EventHandler func(v string, args ...any)

// Summary is a cheap substitute for the full chain when comparing chains.
type Summary struct {
	LastHash *string `json:"last_hash"`
	Length   uint64  `json:"length"`
}

// AppendArgs represents the set of values used to seal a new block.
type AppendArgs struct {
	Proof        uint64
	PreviousHash string // Computed from the tip when empty.
	MinedBy      string
	Transactions []Tx    // Sealed after the pending pool when provided.
	Timestamp    float64 // Set to the current time when zero.
}

// =============================================================================

// Config represents the configuration required to construct a database.
type Config struct {
	Difficulty uint
	Applier    Applier
	EvHandler  EventHandler
}

// Database manages the chain of blocks and the pending transaction pool.
// Callers are expected to serialize the write operations.
type Database struct {
	mu         sync.RWMutex
	difficulty uint
	blocks     []Block
	pending    []Tx
	applier    Applier
	evHandler  EventHandler
}

// New constructs a new database holding only the genesis block.
func New(cfg Config) *Database {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	return &Database{
		difficulty: cfg.Difficulty,
		blocks:     []Block{NewGenesis()},
		applier:    cfg.Applier,
		evHandler:  ev,
	}
}

// Difficulty returns the number of leading zeros a proof digest needs.
func (db *Database) Difficulty() uint {
	return db.difficulty
}

// SubmitTransaction adds the transaction to the pending pool and returns the
// index of the block that will likely hold it.
func (db *Database) SubmitTransaction(tx Tx) uint64 {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.pending = append(db.pending, tx)

	return uint64(len(db.blocks)) + 1
}

// AppendBlock seals the pending pool, along with any provided transactions,
// into a new block, appends it and applies its contracts. The caller is
// responsible for the proof being valid against the current tip.
func (db *Database) AppendBlock(args AppendArgs) Block {
	db.mu.Lock()

	trans := make([]Tx, 0, len(db.pending)+len(args.Transactions))
	trans = append(trans, db.pending...)
	trans = append(trans, args.Transactions...)

	tip := db.blocks[len(db.blocks)-1]

	prevHash := args.PreviousHash
	if prevHash == "" {
		prevHash = tip.Hash()
	}

	timestamp := args.Timestamp
	if timestamp == 0 {
		timestamp = now()
	}

	block := Block{
		Index:        uint64(len(db.blocks)) + 1,
		Timestamp:    timestamp,
		Transactions: trans,
		Proof:        args.Proof,
		PreviousHash: prevHash,
		MinedBy:      args.MinedBy,
	}

	db.pending = nil
	db.blocks = append(db.blocks, block)

	db.mu.Unlock()

	db.evHandler("database: AppendBlock: blk[%d]: hash[%s]: numTrans[%d]", block.Index, block.Hash(), len(block.Transactions))
	db.apply(block)

	return block
}

// Append validates the block links to the current tip and appends it,
// applying its contracts.
func (db *Database) Append(block Block) error {
	db.mu.Lock()

	tip := db.blocks[len(db.blocks)-1]
	if err := block.ValidateNext(tip, db.difficulty); err != nil {
		db.mu.Unlock()
		return err
	}

	db.blocks = append(db.blocks, block)

	db.mu.Unlock()

	db.evHandler("database: Append: blk[%d]: hash[%s]: minedBy[%s]", block.Index, block.Hash(), block.MinedBy)
	db.apply(block)

	return nil
}

// Replace swaps the local chain for the specified chain after validating it.
// Contract state is rebuilt from the new chain.
func (db *Database) Replace(chain []Block) error {
	if err := ValidateChain(db.difficulty, chain); err != nil {
		return fmt.Errorf("replace: %w", err)
	}

	blocks := make([]Block, len(chain))
	copy(blocks, chain)

	db.mu.Lock()
	db.blocks = blocks
	db.mu.Unlock()

	db.evHandler("database: Replace: length[%d]: tip[%s]", len(blocks), blocks[len(blocks)-1].Hash())

	if db.applier != nil {
		db.applier.Reset()
		for _, block := range blocks {
			db.applier.Apply(block)
		}
	}

	return nil
}

// IsValidChain reports whether the chain links correctly from its first block.
func (db *Database) IsValidChain(chain []Block) bool {
	return ValidateChain(db.difficulty, chain) == nil
}

// =============================================================================

// LatestBlock returns the tip of the chain.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.blocks[len(db.blocks)-1]
}

// Length returns the number of blocks in the chain.
func (db *Database) Length() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return uint64(len(db.blocks))
}

// Blocks returns a copy of the chain.
func (db *Database) Blocks() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	blocks := make([]Block, len(db.blocks))
	copy(blocks, db.blocks)
	return blocks
}

// Summary returns the hash of the tip and the length of the chain.
func (db *Database) Summary() Summary {
	db.mu.RLock()
	defer db.mu.RUnlock()

	hash := db.blocks[len(db.blocks)-1].Hash()

	return Summary{
		LastHash: &hash,
		Length:   uint64(len(db.blocks)),
	}
}

// Pending returns a copy of the pending transaction pool.
func (db *Database) Pending() []Tx {
	db.mu.RLock()
	defer db.mu.RUnlock()

	trans := make([]Tx, len(db.pending))
	copy(trans, db.pending)
	return trans
}

// apply hands the block to the applier if one is configured.
func (db *Database) apply(block Block) {
	if db.applier != nil {
		db.applier.Apply(block)
	}
}
