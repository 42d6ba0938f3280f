package nodegrp

import (
	"github.com/roleledger/node/foundation/blockchain/database"
	"github.com/roleledger/node/foundation/blockchain/state"
)

// receiveDocument is the payload of a proposed block. Pointer fields let a
// missing field be told apart from a zero value.
type receiveDocument struct {
	Block *proposedBlock `json:"block" validate:"required"`
}

type proposedBlock struct {
	Index        *uint64        `json:"index" validate:"required"`
	Timestamp    *float64       `json:"timestamp" validate:"required"`
	Transactions *[]database.Tx `json:"transactions" validate:"required"`
	Proof        *uint64        `json:"proof" validate:"required"`
	PreviousHash *string        `json:"previous_hash" validate:"required"`
	MinedBy      *string        `json:"mined_by" validate:"required"`
}

// toBlock converts a validated proposed block into a database block.
func (pb proposedBlock) toBlock() database.Block {
	return database.Block{
		Index:        *pb.Index,
		Timestamp:    *pb.Timestamp,
		Transactions: *pb.Transactions,
		Proof:        *pb.Proof,
		PreviousHash: *pb.PreviousHash,
		MinedBy:      *pb.MinedBy,
	}
}

type syncResult struct {
	Message  string `json:"message"`
	Replaced bool   `json:"replaced"`
	Length   uint64 `json:"length"`
	Peer     string `json:"peer,omitempty"`
}

type mineResult struct {
	Message string `json:"message"`
	state.MineResult
}

type status struct {
	Host      string  `json:"host"`
	Role      string  `json:"role"`
	Bootstrap string  `json:"bootstrap"`
	Length    uint64  `json:"length"`
	LastHash  *string `json:"last_hash"`
	Pending   int     `json:"pending"`
	Peers     int     `json:"peers"`
}
