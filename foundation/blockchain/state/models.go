package state

import (
	"github.com/roleledger/node/foundation/blockchain/database"
	"github.com/roleledger/node/foundation/blockchain/peer"
)

// ChainDocument is the wire form of a full chain dump.
type ChainDocument struct {
	Chain  []database.Block `json:"chain"`
	Length uint64           `json:"length"`
}

// PeersDocument is the wire form of a registry snapshot.
type PeersDocument struct {
	Message string      `json:"message,omitempty"`
	Peers   []peer.Peer `json:"peers"`
}

// RegisterDocument is the wire form of a registration request.
type RegisterDocument struct {
	Nodes   []string `json:"nodes" validate:"required,min=1"`
	Role    string   `json:"role"`
	IsLocal bool     `json:"is_local"`
}

// BlockDocument is the wire form of a block proposed to a peer.
type BlockDocument struct {
	Block database.Block `json:"block"`
}

// MessageDocument is the wire form of a plain status message.
type MessageDocument struct {
	Message string `json:"message"`
}
