package state

import (
	"github.com/roleledger/node/foundation/blockchain/contract"
	"github.com/roleledger/node/foundation/blockchain/database"
	"github.com/roleledger/node/foundation/blockchain/metrics"
	"github.com/roleledger/node/foundation/blockchain/peer"
)

// RetrieveHost returns the address of this node.
func (s *State) RetrieveHost() string {
	return s.registry.Self().Address
}

// RetrieveRole returns the role declared by this node.
func (s *State) RetrieveRole() string {
	return s.role
}

// RetrieveMinerID returns the name this node seals blocks under.
func (s *State) RetrieveMinerID() string {
	return s.role + "_" + s.RetrieveHost()
}

// RetrieveBootstrapAddress returns the well known bootstrap address.
func (s *State) RetrieveBootstrapAddress() string {
	return s.bootstrapAddress
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.db.LatestBlock()
}

// RetrieveChain returns a copy of the chain.
func (s *State) RetrieveChain() []database.Block {
	return s.db.Blocks()
}

// RetrieveSummary returns the tip hash and length of the chain.
func (s *State) RetrieveSummary() database.Summary {
	return s.db.Summary()
}

// RetrievePending returns a copy of the pending transaction pool.
func (s *State) RetrievePending() []database.Tx {
	return s.db.Pending()
}

// RetrieveKnownPeers retrieves the addresses of the known peers.
func (s *State) RetrieveKnownPeers() []string {
	return s.registry.KnownPeers()
}

// RetrievePeers retrieves the known peers with their roles.
func (s *State) RetrievePeers() []peer.Peer {
	return s.registry.Peers()
}

// RetrieveUser returns the on chain account for the id.
func (s *State) RetrieveUser(id int64) (contract.User, bool) {
	return s.engine.User(id)
}

// RetrieveUsers returns every on chain account.
func (s *State) RetrieveUsers() []contract.User {
	return s.engine.Users()
}

// RetrieveMetrics returns the propagation metrics of this node.
func (s *State) RetrieveMetrics() *metrics.Metrics {
	return s.metrics
}
