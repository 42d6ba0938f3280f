// Package state is the core API for the blockchain and implements the rules
// for keeping the local chain in agreement with the network: pulling longer
// chains, mining new blocks, accepting proposed blocks and broadcasting them.
package state

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/roleledger/node/foundation/blockchain/contract"
	"github.com/roleledger/node/foundation/blockchain/database"
	"github.com/roleledger/node/foundation/blockchain/metrics"
	"github.com/roleledger/node/foundation/blockchain/peer"
)

// EventHandler defines a function that is called when events
// occur in the processing of the chain.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for background mining, broadcasting and syncing.
type Worker interface {
	Shutdown()
	SignalMining(args MineArgs)
	SignalBroadcast(block database.Block)
	SignalSync()
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Host             string
	Role             string
	Label            string
	BootstrapAddress string
	Difficulty       uint
	Registry         *peer.Registry
	Store            contract.Store
	PeerTimeout      time.Duration
	BroadcastTimeout time.Duration
	Client           *http.Client
	EvHandler        EventHandler
}

// State manages the blockchain database.
type State struct {
	mu sync.Mutex

	role             string
	bootstrapAddress string
	peerTimeout      time.Duration
	broadcastTimeout time.Duration
	client           *http.Client
	evHandler        EventHandler

	db       *database.Database
	engine   *contract.Engine
	registry *peer.Registry
	metrics  *metrics.Metrics

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	registry := cfg.Registry
	if registry == nil {
		registry = peer.NewRegistry()
	}

	if err := registry.RegisterSelf(cfg.Host, cfg.Role, cfg.Label); err != nil {
		return nil, fmt.Errorf("register self %q: %w", cfg.Host, err)
	}

	var bootstrap string
	if cfg.BootstrapAddress != "" {
		addr, err := peer.Normalize(cfg.BootstrapAddress)
		if err != nil {
			return nil, fmt.Errorf("bootstrap address %q: %w", cfg.BootstrapAddress, err)
		}
		bootstrap = addr
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}

	peerTimeout := cfg.PeerTimeout
	if peerTimeout == 0 {
		peerTimeout = 3 * time.Second
	}

	broadcastTimeout := cfg.BroadcastTimeout
	if broadcastTimeout == 0 {
		broadcastTimeout = 2 * time.Second
	}

	// The contract engine derives the world state from every block the
	// database appends.
	engine := contract.New(contract.Config{
		Role:      cfg.Role,
		Store:     cfg.Store,
		EvHandler: contract.EventHandler(ev),
	})

	db := database.New(database.Config{
		Difficulty: cfg.Difficulty,
		Applier:    engine,
		EvHandler:  database.EventHandler(ev),
	})

	state := State{
		role:             cfg.Role,
		bootstrapAddress: bootstrap,
		peerTimeout:      peerTimeout,
		broadcastTimeout: broadcastTimeout,
		client:           client,
		evHandler:        ev,

		db:       db,
		engine:   engine,
		registry: registry,
		metrics:  metrics.New(),
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	if s.Worker != nil {
		s.Worker.Shutdown()
	}
	return nil
}

// SubmitTransaction admits the transaction into the pending pool and returns
// the index of the block that will likely hold it.
func (s *State) SubmitTransaction(tx database.Tx) uint64 {
	s.evHandler("state: SubmitTransaction: tx[%s]", tx)
	return s.db.SubmitTransaction(tx)
}

// RegisterPeers merges the addresses into the registry with the declared role
// and returns this node followed by every known peer. When isLocal is set the
// address is recorded as the identity of this node instead.
func (s *State) RegisterPeers(addresses []string, role string, isLocal bool) ([]peer.Peer, error) {
	for _, address := range addresses {
		if isLocal {
			if role == "" {
				role = s.role
			}
			if err := s.registry.RegisterSelf(address, role, s.registry.Self().Label); err != nil {
				return nil, err
			}
			continue
		}

		addr, added, err := s.registry.RegisterPeer(address)
		if err != nil {
			return nil, err
		}

		if role != "" && addr != s.RetrieveHost() {
			s.registry.SetRole(addr, role)
		}

		if added {
			s.evHandler("state: RegisterPeers: added peer[%s]: role[%s]", addr, s.registry.Role(addr))
		}
	}

	return s.registry.PeersWithSelf(), nil
}

// MergePeers merges a peer list learned from another node into the registry.
func (s *State) MergePeers(peers []peer.Peer) int {
	return s.registry.Merge(peers)
}

// RemoveKnownPeer removes the peer from every registry set.
func (s *State) RemoveKnownPeer(address string) {
	s.registry.Remove(address)
}
