// Package bootstrap decides on startup whether a node is the first of its
// kind and seeds the network, or joins an existing network by registering
// with it and copying its chain.
package bootstrap

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/roleledger/node/foundation/blockchain/database"
	"github.com/roleledger/node/foundation/blockchain/peer"
	"github.com/roleledger/node/foundation/blockchain/state"
)

// Mode represents how the node entered the network.
type Mode string

// Set of modes a node can start in.
const (
	ModeSeed   Mode = "seed"
	ModeJoined Mode = "joined"
)

// Result describes the outcome of the bootstrap.
type Result struct {
	Mode   Mode
	Source string
	Length uint64
}

// EventHandler defines a function that is called when events
// occur during the bootstrap.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to bootstrap a node.
type Config struct {
	State *state.State

	// Attempts and Interval bound the polling of the bootstrap address.
	Attempts int
	Interval time.Duration

	// MasterService is a DNS name enumerating the master replicas and
	// MasterPort the port they listen on. Lookup results that already
	// carry a port are used as is.
	MasterService string
	MasterPort    string

	LookupHost func(ctx context.Context, host string) ([]string, error)
	LocalAddrs func() ([]string, error)
	EvHandler  EventHandler
}

// Run performs the bootstrap for the node's role.
func Run(ctx context.Context, cfg Config) (Result, error) {
	if cfg.State == nil {
		return Result{}, errors.New("bootstrap: state is required")
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}
	if cfg.LookupHost == nil {
		cfg.LookupHost = net.DefaultResolver.LookupHost
	}
	if cfg.LocalAddrs == nil {
		cfg.LocalAddrs = localAddrs
	}

	b := bootstrapper{cfg: cfg, state: cfg.State, evHandler: ev}

	ev("bootstrap: Run: started: host[%s]: role[%s]: bootstrap[%s]", b.state.RetrieveHost(), b.state.RetrieveRole(), b.state.RetrieveBootstrapAddress())

	var res Result
	var err error
	switch {
	case b.state.RetrieveRole() == peer.RoleMaster && cfg.MasterService != "":
		res, err = b.discoverMasters(ctx)
	default:
		res, err = b.pollBootstrap(ctx)
	}

	if err != nil {
		return Result{}, err
	}

	ev("bootstrap: Run: completed: mode[%s]: source[%s]: length[%d]", res.Mode, res.Source, res.Length)

	return res, nil
}

// =============================================================================

type bootstrapper struct {
	cfg       Config
	state     *state.State
	evHandler EventHandler
}

// pollBootstrap asks the bootstrap address for its chain with bounded
// retries. A reachable bootstrap is registered with and its chain copied.
func (b bootstrapper) pollBootstrap(ctx context.Context) (Result, error) {
	address := b.state.RetrieveBootstrapAddress()

	if address == "" || address == b.state.RetrieveHost() {
		b.evHandler("bootstrap: pollBootstrap: this node is the bootstrap")
		return b.seed(), nil
	}

	for attempt := 1; attempt <= b.cfg.Attempts; attempt++ {
		doc, err := b.state.NetRequestChain(ctx, address)
		if err == nil {
			return b.join(ctx, address, doc.Chain)
		}

		b.evHandler("bootstrap: pollBootstrap: attempt[%d/%d]: bootstrap[%s]: %s", attempt, b.cfg.Attempts, address, err)

		if attempt == b.cfg.Attempts {
			break
		}

		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(b.cfg.Interval):
		}
	}

	b.evHandler("bootstrap: pollBootstrap: bootstrap[%s] never answered, seeding", address)

	return b.seed(), nil
}

// discoverMasters enumerates the sibling master replicas, registers with
// every one that answers and adopts the longest chain among them.
func (b bootstrapper) discoverMasters(ctx context.Context) (Result, error) {
	hosts, err := b.cfg.LookupHost(ctx, b.cfg.MasterService)
	if err != nil {
		b.evHandler("bootstrap: discoverMasters: lookup[%s]: %s", b.cfg.MasterService, err)
		return b.seed(), nil
	}

	local := make(map[string]bool)
	if addrs, err := b.cfg.LocalAddrs(); err == nil {
		for _, addr := range addrs {
			local[addr] = true
		}
	}

	var longest []database.Block
	var source string

	for _, host := range hosts {
		address := host
		if _, _, err := net.SplitHostPort(host); err != nil {
			address = net.JoinHostPort(host, b.cfg.MasterPort)
		}

		ip, _, _ := net.SplitHostPort(address)
		if local[ip] || address == b.state.RetrieveHost() {
			continue
		}

		doc, err := b.state.NetRequestChain(ctx, address)
		if err != nil {
			b.evHandler("bootstrap: discoverMasters: master[%s]: %s", address, err)
			continue
		}

		if _, err := b.state.NetRegisterWith(ctx, address); err != nil {
			b.evHandler("bootstrap: discoverMasters: register[%s]: %s", address, err)
		}

		if len(doc.Chain) > len(longest) {
			longest = doc.Chain
			source = address
		}
	}

	if longest == nil {
		b.evHandler("bootstrap: discoverMasters: no sibling masters found, seeding")
		return b.seed(), nil
	}

	if _, err := b.state.AdoptChain(longest); err != nil {
		b.evHandler("bootstrap: discoverMasters: adopt from[%s]: %s", source, err)
	}

	return Result{Mode: ModeJoined, Source: source, Length: b.state.RetrieveSummary().Length}, nil
}

// join registers with the peer and adopts its chain.
func (b bootstrapper) join(ctx context.Context, address string, chain []database.Block) (Result, error) {
	if _, err := b.state.NetRegisterWith(ctx, address); err != nil {
		b.evHandler("bootstrap: join: register[%s]: %s", address, err)
	}

	if len(chain) > 0 {
		if _, err := b.state.AdoptChain(chain); err != nil {
			b.evHandler("bootstrap: join: adopt from[%s]: %s", address, err)
		}
	}

	return Result{Mode: ModeJoined, Source: address, Length: b.state.RetrieveSummary().Length}, nil
}

// seed reports this node starting from its own genesis chain.
func (b bootstrapper) seed() Result {
	return Result{Mode: ModeSeed, Length: b.state.RetrieveSummary().Length}
}

// localAddrs returns the IP addresses of the local interfaces.
func localAddrs() ([]string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}

	ips := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok {
			ips = append(ips, ipNet.IP.String())
		}
	}

	return ips, nil
}
