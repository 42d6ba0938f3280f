package worker

import (
	"context"
)

// gossipOperations handles exchanging peer lists on every tick.
func (w *Worker) gossipOperations() {
	w.evHandler("worker: gossipOperations: G started")
	defer w.evHandler("worker: gossipOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runGossipOperation(context.Background())
			}
		case <-w.shut:
			w.evHandler("worker: gossipOperations: received shut signal")
			return
		}
	}
}

// runGossipOperation asks every known peer for its peer list and merges the
// answers. A peer that fails evictThreshold times in a row is removed from
// the registry and the node registers with the bootstrap again.
func (w *Worker) runGossipOperation(ctx context.Context) {
	w.evHandler("worker: runGossipOperation: started")
	defer w.evHandler("worker: runGossipOperation: completed")

	peers := w.state.RetrieveKnownPeers()
	if len(peers) == 0 {
		w.evHandler("worker: runGossipOperation: no known peers")
		w.registerWithBootstrap(ctx)
		return
	}

	for _, address := range peers {
		list, err := w.state.NetRequestPeers(ctx, address)
		if err != nil {
			w.failures[address]++
			w.evHandler("worker: runGossipOperation: peer[%s]: failures[%d]: ERROR: %s", address, w.failures[address], err)

			if w.failures[address] >= w.evictThreshold {
				w.evHandler("worker: runGossipOperation: peer[%s]: evicted", address)
				w.state.RemoveKnownPeer(address)
				delete(w.failures, address)
				w.registerWithBootstrap(ctx)
			}
			continue
		}

		delete(w.failures, address)

		if added := w.state.MergePeers(list); added > 0 {
			w.evHandler("worker: runGossipOperation: peer[%s]: added peers[%d]", address, added)
		}
	}
}

// registerWithBootstrap registers this node with the bootstrap peer unless
// this node is the bootstrap.
func (w *Worker) registerWithBootstrap(ctx context.Context) {
	bootstrap := w.state.RetrieveBootstrapAddress()
	if bootstrap == "" || bootstrap == w.state.RetrieveHost() {
		return
	}

	if _, err := w.state.NetRegisterWith(ctx, bootstrap); err != nil {
		w.evHandler("worker: registerWithBootstrap: bootstrap[%s]: ERROR: %s", bootstrap, err)
	}
}
