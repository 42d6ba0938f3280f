package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/roleledger/node/foundation/blockchain/database"
	"github.com/roleledger/node/foundation/blockchain/peer"
	"github.com/roleledger/node/foundation/blockchain/state"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_GossipEviction(t *testing.T) {
	t.Log("Given the need to evict peers that stay unreachable.")
	{
		var registrations atomic.Int32

		bootstrap := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/v1/node/peers/register" {
				registrations.Add(1)
			}
			json.NewEncoder(w).Encode(state.PeersDocument{Peers: []peer.Peer{}})
		}))
		defer bootstrap.Close()

		down := httptest.NewServer(http.NotFoundHandler())
		downAddr := down.Listener.Addr().String()
		down.Close()

		const threshold = 3

		reg := peer.NewRegistry()
		st, err := state.New(state.Config{
			Registry:         reg,
			Host:             "node:5003",
			Role:             peer.RoleProvider,
			BootstrapAddress: bootstrap.Listener.Addr().String(),
			Difficulty:       1,
		})
		if err != nil {
			t.Fatalf("unable to construct state: %v", err)
		}
		st.RegisterPeers([]string{downAddr}, peer.RoleMaster, false)

		w := newWorker(Config{State: st, EvictThreshold: threshold})
		defer w.ticker.Stop()

		const testID = 0
		t.Logf("\tTest %d:\tWhen a peer fails %d times in a row.", testID, threshold)
		{
			for i := 1; i < threshold; i++ {
				w.runGossipOperation(context.Background())
			}

			if !isKnown(st, downAddr) {
				t.Fatalf("\t%s\tTest %d:\tShould keep the peer after %d failures.", failed, testID, threshold-1)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the peer after %d failures.", success, testID, threshold-1)

			w.runGossipOperation(context.Background())

			if isKnown(st, downAddr) {
				t.Fatalf("\t%s\tTest %d:\tShould evict the peer after %d failures.", failed, testID, threshold)
			}
			t.Logf("\t%s\tTest %d:\tShould evict the peer after %d failures.", success, testID, threshold)

			for _, addr := range st.RetrieveKnownPeers() {
				if addr == downAddr {
					t.Fatalf("\t%s\tTest %d:\tShould remove the peer from the known set.", failed, testID)
				}
			}
			if len(st.RetrievePeers()) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould only know the bootstrap after eviction: %v", failed, testID, st.RetrievePeers())
			}
			if masters := reg.MasterPeers(); len(masters) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould remove the peer from the master set: %v", failed, testID, masters)
			}
			if role := reg.Role(downAddr); role != peer.RoleUnknown {
				t.Fatalf("\t%s\tTest %d:\tShould forget the role of the peer, got %q.", failed, testID, role)
			}
			t.Logf("\t%s\tTest %d:\tShould remove the peer from every registry set.", success, testID)

			if registrations.Load() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould register with the bootstrap after eviction, got %d.", failed, testID, registrations.Load())
			}
			t.Logf("\t%s\tTest %d:\tShould register with the bootstrap after eviction.", success, testID)
		}
	}
}

func Test_GossipMerge(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(state.PeersDocument{Peers: []peer.Peer{
			{Address: "node:5003", Role: peer.RoleProvider},
			{Address: "other:5004", Role: peer.RoleMaster},
		}})
	}))
	defer remote.Close()

	st, err := state.New(state.Config{Host: "node:5003", Role: peer.RoleProvider, Difficulty: 1})
	if err != nil {
		t.Fatalf("unable to construct state: %v", err)
	}
	st.RegisterPeers([]string{remote.Listener.Addr().String()}, peer.RoleRequester, false)

	w := newWorker(Config{State: st})
	defer w.ticker.Stop()

	w.runGossipOperation(context.Background())

	if !isKnown(st, "other:5004") {
		t.Fatalf("Should merge the peers returned by the remote: %v", st.RetrievePeers())
	}
	if len(st.RetrievePeers()) != 2 {
		t.Fatalf("Should not add itself from a gossip answer: %v", st.RetrievePeers())
	}
}

func Test_MiningJob(t *testing.T) {
	st, err := state.New(state.Config{Host: "node:5003", Role: peer.RoleRequester, Difficulty: 1})
	if err != nil {
		t.Fatalf("unable to construct state: %v", err)
	}

	w := Run(Config{State: st, JobTimeout: 5 * time.Second})
	defer w.Shutdown()

	w.SignalMining(state.MineArgs{Transactions: []database.Tx{database.NewTx("requester", "all")}})

	deadline := time.Now().Add(5 * time.Second)
	for st.RetrieveSummary().Length < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("Should mine the block in the background.")
		}
		time.Sleep(10 * time.Millisecond)
	}

	block := st.RetrieveLatestBlock()
	if len(block.Transactions) != 1 || block.Transactions[0].Sender != "requester" {
		t.Fatalf("Should seal the provided transactions: %v", block.Transactions)
	}
}

func isKnown(st *state.State, address string) bool {
	for _, addr := range st.RetrieveKnownPeers() {
		if addr == address {
			return true
		}
	}
	return false
}
