package bootstrap_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/roleledger/node/foundation/blockchain/bootstrap"
	"github.com/roleledger/node/foundation/blockchain/peer"
	"github.com/roleledger/node/foundation/blockchain/state"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Bootstrap(t *testing.T) {
	t.Log("Given the need to decide how a node enters the network.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the node is the bootstrap address.", testID)
		{
			st := newState(t, "127.0.0.1:5002", peer.RoleMaster, "127.0.0.1:5002")

			res, err := bootstrap.Run(context.Background(), bootstrap.Config{State: st, Attempts: 30, Interval: time.Hour})
			if err != nil || res.Mode != bootstrap.ModeSeed {
				t.Fatalf("\t%s\tTest %d:\tShould seed immediately: %+v: %v", failed, testID, res, err)
			}
			t.Logf("\t%s\tTest %d:\tShould seed immediately.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the bootstrap never answers.", testID)
		{
			down := httptest.NewServer(http.NotFoundHandler())
			addr := down.Listener.Addr().String()
			down.Close()

			st := newState(t, "node:5003", peer.RoleProvider, addr)

			res, err := bootstrap.Run(context.Background(), bootstrap.Config{State: st, Attempts: 2, Interval: 10 * time.Millisecond})
			if err != nil || res.Mode != bootstrap.ModeSeed || res.Length != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould seed from genesis: %+v: %v", failed, testID, res, err)
			}
			t.Logf("\t%s\tTest %d:\tShould seed from genesis.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the bootstrap answers.", testID)
		{
			master := newState(t, "master:5002", peer.RoleMaster, "")
			mine(t, master)
			mine(t, master)

			srv := serve(master)
			defer srv.Close()

			st := newState(t, "node:5003", peer.RoleProvider, srv.Listener.Addr().String())

			res, err := bootstrap.Run(context.Background(), bootstrap.Config{State: st, Attempts: 2, Interval: 10 * time.Millisecond})
			if err != nil || res.Mode != bootstrap.ModeJoined || res.Length != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould join and copy the chain: %+v: %v", failed, testID, res, err)
			}
			t.Logf("\t%s\tTest %d:\tShould join and copy the chain.", success, testID)

			if st.RetrieveLatestBlock().Hash() != master.RetrieveLatestBlock().Hash() {
				t.Fatalf("\t%s\tTest %d:\tShould have the bootstrap tip.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould have the bootstrap tip.", success, testID)

			if len(master.RetrieveKnownPeers()) != 1 || master.RetrieveKnownPeers()[0] != "node:5003" {
				t.Fatalf("\t%s\tTest %d:\tShould be registered with the bootstrap: %v", failed, testID, master.RetrievePeers())
			}
			t.Logf("\t%s\tTest %d:\tShould be registered with the bootstrap.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen a master discovers its siblings.", testID)
		{
			short := newState(t, "m1:5002", peer.RoleMaster, "")
			mine(t, short)
			long := newState(t, "m2:5002", peer.RoleMaster, "")
			mine(t, long)
			mine(t, long)

			srv1 := serve(short)
			defer srv1.Close()
			srv2 := serve(long)
			defer srv2.Close()

			st := newState(t, "m3:5002", peer.RoleMaster, "")

			cfg := bootstrap.Config{
				State:         st,
				MasterService: "masters.local",
				MasterPort:    "5002",
				LookupHost: func(ctx context.Context, host string) ([]string, error) {
					return []string{srv1.Listener.Addr().String(), srv2.Listener.Addr().String()}, nil
				},
				LocalAddrs: func() ([]string, error) { return nil, nil },
			}

			res, err := bootstrap.Run(context.Background(), cfg)
			if err != nil || res.Mode != bootstrap.ModeJoined || res.Source != srv2.Listener.Addr().String() || res.Length != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould adopt the longest sibling chain: %+v: %v", failed, testID, res, err)
			}
			t.Logf("\t%s\tTest %d:\tShould adopt the longest sibling chain.", success, testID)

			if len(st.RetrieveKnownPeers()) < 2 {
				t.Fatalf("\t%s\tTest %d:\tShould know both siblings: %v", failed, testID, st.RetrievePeers())
			}
			t.Logf("\t%s\tTest %d:\tShould know both siblings.", success, testID)
		}
	}
}

// =============================================================================

func newState(t *testing.T, host string, role string, bootstrap string) *state.State {
	st, err := state.New(state.Config{
		Host:             host,
		Role:             role,
		BootstrapAddress: bootstrap,
		Difficulty:       1,
	})
	if err != nil {
		t.Fatalf("unable to construct state: %v", err)
	}
	return st
}

func mine(t *testing.T, st *state.State) {
	if _, err := st.MineNewBlock(context.Background(), state.MineArgs{}); err != nil {
		t.Fatalf("unable to mine: %v", err)
	}
}

// serve exposes the chain and registration endpoints of the state.
func serve(st *state.State) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/node/chain", func(w http.ResponseWriter, r *http.Request) {
		chain := st.RetrieveChain()
		json.NewEncoder(w).Encode(state.ChainDocument{Chain: chain, Length: uint64(len(chain))})
	})
	mux.HandleFunc("/v1/node/peers/register", func(w http.ResponseWriter, r *http.Request) {
		var reg state.RegisterDocument
		json.NewDecoder(r.Body).Decode(&reg)

		peers, err := st.RegisterPeers(reg.Nodes, reg.Role, reg.IsLocal)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(state.PeersDocument{Message: "Nodes registered", Peers: peers})
	})

	return httptest.NewServer(mux)
}
