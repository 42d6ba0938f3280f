package peer_test

import (
	"testing"

	"github.com/roleledger/node/foundation/blockchain/peer"
)

func Test_CRUD(t *testing.T) {
	type table struct {
		name  string
		self  string
		peers []string
		exp   []string
	}

	tt := []table{
		{
			name:  "basic",
			self:  "host1:5002",
			peers: []string{"host2:5002", "host3:5002"},
			exp:   []string{"host2:5002", "host3:5002"},
		},
		{
			name:  "url form",
			self:  "host1:5002",
			peers: []string{"http://host2:5002", "http://host3:5002/v1/node/chain"},
			exp:   []string{"host2:5002", "host3:5002"},
		},
		{
			name:  "self and duplicates",
			self:  "host1:5002",
			peers: []string{"host1:5002", "http://host1:5002", "host2:5002", "http://host2:5002"},
			exp:   []string{"host2:5002"},
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			reg := peer.NewRegistry()
			if err := reg.RegisterSelf(tst.self, peer.RoleMaster, ""); err != nil {
				t.Fatalf("Test %s:\tShould be able to register self: %v", tst.name, err)
			}

			for _, addr := range tst.peers {
				if _, _, err := reg.RegisterPeer(addr); err != nil {
					t.Fatalf("Test %s:\tShould be able to register %s: %v", tst.name, addr, err)
				}
			}

			peers := reg.KnownPeers()
			if len(peers) != len(tst.exp) {
				t.Logf("Test %s:\tgot: %v", tst.name, peers)
				t.Logf("Test %s:\texp: %v", tst.name, tst.exp)
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			for i := range peers {
				if peers[i] != tst.exp[i] {
					t.Logf("Test %s:\tgot: %v", tst.name, peers)
					t.Logf("Test %s:\texp: %v", tst.name, tst.exp)
					t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
				}
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_Roles(t *testing.T) {
	reg := peer.NewRegistry()
	reg.RegisterSelf("host1:5002", peer.RoleMaster, "")

	reg.RegisterPeer("host2:5002")
	reg.SetRole("host2:5002", peer.RoleMaster)
	reg.SetRole("host1:5002", peer.RoleMaster)

	if masters := reg.MasterPeers(); len(masters) != 1 || masters[0] != "host2:5002" {
		t.Fatalf("Should only hold the remote master, got %v", masters)
	}

	reg.SetRole("http://host2:5002", peer.RoleProvider)
	if masters := reg.MasterPeers(); len(masters) != 0 {
		t.Fatalf("Should drop a peer that is no longer a master, got %v", masters)
	}

	if role := reg.Role("host2:5002"); role != peer.RoleProvider {
		t.Fatalf("Should get back the new role, got %s", role)
	}

	if role := reg.Role("host9:5002"); role != peer.RoleUnknown {
		t.Fatalf("Should get back unknown for an unseen peer, got %s", role)
	}
}

func Test_MergeRemove(t *testing.T) {
	reg := peer.NewRegistry()
	reg.RegisterSelf("host1:5002", peer.RoleRequester, "")

	added := reg.Merge([]peer.Peer{
		{Address: "host1:5002", Role: peer.RoleMaster},
		{Address: "host2:5002", Role: peer.RoleMaster},
		{Address: "host3:5002", Role: peer.RoleProvider, Label: "3f2e"},
		{Address: "host3:5002", Role: peer.RoleProvider},
	})

	if added != 2 {
		t.Fatalf("Should add two new peers, got %d", added)
	}

	if self := reg.Self(); self.Role != peer.RoleRequester {
		t.Fatalf("Should not let a merge overwrite the local role, got %s", self.Role)
	}

	peers := reg.PeersWithSelf()
	if len(peers) != 3 || peers[0].Address != "host1:5002" || peers[2].Label != "3f2e" {
		t.Fatalf("Should list self first followed by the known peers, got %v", peers)
	}

	reg.Remove("host2:5002")
	if reg.IsKnown("host2:5002") || len(reg.MasterPeers()) != 0 || reg.Role("host2:5002") != peer.RoleUnknown {
		t.Fatalf("Should remove the peer from every set.")
	}

	if _, err := peer.Normalize("http://"); err == nil {
		t.Fatalf("Should reject an address without a host.")
	}
}
