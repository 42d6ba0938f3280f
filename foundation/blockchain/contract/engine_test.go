package contract_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/roleledger/node/foundation/blockchain/contract"
	"github.com/roleledger/node/foundation/blockchain/database"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_AddUser(t *testing.T) {
	t.Log("Given the need to register users through contracts.")
	{
		const testID = 0
		t.Logf("\tTest %d:\tWhen applying the same add_user payload twice.", testID)
		{
			eng := contract.New(contract.Config{Role: "user_contract"})

			tx := contract.NewTx("user_service", "all", contract.AddUser{ID: 1, Name: "A", InitialBalance: 100})
			eng.Apply(block(tx))
			eng.Apply(block(decoded(t, tx)))

			users := eng.Users()
			if len(users) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould have exactly one account, got %d.", failed, testID, len(users))
			}
			t.Logf("\t%s\tTest %d:\tShould have exactly one account.", success, testID)

			if users[0].Balance != 100 || users[0].Name != "A" {
				t.Fatalf("\t%s\tTest %d:\tShould have balance 100, got %v.", failed, testID, users[0].Balance)
			}
			t.Logf("\t%s\tTest %d:\tShould have balance 100.", success, testID)

			err := eng.Execute(tx)
			if !errors.Is(err, contract.ErrUserExists) {
				t.Fatalf("\t%s\tTest %d:\tShould report the duplicate id: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould report the duplicate id.", success, testID)
		}
	}
}

func Test_ParseLargeID(t *testing.T) {
	t.Log("Given the need to keep integer ids exact across the wire.")
	{
		const testID = 0
		const id int64 = 1<<53 + 1
		t.Logf("\tTest %d:\tWhen parsing an add_user with id %d.", testID, id)
		{
			tx := contract.NewTx("user_service", "all", contract.AddUser{ID: id, Name: "A"})

			for _, tx := range []database.Tx{tx, decoded(t, tx)} {
				c, err := contract.Parse(tx)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to parse the contract: %v", failed, testID, err)
				}

				if got := c.(contract.AddUser).ID; got != id {
					t.Fatalf("\t%s\tTest %d:\tShould keep the id exact, got %d.", failed, testID, got)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould keep the id exact before and after the wire.", success, testID)
		}
	}
}

func Test_ParseInvalid(t *testing.T) {
	type table struct {
		name    string
		tx      database.Tx
		wantErr error
	}

	tt := []table{
		{
			name: "non-integer id",
			tx:   database.NewContractTx("a", "b", contract.IDAddUser, map[string]any{"id": 1.5, "name": "A"}),
		},
		{
			name: "string id",
			tx:   database.NewContractTx("a", "b", contract.IDAddUser, map[string]any{"id": "1", "name": "A"}),
		},
		{
			name: "empty name",
			tx:   database.NewContractTx("a", "b", contract.IDAddUser, map[string]any{"id": 1, "name": ""}),
		},
		{
			name: "missing to_id",
			tx:   database.NewContractTx("a", "b", contract.IDTransfer, map[string]any{"from_id": 1, "amount": 10}),
		},
		{
			name:    "unknown contract",
			tx:      database.NewContractTx("a", "b", "mint", nil),
			wantErr: contract.ErrUnknownContract,
		},
		{
			name:    "no contract",
			tx:      database.NewTx("a", "b"),
			wantErr: contract.ErrNoContract,
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			_, err := contract.Parse(tst.tx)
			if err == nil {
				t.Fatalf("Test %s:\tShould fail to parse the contract.", tst.name)
			}

			if tst.wantErr != nil && !errors.Is(err, tst.wantErr) {
				t.Logf("Test %s:\tgot: %v", tst.name, err)
				t.Logf("Test %s:\texp: %v", tst.name, tst.wantErr)
				t.Fatalf("Test %s:\tShould get back the right error.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_Transfer(t *testing.T) {
	t.Log("Given the need to move balances between users.")
	{
		const testID = 0
		t.Logf("\tTest %d:\tWhen handling accounts {1:100, 2:0}.", testID)
		{
			eng := contract.New(contract.Config{Role: "user_contract"})
			eng.Apply(block(
				contract.NewTx("s", "all", contract.AddUser{ID: 1, Name: "A", InitialBalance: 100}),
				contract.NewTx("s", "all", contract.AddUser{ID: 2, Name: "B"}),
			))

			eng.Apply(block(decoded(t, contract.NewTx("s", "all", contract.Transfer{FromID: 1, ToID: 2, Amount: 30}))))
			checkBalances(t, testID, eng, 70, 30)
			t.Logf("\t%s\tTest %d:\tShould move 30 from user 1 to user 2.", success, testID)

			err := eng.Execute(contract.NewTx("s", "all", contract.Transfer{FromID: 1, ToID: 2, Amount: 1000}))
			if !errors.Is(err, contract.ErrInsufficient) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the overdraft: %v", failed, testID, err)
			}
			checkBalances(t, testID, eng, 70, 30)
			t.Logf("\t%s\tTest %d:\tShould leave balances unchanged on insufficient funds.", success, testID)

			err = eng.Execute(contract.NewTx("s", "all", contract.Transfer{FromID: 1, ToID: 9, Amount: 1}))
			if !errors.Is(err, contract.ErrUserNotFound) {
				t.Fatalf("\t%s\tTest %d:\tShould reject an unknown recipient: %v", failed, testID, err)
			}
			checkBalances(t, testID, eng, 70, 30)
			t.Logf("\t%s\tTest %d:\tShould reject an unknown recipient.", success, testID)

			eng.Reset()
			if len(eng.Users()) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould discard every account on reset.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould discard every account on reset.", success, testID)
		}
	}
}

func Test_UpdateResourceAllocation(t *testing.T) {
	t.Log("Given the need to update resource allocations by authority.")
	{
		tx := contract.NewTx("requester", "provider", contract.UpdateResourceAllocation{CityID: 3, RiskLevel: "veryHigh", Authority: "provider"})

		testID := 0
		t.Logf("\tTest %d:\tWhen the node role matches the authority.", testID)
		{
			str := store{}
			eng := contract.New(contract.Config{Role: "provider", Store: &str})

			if err := eng.Execute(tx); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould apply the contract: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould apply the contract.", success, testID)

			if len(str.calls) != 1 || str.calls[0] != (call{cityID: 3, allocated: 400, riskLevel: "Very High"}) {
				t.Fatalf("\t%s\tTest %d:\tShould push 400 resources for city 3: %v", failed, testID, str.calls)
			}
			t.Logf("\t%s\tTest %d:\tShould push 400 resources for city 3.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the node role does not match the authority.", testID)
		{
			str := store{}
			eng := contract.New(contract.Config{Role: "requester", Store: &str})

			if err := eng.Execute(tx); !errors.Is(err, contract.ErrNotAuthorized) {
				t.Fatalf("\t%s\tTest %d:\tShould refuse the contract: %v", failed, testID, err)
			}
			if len(str.calls) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould not touch the store.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould refuse the contract without touching the store.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the store fails.", testID)
		{
			str := store{err: errors.New("disk full")}
			eng := contract.New(contract.Config{Role: "provider", Store: &str})

			if err := eng.Execute(tx); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould report the store error.", failed, testID)
			}

			eng.Apply(block(tx))
			t.Logf("\t%s\tTest %d:\tShould absorb the store error when applying the block.", success, testID)
		}
	}
}

func Test_ParseRiskLevel(t *testing.T) {
	type table struct {
		level     string
		resources int
		label     string
	}

	tt := []table{
		{level: "low", resources: 100, label: "Low"},
		{level: "MEDIUM", resources: 200, label: "Medium"},
		{level: "High", resources: 300, label: "High"},
		{level: "veryHigh", resources: 400, label: "Very High"},
		{level: "very high", resources: 400, label: "Very High"},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			alloc, err := contract.ParseRiskLevel(tst.level)
			if err != nil {
				t.Fatalf("Test %s:\tShould parse the risk level: %v", tst.level, err)
			}

			if alloc.Resources != tst.resources || alloc.RiskLevel != tst.label {
				t.Logf("Test %s:\tgot: %d %s", tst.level, alloc.Resources, alloc.RiskLevel)
				t.Logf("Test %s:\texp: %d %s", tst.level, tst.resources, tst.label)
				t.Fatalf("Test %s:\tShould get back the right allocation.", tst.level)
			}
		}

		t.Run(tst.level, f)
	}

	if _, err := contract.ParseRiskLevel("extreme"); !errors.Is(err, contract.ErrInvalidRiskLevel) {
		t.Fatalf("Should reject an unknown risk level: %v", err)
	}
}

// =============================================================================

type call struct {
	cityID    int64
	allocated int
	riskLevel string
}

type store struct {
	calls []call
	err   error
}

func (s *store) UpsertResourceAllocation(ctx context.Context, cityID int64, allocated int, riskLevel string) error {
	if s.err != nil {
		return s.err
	}
	s.calls = append(s.calls, call{cityID: cityID, allocated: allocated, riskLevel: riskLevel})
	return nil
}

func block(trans ...database.Tx) database.Block {
	return database.Block{Index: 2, Transactions: trans}
}

// decoded returns the transaction as a peer would see it after it crossed
// the wire.
func decoded(t *testing.T, tx database.Tx) database.Tx {
	data, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("unable to marshal tx: %v", err)
	}

	var out database.Tx
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unable to unmarshal tx: %v", err)
	}
	return out
}

func checkBalances(t *testing.T, testID int, eng *contract.Engine, from float64, to float64) {
	usr1, _ := eng.User(1)
	usr2, _ := eng.User(2)

	if usr1.Balance != from || usr2.Balance != to {
		t.Fatalf("\t%s\tTest %d:\tShould have balances {1:%v, 2:%v}, got {1:%v, 2:%v}.", failed, testID, from, to, usr1.Balance, usr2.Balance)
	}
}
