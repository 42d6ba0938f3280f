package resource_test

import (
	"context"
	"errors"
	"testing"

	"github.com/roleledger/node/business/data/resource"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Stores(t *testing.T) {
	type table struct {
		name string
		open func(t *testing.T) resource.Storer
	}

	tt := []table{
		{
			name: "memory",
			open: func(t *testing.T) resource.Storer { return resource.NewMemory() },
		},
		{
			name: "badger",
			open: func(t *testing.T) resource.Storer {
				store, err := resource.OpenBadger(t.TempDir(), nil)
				if err != nil {
					t.Fatalf("unable to open badger: %v", err)
				}
				return store
			},
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			ctx := context.Background()

			store := tst.open(t)
			defer store.Close()

			t.Logf("Given the need to work with the %s resource store.", tst.name)
			{
				const testID = 0
				t.Logf("\tTest %d:\tWhen seeding an empty store.", testID)
				{
					n, err := resource.Seed(ctx, store)
					if err != nil || n != len(resource.Samples) {
						t.Fatalf("\t%s\tTest %d:\tShould seed every sample city: %d: %v", failed, testID, n, err)
					}
					t.Logf("\t%s\tTest %d:\tShould seed every sample city.", success, testID)

					n, err = resource.Seed(ctx, store)
					if err != nil || n != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould not seed a store twice: %d: %v", failed, testID, n, err)
					}
					t.Logf("\t%s\tTest %d:\tShould not seed a store twice.", success, testID)

					all, err := store.Query(ctx)
					if err != nil || len(all) != 10 || all[0].CityName != "New York" || all[9].CityName != "Boston" {
						t.Fatalf("\t%s\tTest %d:\tShould list the cities in id order: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould list the cities in id order.", success, testID)
				}

				t.Logf("\tTest %d:\tWhen updating an allocation.", testID)
				{
					if err := store.UpsertResourceAllocation(ctx, 4, 400, "Very High"); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould update the city: %v", failed, testID, err)
					}

					res, err := store.QueryByID(ctx, 4)
					if err != nil || res.Allocated != 400 || res.RiskLevel != "Very High" || res.CityName != "Houston" {
						t.Fatalf("\t%s\tTest %d:\tShould read back the update: %+v: %v", failed, testID, res, err)
					}
					t.Logf("\t%s\tTest %d:\tShould read back the update.", success, testID)

					err = store.UpsertResourceAllocation(ctx, 99, 100, "Low")
					if !errors.Is(err, resource.ErrNotFound) {
						t.Fatalf("\t%s\tTest %d:\tShould report an unknown city: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould report an unknown city.", success, testID)
				}
			}
		}

		t.Run(tst.name, f)
	}
}
