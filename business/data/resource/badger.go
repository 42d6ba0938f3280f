package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger"
	"go.uber.org/zap"
)

const resourcePrefix = "resource:"

// Badger is a resource store backed by a badger database. It holds one
// handle for its lifetime since badger locks its directory.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens or creates the badger database in the directory.
func OpenBadger(path string, log *zap.SugaredLogger) (*Badger, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create dir %q: %w", path, err)
	}

	opts := badger.DefaultOptions(path).
		WithSyncWrites(true).
		WithLogger(badgerLogger{log: log})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger %q: %w", path, err)
	}

	return &Badger{db: db}, nil
}

// Close closes the database.
func (b *Badger) Close() error {
	return b.db.Close()
}

// Create adds a new resource.
func (b *Badger) Create(ctx context.Context, res Resource) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		key := resourceKey(res.CityID)

		_, err := txn.Get(key)
		switch {
		case err == nil:
			return fmt.Errorf("city[%d]: %w", res.CityID, ErrExists)
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		return setResource(txn, res)
	})
}

// UpsertResourceAllocation replaces the allocation and risk level of an
// existing city and stamps the allocation date.
func (b *Badger) UpsertResourceAllocation(ctx context.Context, cityID int64, allocated int, riskLevel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		res, err := getResource(txn, cityID)
		if err != nil {
			return err
		}

		res.Allocated = allocated
		res.RiskLevel = riskLevel
		res.AllocationDate = today()

		return setResource(txn, res)
	})
}

// QueryByID returns the resource for the city.
func (b *Badger) QueryByID(ctx context.Context, cityID int64) (Resource, error) {
	if err := ctx.Err(); err != nil {
		return Resource{}, err
	}

	var res Resource
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		res, err = getResource(txn, cityID)
		return err
	})

	return res, err
}

// Query returns every resource ordered by city id.
func (b *Badger) Query(ctx context.Context) ([]Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var resources []Resource
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(resourcePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}

			var res Resource
			if err := json.Unmarshal(data, &res); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			resources = append(resources, res)
		}

		return nil
	})

	return resources, err
}

// =============================================================================

// resourceKey builds a key that sorts in city id order.
func resourceKey(cityID int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", resourcePrefix, cityID))
}

func getResource(txn *badger.Txn, cityID int64) (Resource, error) {
	item, err := txn.Get(resourceKey(cityID))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return Resource{}, fmt.Errorf("city[%d]: %w", cityID, ErrNotFound)
		}
		return Resource{}, err
	}

	data, err := item.ValueCopy(nil)
	if err != nil {
		return Resource{}, err
	}

	var res Resource
	if err := json.Unmarshal(data, &res); err != nil {
		return Resource{}, fmt.Errorf("decode city[%d]: %w", cityID, err)
	}

	return res, nil
}

func setResource(txn *badger.Txn, res Resource) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return txn.Set(resourceKey(res.CityID), data)
}

// =============================================================================

// badgerLogger routes badger's own logging onto zap.
type badgerLogger struct {
	log *zap.SugaredLogger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	if l.log != nil {
		l.log.Errorf("badger: "+format, args...)
	}
}

func (l badgerLogger) Warningf(format string, args ...any) {
	if l.log != nil {
		l.log.Warnf("badger: "+format, args...)
	}
}

func (l badgerLogger) Infof(format string, args ...any) {
	if l.log != nil {
		l.log.Debugf("badger: "+format, args...)
	}
}

func (l badgerLogger) Debugf(format string, args ...any) {
	if l.log != nil {
		l.log.Debugf("badger: "+format, args...)
	}
}
