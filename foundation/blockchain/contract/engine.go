package contract

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/roleledger/node/foundation/blockchain/database"
)

// Store represents the external store the resource allocation contract
// pushes its updates to.
type Store interface {
	UpsertResourceAllocation(ctx context.Context, cityID int64, allocated int, riskLevel string) error
}

// EventHandler defines a function that is called when events
// occur in the processing of contracts.
type EventHandler func(v string, args ...any)

// User represents an account created by the add_user contract.
type User struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

// =============================================================================

// Config represents the configuration required to start the engine.
type Config struct {
	Role         string
	Store        Store
	StoreTimeout time.Duration
	EvHandler    EventHandler
}

// Engine applies the contracts of appended blocks to the world state. Contract
// failures are logged and never affect the chain.
type Engine struct {
	mu           sync.RWMutex
	role         string
	store        Store
	storeTimeout time.Duration
	users        map[int64]User
	evHandler    EventHandler
}

// New constructs an engine for a node with the specified role.
func New(cfg Config) *Engine {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	timeout := cfg.StoreTimeout
	if timeout == 0 {
		timeout = 3 * time.Second
	}

	return &Engine{
		role:         cfg.Role,
		store:        cfg.Store,
		storeTimeout: timeout,
		users:        make(map[int64]User),
		evHandler:    ev,
	}
}

// Apply executes every contract in the block in transaction order.
func (e *Engine) Apply(block database.Block) {
	for i, tx := range block.Transactions {
		err := e.Execute(tx)
		switch {
		case err == nil:
			e.evHandler("contract: Apply: blk[%d]: tx[%d]: %s: applied", block.Index, i, tx.ContractID)

		case errors.Is(err, ErrNoContract), errors.Is(err, ErrUnknownContract):

		default:
			e.evHandler("contract: Apply: blk[%d]: tx[%d]: %s: skipped: %s", block.Index, i, tx.ContractID, err)
		}
	}
}

// Reset discards the world state so it can be rebuilt from a chain.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.users = make(map[int64]User)
}

// Execute applies the contract carried by the transaction.
func (e *Engine) Execute(tx database.Tx) error {
	c, err := Parse(tx)
	if err != nil {
		return err
	}

	switch c := c.(type) {
	case AddUser:
		return e.addUser(c)
	case Transfer:
		return e.transfer(c)
	case UpdateResourceAllocation:
		return e.updateResourceAllocation(c)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownContract, tx.ContractID)
	}
}

// User returns the account for the specified id.
func (e *Engine) User(id int64) (User, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	usr, exists := e.users[id]
	return usr, exists
}

// Users returns a copy of every account ordered by id.
func (e *Engine) Users() []User {
	e.mu.RLock()
	defer e.mu.RUnlock()

	users := make([]User, 0, len(e.users))
	for _, usr := range e.users {
		users = append(users, usr)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].ID < users[j].ID
	})

	return users
}

// Role returns the role the engine checks contract authority against.
func (e *Engine) Role() string {
	return e.role
}

// =============================================================================

func (e *Engine) addUser(c AddUser) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.users[c.ID]; exists {
		return fmt.Errorf("%w: id[%d]", ErrUserExists, c.ID)
	}

	e.users[c.ID] = User{ID: c.ID, Name: c.Name, Balance: c.InitialBalance}
	return nil
}

func (e *Engine) transfer(c Transfer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	from, exists := e.users[c.FromID]
	if !exists {
		return fmt.Errorf("%w: from_id[%d]", ErrUserNotFound, c.FromID)
	}

	to, exists := e.users[c.ToID]
	if !exists {
		return fmt.Errorf("%w: to_id[%d]", ErrUserNotFound, c.ToID)
	}

	if from.Balance < c.Amount {
		return fmt.Errorf("%w: balance[%v] amount[%v]", ErrInsufficient, from.Balance, c.Amount)
	}

	from.Balance -= c.Amount
	e.users[from.ID] = from

	to = e.users[c.ToID]
	to.Balance += c.Amount
	e.users[to.ID] = to

	return nil
}

func (e *Engine) updateResourceAllocation(c UpdateResourceAllocation) error {
	if c.Authority != e.role {
		return fmt.Errorf("%w: role[%s] authority[%s]", ErrNotAuthorized, e.role, c.Authority)
	}

	alloc, err := ParseRiskLevel(c.RiskLevel)
	if err != nil {
		return err
	}

	if e.store == nil {
		e.evHandler("contract: updateResourceAllocation: city[%d]: no store configured", c.CityID)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.storeTimeout)
	defer cancel()

	if err := e.store.UpsertResourceAllocation(ctx, c.CityID, alloc.Resources, alloc.RiskLevel); err != nil {
		return fmt.Errorf("upsert city[%d]: %w", c.CityID, err)
	}

	return nil
}
