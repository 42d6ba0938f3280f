// Package contract interprets the transactions of appended blocks as named
// state transitions over the world state held by a node.
package contract

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roleledger/node/foundation/blockchain/database"
	"github.com/roleledger/node/foundation/validate"
)

// Set of contract identifiers carried in a transaction's contract id.
const (
	IDAddUser                  = "add_user"
	IDTransfer                 = "transfer"
	IDUpdateResourceAllocation = "update_resource_allocation"
)

// Set of errors returned when a contract can't be applied.
var (
	ErrNoContract      = errors.New("transaction carries no contract")
	ErrUnknownContract = errors.New("unknown contract id")
	ErrNotAuthorized   = errors.New("node role is not the contract authority")
	ErrUserExists      = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrInsufficient    = errors.New("insufficient balance")
)

// Contract represents one of the closed set of contracts a transaction can
// trigger. Only the types in this package implement it.
type Contract interface {
	ContractID() string
	contract()
}

// AddUser registers a new user account.
type AddUser struct {
	ID             int64
	Name           string
	InitialBalance float64
}

// ContractID implements the Contract interface.
func (AddUser) ContractID() string { return IDAddUser }
func (AddUser) contract()          {}

// Transfer moves an amount between two user accounts.
type Transfer struct {
	FromID int64
	ToID   int64
	Amount float64
}

// ContractID implements the Contract interface.
func (Transfer) ContractID() string { return IDTransfer }
func (Transfer) contract()          {}

// UpdateResourceAllocation changes the resources allocated to a city. Only
// a node whose role matches Authority applies it.
type UpdateResourceAllocation struct {
	CityID    int64
	RiskLevel string
	Authority string
}

// ContractID implements the Contract interface.
func (UpdateResourceAllocation) ContractID() string { return IDUpdateResourceAllocation }
func (UpdateResourceAllocation) contract()          {}

// =============================================================================

// Payload models used to decode the dynamic contract payload. Pointers allow
// a missing field to be told apart from a zero value.
type (
	addUserPayload struct {
		ID             *int64   `json:"id" validate:"required"`
		Name           string   `json:"name" validate:"required"`
		InitialBalance *float64 `json:"initial_balance"`
	}

	transferPayload struct {
		FromID *int64   `json:"from_id" validate:"required"`
		ToID   *int64   `json:"to_id" validate:"required"`
		Amount *float64 `json:"amount" validate:"required,gte=0"`
	}

	resourcePayload struct {
		CityID    *int64 `json:"city_id" validate:"required"`
		RiskLevel string `json:"risk_level" validate:"required"`
		Authority string `json:"authority" validate:"required"`
	}
)

// Parse converts the transaction's contract id and payload into a Contract.
func Parse(tx database.Tx) (Contract, error) {
	switch tx.ContractID {
	case "":
		return nil, ErrNoContract

	case IDAddUser:
		var p addUserPayload
		if err := decode(tx.ContractPayload, &p); err != nil {
			return nil, fmt.Errorf("%s: %w", IDAddUser, err)
		}

		c := AddUser{ID: *p.ID, Name: p.Name}
		if p.InitialBalance != nil {
			c.InitialBalance = *p.InitialBalance
		}
		return c, nil

	case IDTransfer:
		var p transferPayload
		if err := decode(tx.ContractPayload, &p); err != nil {
			return nil, fmt.Errorf("%s: %w", IDTransfer, err)
		}
		return Transfer{FromID: *p.FromID, ToID: *p.ToID, Amount: *p.Amount}, nil

	case IDUpdateResourceAllocation:
		var p resourcePayload
		if err := decode(tx.ContractPayload, &p); err != nil {
			return nil, fmt.Errorf("%s: %w", IDUpdateResourceAllocation, err)
		}
		return UpdateResourceAllocation{CityID: *p.CityID, RiskLevel: p.RiskLevel, Authority: p.Authority}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownContract, tx.ContractID)
}

// Payload returns the payload document for the contract, the inverse of Parse.
func Payload(c Contract) map[string]any {
	switch c := c.(type) {
	case AddUser:
		return map[string]any{"id": c.ID, "name": c.Name, "initial_balance": c.InitialBalance}
	case Transfer:
		return map[string]any{"from_id": c.FromID, "to_id": c.ToID, "amount": c.Amount}
	case UpdateResourceAllocation:
		return map[string]any{"city_id": c.CityID, "risk_level": c.RiskLevel, "authority": c.Authority}
	}
	return map[string]any{}
}

// NewTx constructs a transaction that triggers the contract.
func NewTx(sender string, recipient string, c Contract) database.Tx {
	return database.NewContractTx(sender, recipient, c.ContractID(), Payload(c))
}

// decode round trips the payload through JSON into the typed model and
// validates it.
func decode(payload map[string]any, v any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := validate.Check(v); err != nil {
		return err
	}

	return nil
}
