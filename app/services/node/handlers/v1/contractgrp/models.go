package contractgrp

import (
	"github.com/roleledger/node/business/data/resource"
	"github.com/roleledger/node/foundation/blockchain/database"
)

// newUser is the payload to register a user account.
type newUser struct {
	ID             *int64  `json:"id" validate:"required"`
	Name           *string `json:"name" validate:"required"`
	InitialBalance float64 `json:"initial_balance" validate:"gte=0"`
}

type userResult struct {
	User    int64          `json:"user"`
	Balance float64        `json:"balance"`
	Block   database.Block `json:"block"`
}

// newTransfer is the payload to move funds between two accounts.
type newTransfer struct {
	FromID *int64   `json:"from_id" validate:"required"`
	ToID   *int64   `json:"to_id" validate:"required"`
	Amount *float64 `json:"amount" validate:"required,gte=0"`
}

type transferResult struct {
	FromID   int64              `json:"from_id"`
	ToID     int64              `json:"to_id"`
	Amount   float64            `json:"amount"`
	Balances map[string]float64 `json:"balances"`
	Block    database.Block     `json:"block"`
}

type allocationResult struct {
	CityID    int64          `json:"city_id"`
	RiskLevel string         `json:"disaster_risk_level"`
	Allocated int            `json:"resources_allocated"`
	Block     database.Block `json:"block"`
}

// newTx is a raw transaction submitted to the pending pool.
type newTx struct {
	Sender          string           `json:"sender" validate:"required"`
	Recipient       string           `json:"recipient" validate:"required"`
	ContractID      string           `json:"contract_id"`
	ContractPayload database.Payload `json:"contract_payload"`
	RequestedUserID *int64           `json:"requested_user_id"`
	RequestInfo     string           `json:"request_info"`
}

func (ntx newTx) toTx() database.Tx {
	tx := database.NewTx(ntx.Sender, ntx.Recipient)
	if ntx.ContractID != "" {
		tx = database.NewContractTx(ntx.Sender, ntx.Recipient, ntx.ContractID, ntx.ContractPayload)
	}
	tx.RequestedUserID = ntx.RequestedUserID
	tx.RequestInfo = ntx.RequestInfo

	return tx
}

type submitResult struct {
	Message string `json:"message"`
	Index   uint64 `json:"index"`
}

type cityResult struct {
	CityData resource.Resource `json:"city_data"`
	Message  string            `json:"message"`
}
