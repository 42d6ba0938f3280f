// Package contractgrp maintains the group of handlers that originate
// contract transactions on behalf of the application services.
package contractgrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/roleledger/node/business/data/resource"
	"github.com/roleledger/node/business/web/errs"
	"github.com/roleledger/node/foundation/blockchain/contract"
	"github.com/roleledger/node/foundation/blockchain/database"
	"github.com/roleledger/node/foundation/blockchain/peer"
	"github.com/roleledger/node/foundation/blockchain/state"
	"github.com/roleledger/node/foundation/validate"
	"github.com/roleledger/node/foundation/web"
	"go.uber.org/zap"
)

// recipientAll is the recipient of transactions addressed to every node.
const recipientAll = "all"

// Handlers manages the set of contract endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	Store resource.Storer
}

// AddUser mines a block holding an add_user contract and returns the
// balance of the user once the block is applied.
func (h Handlers) AddUser(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nu newUser
	if err := web.Decode(r, &nu); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(nu); err != nil {
		return err
	}

	c := contract.AddUser{
		ID:             *nu.ID,
		Name:           *nu.Name,
		InitialBalance: nu.InitialBalance,
	}

	block, err := h.mine(ctx, contract.NewTx(h.State.RetrieveMinerID(), recipientAll, c))
	if err != nil {
		return err
	}

	var balance float64
	if usr, exists := h.State.RetrieveUser(c.ID); exists {
		balance = usr.Balance
	}

	resp := userResult{
		User:    c.ID,
		Balance: balance,
		Block:   block,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Transfer mines a block holding a transfer contract and returns the
// balances of both accounts once the block is applied.
func (h Handlers) Transfer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var nt newTransfer
	if err := web.Decode(r, &nt); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(nt); err != nil {
		return err
	}

	c := contract.Transfer{
		FromID: *nt.FromID,
		ToID:   *nt.ToID,
		Amount: *nt.Amount,
	}

	block, err := h.mine(ctx, contract.NewTx(h.State.RetrieveMinerID(), recipientAll, c))
	if err != nil {
		return err
	}

	balances := make(map[string]float64, 2)
	for _, id := range []int64{c.FromID, c.ToID} {
		var balance float64
		if usr, exists := h.State.RetrieveUser(id); exists {
			balance = usr.Balance
		}
		balances[strconv.FormatInt(id, 10)] = balance
	}

	resp := transferResult{
		FromID:   c.FromID,
		ToID:     c.ToID,
		Amount:   c.Amount,
		Balances: balances,
		Block:    block,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// QueryUser returns the account of the specified user. Every lookup is
// recorded on chain by a request log block mined after the response.
func (h Handlers) QueryUser(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id, err := strconv.ParseInt(web.Param(r, "id"), 10, 64)
	if err != nil {
		return errs.Newf(http.StatusBadRequest, "invalid user id: %w", err)
	}

	tx := database.NewTx(h.State.RetrieveMinerID(), recipientAll)
	tx.RequestedUserID = &id
	h.State.Worker.SignalMining(state.MineArgs{Transactions: []database.Tx{tx}})

	usr, exists := h.State.RetrieveUser(id)
	if !exists {
		return errs.Newf(http.StatusNotFound, "User ID %d not found", id)
	}

	return web.Respond(ctx, w, usr, http.StatusOK)
}

// QueryUsers returns every account known to the contract engine.
func (h Handlers) QueryUsers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveUsers(), http.StatusOK)
}

// UpdateResourceAllocation mines a block holding an update_resource_allocation
// contract. Only nodes holding the provider role write the allocation to
// their resource store.
func (h Handlers) UpdateResourceAllocation(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cityID, err := strconv.ParseInt(web.Param(r, "city_id"), 10, 64)
	if err != nil {
		return errs.Newf(http.StatusBadRequest, "invalid city id: %w", err)
	}

	riskLevel := web.Param(r, "risk_level")

	alloc, err := contract.ParseRiskLevel(riskLevel)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	c := contract.UpdateResourceAllocation{
		CityID:    cityID,
		RiskLevel: riskLevel,
		Authority: peer.RoleProvider,
	}

	block, err := h.mine(ctx, contract.NewTx(h.State.RetrieveMinerID(), recipientAll, c))
	if err != nil {
		return err
	}

	resp := allocationResult{
		CityID:    cityID,
		RiskLevel: alloc.RiskLevel,
		Allocated: alloc.Resources,
		Block:     block,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// QueryResources returns the allocations held by the resource store, or a
// single city when one is specified.
func (h Handlers) QueryResources(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.Store == nil {
		return errs.Newf(http.StatusServiceUnavailable, "resource store is disabled")
	}

	if param := web.Param(r, "city_id"); param != "" {
		res, err := h.queryCity(ctx, param)
		if err != nil {
			return err
		}
		return web.Respond(ctx, w, res, http.StatusOK)
	}

	resources, err := h.Store.Query(ctx)
	if err != nil {
		return fmt.Errorf("query resources: %w", err)
	}

	return web.Respond(ctx, w, resources, http.StatusOK)
}

// RequestCity serves the allocation of a city to a requester. The response
// is sent first and the request log is mined in the background.
func (h Handlers) RequestCity(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	if h.Store == nil {
		return errs.Newf(http.StatusServiceUnavailable, "resource store is disabled")
	}

	param := web.Param(r, "city_id")

	res, err := h.queryCity(ctx, param)
	if err != nil {
		return err
	}

	tx := database.NewTx(h.State.RetrieveMinerID(), h.State.RetrieveHost())
	tx.RequestInfo = "/request/" + param
	h.State.Worker.SignalMining(state.MineArgs{Transactions: []database.Tx{tx}})

	took := float64(time.Since(v.Now).Microseconds()) / 1000

	resp := cityResult{
		CityData: res,
		Message:  fmt.Sprintf("Data fetched and time it took was %.2f ms", took),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SubmitTransaction adds a raw transaction to the pending pool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var ntx newTx
	if err := web.Decode(r, &ntx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(ntx); err != nil {
		return err
	}

	tx := ntx.toTx()

	h.Log.Infow("submit tran", "traceid", web.GetTraceID(ctx), "tx", tx)
	index := h.State.SubmitTransaction(tx)

	resp := submitResult{
		Message: fmt.Sprintf("Transaction will be added to Block %d", index),
		Index:   index,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// =============================================================================

// mine syncs, mines and broadcasts a block holding the transaction.
func (h Handlers) mine(ctx context.Context, tx database.Tx) (database.Block, error) {
	h.Log.Infow("mine contract", "traceid", web.GetTraceID(ctx), "tx", tx)

	res, err := h.State.Mine(ctx, state.MineArgs{Transactions: []database.Tx{tx}})
	if err != nil {
		return database.Block{}, fmt.Errorf("mine: %w", err)
	}

	return res.Block, nil
}

// queryCity looks up the city named by the path parameter.
func (h Handlers) queryCity(ctx context.Context, param string) (resource.Resource, error) {
	cityID, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		return resource.Resource{}, errs.Newf(http.StatusBadRequest, "invalid city id: %w", err)
	}

	res, err := h.Store.QueryByID(ctx, cityID)
	if err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return resource.Resource{}, errs.Newf(http.StatusNotFound, "city %d not found", cityID)
		}
		return resource.Resource{}, fmt.Errorf("query city %d: %w", cityID, err)
	}

	return res, nil
}
