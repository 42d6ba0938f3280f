// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/roleledger/node/app/services/node/handlers/v1/contractgrp"
	"github.com/roleledger/node/app/services/node/handlers/v1/eventgrp"
	"github.com/roleledger/node/app/services/node/handlers/v1/nodegrp"
	"github.com/roleledger/node/business/data/resource"
	"github.com/roleledger/node/foundation/blockchain/state"
	"github.com/roleledger/node/foundation/events"
	"github.com/roleledger/node/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Store resource.Storer
	Evts  *events.Events
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	ngh := nodegrp.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	app.Handle(http.MethodGet, version, "/node/status", ngh.Status)
	app.Handle(http.MethodGet, version, "/node/chain", ngh.Chain)
	app.Handle(http.MethodGet, version, "/node/chain/summary", ngh.Summary)
	app.Handle(http.MethodGet, version, "/node/peers", ngh.Peers)
	app.Handle(http.MethodPost, version, "/node/peers/register", ngh.RegisterPeers)
	app.Handle(http.MethodPost, version, "/node/block/receive", ngh.ReceiveBlock)
	app.Handle(http.MethodGet, version, "/node/sync", ngh.Sync)
	app.Handle(http.MethodGet, version, "/node/mine", ngh.Mine)
	app.Handle(http.MethodPost, version, "/node/mine", ngh.Mine)
	app.Handle(http.MethodGet, version, "/node/metrics", ngh.Metrics)

	cgh := contractgrp.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Store: cfg.Store,
	}

	app.Handle(http.MethodGet, version, "/users", cgh.QueryUsers)
	app.Handle(http.MethodPost, version, "/users", cgh.AddUser)
	app.Handle(http.MethodPost, version, "/users/transfer", cgh.Transfer)
	app.Handle(http.MethodGet, version, "/users/:id", cgh.QueryUser)
	app.Handle(http.MethodGet, version, "/resources", cgh.QueryResources)
	app.Handle(http.MethodGet, version, "/resources/:city_id", cgh.QueryResources)
	app.Handle(http.MethodPost, version, "/resources/:city_id/:risk_level", cgh.UpdateResourceAllocation)
	app.Handle(http.MethodPost, version, "/requests/:city_id", cgh.RequestCity)
	app.Handle(http.MethodPost, version, "/tx/submit", cgh.SubmitTransaction)

	egh := eventgrp.Handlers{
		Log:  cfg.Log,
		WS:   websocket.Upgrader{},
		Evts: cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", egh.Events)
}
