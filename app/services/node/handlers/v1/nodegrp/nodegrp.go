// Package nodegrp maintains the group of handlers for node to node access.
package nodegrp

import (
	"context"
	"net/http"

	"github.com/roleledger/node/business/web/errs"
	"github.com/roleledger/node/foundation/blockchain/state"
	"github.com/roleledger/node/foundation/validate"
	"github.com/roleledger/node/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	summary := h.State.RetrieveSummary()

	st := status{
		Host:      h.State.RetrieveHost(),
		Role:      h.State.RetrieveRole(),
		Bootstrap: h.State.RetrieveBootstrapAddress(),
		Length:    summary.Length,
		LastHash:  summary.LastHash,
		Pending:   len(h.State.RetrievePending()),
		Peers:     len(h.State.RetrieveKnownPeers()),
	}

	return web.Respond(ctx, w, st, http.StatusOK)
}

// Chain returns the full local chain.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	chain := h.State.RetrieveChain()

	doc := state.ChainDocument{
		Chain:  chain,
		Length: uint64(len(chain)),
	}

	return web.Respond(ctx, w, doc, http.StatusOK)
}

// Summary returns the hash of the tip and the length of the local chain.
func (h Handlers) Summary(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveSummary(), http.StatusOK)
}

// Peers returns the set of known peers, not including this node.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	doc := state.PeersDocument{
		Peers: h.State.RetrievePeers(),
	}

	return web.Respond(ctx, w, doc, http.StatusOK)
}

// RegisterPeers adds the calling nodes to the registry and returns the
// full view of the network, this node first.
func (h Handlers) RegisterPeers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var doc state.RegisterDocument
	if err := web.Decode(r, &doc); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(doc); err != nil {
		return err
	}

	peers, err := h.State.RegisterPeers(doc.Nodes, doc.Role, doc.IsLocal)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("register peers", "traceid", web.GetTraceID(ctx), "nodes", doc.Nodes, "role", doc.Role, "local", doc.IsLocal)

	resp := state.PeersDocument{
		Message: "Nodes registered",
		Peers:   peers,
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// ReceiveBlock takes a block proposed by a peer, validates it and if that
// passes, adds the block to the local chain.
func (h Handlers) ReceiveBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var doc receiveDocument
	if err := web.Decode(r, &doc); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(doc); err != nil {
		return err
	}

	block := doc.Block.toBlock()

	outcome, err := h.State.ProcessProposedBlock(block)

	h.Log.Infow("receive block", "traceid", web.GetTraceID(ctx), "index", block.Index, "minedby", block.MinedBy, "outcome", outcome)

	switch outcome {
	case state.OutcomeAccepted:
		return web.Respond(ctx, w, state.MessageDocument{Message: "Block added"}, http.StatusCreated)

	case state.OutcomeAlreadyKnown:
		return web.Respond(ctx, w, state.MessageDocument{Message: "Block already exists"}, http.StatusOK)

	case state.OutcomeNeedsSync:
		return errs.Newf(http.StatusConflict, "chain out of sync, please sync")

	default:
		return errs.Newf(http.StatusBadRequest, "invalid proof or previous_hash: %w", err)
	}
}

// Sync pulls the longest valid chain known to the peers.
func (h Handlers) Sync(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	res, err := h.State.Sync(ctx)
	if err != nil {
		return err
	}

	resp := syncResult{
		Message:  "Our chain is up to date",
		Replaced: res.Replaced,
		Length:   res.Length,
		Peer:     res.Peer,
	}
	if res.Replaced {
		resp.Message = "Chain replaced"
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mine syncs with the network, mines a block holding the pending pool and
// broadcasts it to the peers.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	res, err := h.State.Mine(ctx, state.MineArgs{})
	if err != nil {
		return err
	}

	resp := mineResult{
		Message:    "New block forged",
		MineResult: res,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Metrics returns the averaged propagation samples and clears them.
func (h Handlers) Metrics(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveMetrics().Drain(), http.StatusOK)
}
