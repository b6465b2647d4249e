// Package private maintains the group of handlers for node-to-node
// access.
package private

import (
	"context"
	"errors"
	"net/http"

	"github.com/opencoin/blockchain/business/sys/validate"
	"github.com/opencoin/blockchain/business/web/errs"
	"github.com/opencoin/blockchain/foundation/blockchain/ledger"
	"github.com/opencoin/blockchain/foundation/blockchain/peer"
	"github.com/opencoin/blockchain/foundation/blockchain/state"
	"github.com/opencoin/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node-to-node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Status returns the current status of this node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest := h.State.LatestBlock()

	status := struct {
		ChainID           string      `json:"chain_id"`
		LatestBlockHash   string      `json:"latest_block_hash"`
		LatestBlockNumber uint64      `json:"latest_block_number"`
		KnownPeers        []peer.Peer `json:"known_peers"`
	}{
		ChainID:           h.State.ChainID().String(),
		LatestBlockHash:   latest.Hash(),
		LatestBlockNumber: latest.Index,
		KnownPeers:        h.State.RetrieveKnownPeers(),
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// Chain returns this node's chain in the form consumed by the consensus
// resolver of other nodes.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	chain := h.State.RetrieveChain()

	fetch := state.ChainFetch{
		Length: len(chain),
		Chain:  chain,
	}

	return web.Respond(ctx, w, fetch, http.StatusOK)
}

// SubmitNodeTransaction adds a transaction broadcast by a peer to the
// mempool.
func (h Handlers) SubmitNodeTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var tx ledger.Tx
	if err := web.Decode(r, &tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("add peer tran", "traceid", v.TraceID, "sender", tx.Sender, "recipient", tx.Recipient, "amount", tx.Amount)

	if err := h.State.SubmitNodeTransaction(tx); err != nil {
		if errors.Is(err, state.ErrInsufficientBalance) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return err
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ProposeBlock takes a block mined by a peer and attempts to append it
// to the local chain.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var block ledger.Block
	if err := web.Decode(r, &block); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := h.State.ProcessPeerBlock(block); err != nil {
		switch {
		case errors.Is(err, state.ErrInvalidProof), errors.Is(err, state.ErrPrevHashMismatch):

			// The caller decides whether to trigger conflict resolution.
			return errs.NewTrusted(err, http.StatusBadRequest)
		default:
			return err
		}
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "block accepted",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Peers returns the set of known peers in registration order.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveKnownPeers(), http.StatusOK)
}

// RegisterPeer adds a new peer address to the known peer set.
func (h Handlers) RegisterPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var rp registerPeer
	if err := web.Decode(r, &rp); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := validate.Check(rp); err != nil {
		return err
	}

	pr, added, err := h.State.AddKnownPeer(rp.Address)
	if err != nil {
		if errors.Is(err, peer.ErrMissingScheme) {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return err
	}

	resp := struct {
		Host  string `json:"host"`
		Added bool   `json:"added"`
	}{
		Host:  pr.Host,
		Added: added,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mine signals the worker to start a mining operation.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.State.Worker.SignalStartMining()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signaled",
	}

	return web.Respond(ctx, w, resp, http.StatusAccepted)
}

// Resolve runs the longest-chain consensus sweep against the known
// peers.
func (h Handlers) Resolve(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	replaced := h.State.ResolveConflicts(ctx)

	resp := struct {
		Replaced bool `json:"replaced"`
		Length   int  `json:"length"`
	}{
		Replaced: replaced,
		Length:   h.State.ChainLength(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
