// Package state is the core API for the chain engine and implements all
// the business rules and processing. It owns the one authoritative chain
// and transaction pool for the node, so every mutating operation runs
// under the state's lock.
package state

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/opencoin/blockchain/foundation/blockchain/ledger"
	"github.com/opencoin/blockchain/foundation/blockchain/mempool"
	"github.com/opencoin/blockchain/foundation/blockchain/peer"
	"github.com/opencoin/blockchain/foundation/blockchain/verify"
)

// EventHandler defines a function that is called when events occur in
// the processing of the chain.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by
// any package providing support for mining, transaction sharing, and
// consensus sweeps.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
	SignalShareTx(tx ledger.Tx)
}

// TxVerifier verifies a transaction signature against its sender
// identity. The cryptographic primitives live outside this package.
type TxVerifier interface {
	Verify(tx ledger.Tx) error
}

// PeerClient provides the node-to-node transport used for broadcasting
// and chain fetches. Implementations must treat every call as best
// effort, a failure against one peer never affects local state.
type PeerClient interface {
	FetchChain(ctx context.Context, pr peer.Peer) (ChainFetch, error)
	SendTx(ctx context.Context, pr peer.Peer, tx ledger.Tx) error
	SendBlock(ctx context.Context, pr peer.Peer, block ledger.Block) error
}

// ChainFetch is a peer's report of its chain.
type ChainFetch struct {
	Length int            `json:"length"`
	Chain  []ledger.Block `json:"chain"`
}

// =============================================================================

// Config represents the configuration required to start the chain state.
type Config struct {
	BeneficiaryID string
	ChainID       uuid.UUID
	Host          string
	Difficulty    int
	KnownPeers    *peer.Registry
	Client        PeerClient
	Verifier      TxVerifier
	EvHandler     EventHandler
}

// State manages the chain, the transaction pool, and the peer registry.
type State struct {
	mu sync.RWMutex

	beneficiaryID string
	chainID       uuid.UUID
	host          string
	difficulty    int
	evHandler     EventHandler

	chain      []ledger.Block
	mempool    *mempool.Mempool
	knownPeers *peer.Registry
	client     PeerClient
	verifier   TxVerifier

	// The worker is registered by the worker package on startup.
	Worker Worker
}

// New constructs a new chain state starting from the genesis block.
func New(cfg Config) (*State, error) {
	if cfg.Client == nil {
		return nil, errors.New("peer client is required")
	}
	if cfg.Verifier == nil {
		return nil, errors.New("transaction verifier is required")
	}

	if cfg.Difficulty <= 0 {
		cfg.Difficulty = verify.NetworkDifficulty
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewRegistry()
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	state := State{
		beneficiaryID: cfg.BeneficiaryID,
		chainID:       cfg.ChainID,
		host:          cfg.Host,
		difficulty:    cfg.Difficulty,
		evHandler:     ev,

		chain:      []ledger.Block{ledger.Genesis()},
		mempool:    mempool.New(),
		knownPeers: knownPeers,
		client:     cfg.Client,
		verifier:   cfg.Verifier,
	}

	return &state, nil
}

// Shutdown cleanly brings the chain state down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}
