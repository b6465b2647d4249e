package state

import (
	"context"

	"github.com/opencoin/blockchain/foundation/blockchain/ledger"
	"github.com/opencoin/blockchain/foundation/blockchain/verify"
)

// ResolveConflicts applies the longest-chain rule across the known
// peers. The local chain is replaced only by a strictly longer chain
// that independently validates in full, re-checked against the live
// chain under the lock so a sweep can never shrink what local mining
// built in the meantime. Unreachable peers are skipped.
// Peers are consulted in registration order, so when two peers report
// the same longest length the one registered first wins. The pool is
// intentionally left untouched, stale entries fail at mining time.
// Reports whether a replacement occurred, never an error.
func (s *State) ResolveConflicts(ctx context.Context) bool {
	s.evHandler("state: ResolveConflicts: started")
	defer s.evHandler("state: ResolveConflicts: completed")

	s.mu.RLock()
	best := len(s.chain)
	s.mu.RUnlock()

	var newChain []ledger.Block

	for _, pr := range s.knownPeers.Copy(s.host) {
		fetch, err := s.client.FetchChain(ctx, pr)
		if err != nil {
			s.evHandler("state: ResolveConflicts: peer[%s]: unreachable: %s", pr.Host, err)
			continue
		}

		// Only the blocks that actually arrived count. The reported
		// length is advisory and a peer can inflate it.
		if len(fetch.Chain) <= best {
			continue
		}

		if !verify.Chain(fetch.Chain) {
			s.evHandler("state: ResolveConflicts: peer[%s]: chain of length %d failed validation", pr.Host, len(fetch.Chain))
			continue
		}

		best = len(fetch.Chain)
		newChain = fetch.Chain
	}

	if newChain == nil {
		return false
	}

	// Abandon any in-flight mining, its parent block is gone.
	if s.Worker != nil {
		s.Worker.SignalCancelMining()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Local mining may have appended blocks while the fetches were on
	// the wire. The candidate must still be strictly longer than the
	// chain it is replacing, the chain never shrinks.
	if len(newChain) <= len(s.chain) {
		s.evHandler("state: ResolveConflicts: candidate of length %d no longer beats local length %d", len(newChain), len(s.chain))
		return false
	}

	s.evHandler("state: ResolveConflicts: replacing chain: new length[%d]", len(newChain))

	s.chain = newChain

	return true
}
