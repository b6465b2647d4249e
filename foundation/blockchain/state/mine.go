package state

import (
	"context"
	"fmt"

	"github.com/opencoin/blockchain/foundation/blockchain/ledger"
	"github.com/opencoin/blockchain/foundation/blockchain/verify"
)

// MineNewBlock runs the mining pipeline: snapshot the pool, re-verify
// every pending signature, solve the proof of work, and append the new
// block carrying the reward transaction as its last entry. On success
// the pool is empty and the chain has grown by exactly one block. On any
// failure chain and pool are unchanged.
func (s *State) MineNewBlock(ctx context.Context) (ledger.Block, error) {
	if s.beneficiaryID == "" {
		return ledger.Block{}, ErrNoBeneficiary
	}

	// Work against a snapshot so a failed attempt never contaminates
	// the live pool.
	trans := s.mempool.Copy()

	s.evHandler("state: MineNewBlock: MINING: verify %d pending transactions", len(trans))

	// All-or-nothing: one bad signature aborts the whole attempt.
	for _, tx := range trans {
		if err := s.verifier.Verify(tx); err != nil {
			return ledger.Block{}, fmt.Errorf("pending transaction failed verification: %w", err)
		}
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW")

	prevBlock := s.LatestBlock()
	proof, err := proofOfWork(ctx, trans, prevBlock.Hash(), s.difficulty, s.evHandler)
	if err != nil {
		return ledger.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return ledger.Block{}, ctx.Err()
	}

	trans = append(trans, ledger.NewRewardTx(s.beneficiaryID))
	block := ledger.NewBlock(prevBlock, trans, proof)

	s.evHandler("state: MineNewBlock: MINING: update local state: blk[%d]", block.Index)

	s.mu.Lock()
	defer s.mu.Unlock()

	// A peer block may have been accepted while the POW was running.
	// The proof was solved against a tip that no longer exists, so the
	// block is worthless.
	if latest := s.chain[len(s.chain)-1]; block.PrevHash != latest.Hash() {
		return ledger.Block{}, ErrChainAdvanced
	}

	s.chain = append(s.chain, block)

	// Clear the pool entirely. Under the single-writer rule no new
	// transaction can have validly entered while mining.
	s.mempool.Truncate()

	return block, nil
}

// proofOfWork searches nonces 0,1,2,... in strictly increasing order
// until the difficulty predicate is satisfied. The search honors ctx so
// an accepted peer block can abandon it without corrupting any state.
func proofOfWork(ctx context.Context, trans []ledger.Tx, prevHash string, difficulty int, ev EventHandler) (uint64, error) {
	var proof uint64
	var attempts uint64

	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("state: proofOfWork: MINING: attempts[%d]", attempts)
		}

		if ctx.Err() != nil {
			ev("state: proofOfWork: MINING: CANCELLED")
			return 0, ctx.Err()
		}

		if verify.ValidProof(proof, trans, prevHash, difficulty) {
			ev("state: proofOfWork: MINING: SOLVED: proof[%d] attempts[%d]", proof, attempts)
			return proof, nil
		}

		proof++
	}
}
