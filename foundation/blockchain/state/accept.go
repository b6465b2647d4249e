package state

import (
	"github.com/opencoin/blockchain/foundation/blockchain/ledger"
	"github.com/opencoin/blockchain/foundation/blockchain/verify"
)

// ProcessPeerBlock validates a block mined by a peer and appends it as
// the direct successor of the local chain. Accepted transactions are
// reconciled out of the pool. Anything that is not a direct successor is
// rejected here, forks are the consensus resolver's job.
func (s *State) ProcessPeerBlock(block ledger.Block) error {
	s.evHandler("state: ProcessPeerBlock: started: blk[%d]", block.Index)
	defer s.evHandler("state: ProcessPeerBlock: completed")

	// Stop an in-flight local mining run before mutating the chain.
	// The abandoned search restarts from the new tip if signaled again.
	if s.Worker != nil {
		s.Worker.SignalCancelMining()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The trailing transaction is the mining reward and is not part of
	// the proof.
	trans := block.Transactions
	if len(trans) > 0 {
		trans = trans[:len(trans)-1]
	}

	if !verify.ValidProof(block.Proof, trans, block.PrevHash, verify.NetworkDifficulty) {
		return ErrInvalidProof
	}

	if latest := s.chain[len(s.chain)-1]; block.PrevHash != latest.Hash() {
		return ErrPrevHashMismatch
	}

	s.chain = append(s.chain, block)

	// Reconcile the pool: one structural match removed per accepted
	// transaction. A miss is logged, never escalated, the block itself
	// was validly accepted.
	for _, tx := range block.Transactions {
		if tx.Sender == ledger.RewardSender {
			continue
		}
		if !s.mempool.Delete(tx) {
			s.evHandler("state: ProcessPeerBlock: WARNING: tx[%s -> %s, %.2f] not found in mempool", tx.Sender, tx.Recipient, tx.Amount)
		}
	}

	return nil
}
