package state

import (
	"github.com/opencoin/blockchain/foundation/blockchain/ledger"
)

// Balance derives the spendable balance for an identity. Funds received
// in confirmed blocks count, funds received in pending transactions do
// not (unconfirmed income can't be spent), and funds sent count whether
// confirmed or pending. This rescans the whole chain plus pool on every
// call.
func (s *State) Balance(identity string) float64 {
	s.mu.RLock()
	chain := make([]ledger.Block, len(s.chain))
	copy(chain, s.chain)
	s.mu.RUnlock()

	return computeBalance(identity, chain, s.mempool.Copy())
}

// computeBalance scans the specified chain and pool snapshots.
func computeBalance(identity string, chain []ledger.Block, pool []ledger.Tx) float64 {
	var received float64
	var sent float64

	for _, block := range chain {
		for _, tx := range block.Transactions {
			if tx.Recipient == identity {
				received += tx.Amount
			}
			if tx.Sender == identity {
				sent += tx.Amount
			}
		}
	}

	for _, tx := range pool {
		if tx.Sender == identity {
			sent += tx.Amount
		}
	}

	return received - sent
}
