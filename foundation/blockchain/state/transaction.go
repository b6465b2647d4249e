package state

import (
	"github.com/opencoin/blockchain/foundation/blockchain/ledger"
	"github.com/opencoin/blockchain/foundation/blockchain/verify"
)

// SubmitWalletTransaction accepts a transaction from a wallet client,
// admits it to the pool under the balance rule, and shares it with the
// known peers.
func (s *State) SubmitWalletTransaction(tx ledger.Tx) error {
	return s.submitTransaction(tx, true)
}

// SubmitNodeTransaction accepts a transaction broadcast by a peer node.
// It is admitted under the same balance rule but not re-shared, so a
// broadcast never loops through the network.
func (s *State) SubmitNodeTransaction(tx ledger.Tx) error {
	return s.submitTransaction(tx, false)
}

func (s *State) submitTransaction(tx ledger.Tx, share bool) error {
	s.evHandler("state: submitTransaction: tx[%s -> %s, %.2f]", tx.Sender, tx.Recipient, tx.Amount)

	s.mu.Lock()
	{
		balanceOf := func(identity string) float64 {
			return computeBalance(identity, s.chain, s.mempool.Copy())
		}

		if !verify.Transaction(tx, balanceOf) {
			s.mu.Unlock()
			return ErrInsufficientBalance
		}

		s.mempool.Append(tx)
	}
	s.mu.Unlock()

	if share && s.Worker != nil {
		s.Worker.SignalShareTx(tx)
	}

	return nil
}
