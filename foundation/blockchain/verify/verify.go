// Package verify implements the pure validation rules for transactions,
// proofs of work, and complete chains.
package verify

import (
	"github.com/opencoin/blockchain/foundation/blockchain/ledger"
)

// NetworkDifficulty is the difficulty every node validates peer blocks
// and whole chains at. A node configured to mine at a different
// difficulty produces blocks the rest of the network rejects. Whether
// difficulty should instead travel inside each block is an open product
// decision, so the two values are deliberately kept apart.
const NetworkDifficulty = 4

// BalanceFunc returns the spendable balance for an identity.
type BalanceFunc func(identity string) float64

// Transaction reports whether the sender holds enough balance to fund
// the transaction. Reward transactions never pass through here, they are
// appended by the mining pipeline after this check has already run.
func Transaction(tx ledger.Tx, balanceOf BalanceFunc) bool {
	return balanceOf(tx.Sender) >= tx.Amount
}

// =============================================================================

// proofDigest is the deterministic form hashed by the proof-of-work
// predicate.
type proofDigest struct {
	Transactions []ledger.Tx `json:"transactions"`
	Proof        uint64      `json:"proof"`
	PrevHash     string      `json:"previous_hash"`
}

// ValidProof reports whether the digest over the transactions, proof and
// previous hash starts with difficulty leading zero characters in its
// hex form. Deterministic and free of side effects.
func ValidProof(proof uint64, trans []ledger.Tx, prevHash string, difficulty int) bool {
	const match = "00000000000000000"

	if trans == nil {
		trans = []ledger.Tx{}
	}

	hash := ledger.Hash(proofDigest{
		Transactions: trans,
		Proof:        proof,
		PrevHash:     prevHash,
	})

	if len(hash) != 64 || difficulty > len(match) {
		return false
	}

	return hash[:difficulty] == match[:difficulty]
}

// Chain walks the specified chain and validates every block links to its
// parent by hash and carries a proof that solves the puzzle at the
// network difficulty. The trailing transaction of each block is the
// mining reward and is not part of the proof.
func Chain(chain []ledger.Block) bool {
	for i := 1; i < len(chain); i++ {
		block := chain[i]

		if block.PrevHash != chain[i-1].Hash() {
			return false
		}

		trans := block.Transactions
		if len(trans) > 0 {
			trans = trans[:len(trans)-1]
		}

		if !ValidProof(block.Proof, trans, block.PrevHash, NetworkDifficulty) {
			return false
		}
	}

	return true
}
