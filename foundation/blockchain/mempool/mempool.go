// Package mempool maintains the ordered pool of transactions waiting to
// be mined into a block.
package mempool

import (
	"sync"

	"github.com/opencoin/blockchain/foundation/blockchain/ledger"
)

// Mempool represents the pending transactions for a node. Transactions
// keep their admission order so every scan over the pool is
// deterministic.
type Mempool struct {
	mu   sync.RWMutex
	pool []ledger.Tx
}

// New constructs a new empty mempool.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Append adds the transaction to the end of the pool.
func (mp *Mempool) Append(tx ledger.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = append(mp.pool, tx)
}

// Copy returns a snapshot of the pool in admission order. Mutating the
// snapshot never contaminates the live pool.
func (mp *Mempool) Copy() []ledger.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	pool := make([]ledger.Tx, len(mp.pool))
	copy(pool, mp.pool)
	return pool
}

// Delete removes the first transaction structurally equal to tx and
// reports whether a match was found. With duplicate pending entries only
// one is removed per call.
func (mp *Mempool) Delete(tx ledger.Tx) bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for i, pendingTx := range mp.pool {
		if pendingTx.Equal(tx) {
			mp.pool = append(mp.pool[:i], mp.pool[i+1:]...)
			return true
		}
	}

	return false
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = nil
}
