package worker

import (
	"context"
	"time"
)

// resolveTimeout is the maximum time spent on one sweep over the known
// peers.
const resolveTimeout = 30 * time.Second

// consensusOperations periodically checks the known peers for a longer
// valid chain and adopts it if found.
func (w *Worker) consensusOperations() {
	w.evHandler("worker: consensusOperations: G started")
	defer w.evHandler("worker: consensusOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runConsensusOperation()
			}
		case <-w.shut:
			w.evHandler("worker: consensusOperations: received shut signal")
			return
		}
	}
}

// runConsensusOperation performs one longest-chain sweep.
func (w *Worker) runConsensusOperation() {
	w.evHandler("worker: runConsensusOperation: started")
	defer w.evHandler("worker: runConsensusOperation: completed")

	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	if w.state.ResolveConflicts(ctx) {
		w.evHandler("worker: runConsensusOperation: chain replaced: length[%d]", w.state.ChainLength())
	}
}
