package worker

import (
	"context"
	"time"
)

// sendTimeout is the maximum time spent broadcasting one transaction to
// the network.
const sendTimeout = 10 * time.Second

// shareTxOperations handles sharing new transactions with the known
// peers.
func (w *Worker) shareTxOperations() {
	w.evHandler("worker: shareTxOperations: G started")
	defer w.evHandler("worker: shareTxOperations: G completed")

	for {
		select {
		case tx := <-w.txSharing:
			if !w.isShutdown() {
				ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
				w.state.NetSendTxToPeers(ctx, tx)
				cancel()
			}
		case <-w.shut:
			w.evHandler("worker: shareTxOperations: received shut signal")
			return
		}
	}
}
