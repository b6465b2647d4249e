package state

import (
	"context"

	"github.com/opencoin/blockchain/foundation/blockchain/ledger"
)

// NetSendBlockToPeers shares a newly mined block with every known peer.
// Delivery is best effort, an unreachable peer is logged and skipped.
func (s *State) NetSendBlockToPeers(ctx context.Context, block ledger.Block) {
	s.evHandler("state: NetSendBlockToPeers: started: blk[%d]", block.Index)
	defer s.evHandler("state: NetSendBlockToPeers: completed")

	for _, pr := range s.knownPeers.Copy(s.host) {
		if err := s.client.SendBlock(ctx, pr, block); err != nil {
			s.evHandler("state: NetSendBlockToPeers: WARNING: peer[%s]: %s", pr.Host, err)
			continue
		}
		s.evHandler("state: NetSendBlockToPeers: sent to peer[%s]", pr.Host)
	}
}

// NetSendTxToPeers shares an admitted transaction with every known peer.
// Delivery is best effort.
func (s *State) NetSendTxToPeers(ctx context.Context, tx ledger.Tx) {
	s.evHandler("state: NetSendTxToPeers: started")
	defer s.evHandler("state: NetSendTxToPeers: completed")

	for _, pr := range s.knownPeers.Copy(s.host) {
		if err := s.client.SendTx(ctx, pr, tx); err != nil {
			s.evHandler("state: NetSendTxToPeers: WARNING: peer[%s]: %s", pr.Host, err)
		}
	}
}
