package state

import (
	"github.com/google/uuid"
	"github.com/opencoin/blockchain/foundation/blockchain/ledger"
	"github.com/opencoin/blockchain/foundation/blockchain/peer"
)

// RetrieveChain returns a copy of the authoritative chain.
func (s *State) RetrieveChain() []ledger.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chain := make([]ledger.Block, len(s.chain))
	copy(chain, s.chain)
	return chain
}

// LatestBlock returns the last block of the chain.
func (s *State) LatestBlock() ledger.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.chain[len(s.chain)-1]
}

// ChainLength returns the number of blocks in the chain.
func (s *State) ChainLength() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.chain)
}

// RetrieveMempool returns a copy of the pending transactions in
// admission order.
func (s *State) RetrieveMempool() []ledger.Tx {
	return s.mempool.Copy()
}

// QueryMempoolLength returns the current number of pending transactions.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// RetrieveKnownPeers returns the registered peers in registration order.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// AddKnownPeer registers the specified address and reports whether it
// was new. The address must carry an explicit scheme.
func (s *State) AddKnownPeer(address string) (peer.Peer, bool, error) {
	pr, err := peer.New(address)
	if err != nil {
		return peer.Peer{}, false, err
	}

	added := s.knownPeers.Add(pr)
	if added {
		s.evHandler("state: AddKnownPeer: registered peer[%s]", pr.Host)
	}

	return pr, added, nil
}

// BeneficiaryID returns the identity receiving this node's mining
// rewards. Empty for keyless nodes.
func (s *State) BeneficiaryID() string {
	return s.beneficiaryID
}

// ChainID returns the unique identifier tagging this node's chain.
func (s *State) ChainID() uuid.UUID {
	return s.chainID
}

// Difficulty returns the difficulty this node mines at.
func (s *State) Difficulty() int {
	return s.difficulty
}

// RetrieveHost returns this node's own address.
func (s *State) RetrieveHost() string {
	return s.host
}
