package state

import "errors"

var (
	// ErrInsufficientBalance is returned from transaction admission when
	// the sender's computed balance is below the transaction amount.
	ErrInsufficientBalance = errors.New("sender balance is below the transaction amount")

	// ErrInvalidProof is returned from block acceptance when the block's
	// proof of work does not validate at the network difficulty.
	ErrInvalidProof = errors.New("proof is not valid")

	// ErrPrevHashMismatch is returned from block acceptance when the
	// block does not directly succeed the local chain's latest block.
	// Forks are the consensus resolver's job.
	ErrPrevHashMismatch = errors.New("hash of latest block does not equal previous hash in the new block")

	// ErrNoBeneficiary is returned when mining is requested on a node
	// with no beneficiary identity. Mining is simply a no-op for keyless
	// nodes.
	ErrNoBeneficiary = errors.New("node has no beneficiary identity, mining disabled")

	// ErrChainAdvanced is returned when the chain tip moved while the
	// proof of work was running. A fresh mining attempt must start from
	// the new tip.
	ErrChainAdvanced = errors.New("chain advanced during mining")
)
