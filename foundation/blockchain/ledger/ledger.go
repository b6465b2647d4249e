// Package ledger defines the immutable value types that make up the chain
// and the canonical hashing over them.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

const (
	// RewardSender is the distinguished sender identity carried by mining
	// reward transactions. Reward transactions have no signature.
	RewardSender = "0"

	// MiningReward is the amount credited to a miner for each block.
	MiningReward = 1.0

	// GenesisProof is the fixed proof carried by the genesis block.
	GenesisProof = 100
)

// =============================================================================

// Tx represents a single transfer between two identities. Values are
// immutable once constructed and equality is structural over all four
// fields. Construction performs no validation, that is the caller's job.
type Tx struct {
	Sender    string  `json:"sender"`
	Recipient string  `json:"recipient"`
	Amount    float64 `json:"amount"`
	Signature string  `json:"signature"`
}

// NewTx constructs a transaction from its fields.
func NewTx(sender string, recipient string, amount float64, signature string) Tx {
	return Tx{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
		Signature: signature,
	}
}

// NewRewardTx constructs the mining reward transaction for the specified
// beneficiary.
func NewRewardTx(beneficiary string) Tx {
	return Tx{
		Sender:    RewardSender,
		Recipient: beneficiary,
		Amount:    MiningReward,
	}
}

// Equal reports structural equality across all four fields.
func (tx Tx) Equal(otherTx Tx) bool {
	return tx == otherTx
}

// =============================================================================

// Block represents a group of transactions committed to the chain together.
type Block struct {
	Index        uint64 `json:"index"`
	TimeStamp    int64  `json:"timestamp"`
	Transactions []Tx   `json:"transactions"`
	Proof        uint64 `json:"proof"`
	PrevHash     string `json:"previous_hash"`
}

// NewBlock constructs the direct successor of prevBlock carrying the
// specified transactions and proof.
func NewBlock(prevBlock Block, trans []Tx, proof uint64) Block {
	return Block{
		Index:        prevBlock.Index + 1,
		TimeStamp:    time.Now().UTC().Unix(),
		Transactions: trans,
		Proof:        proof,
		PrevHash:     prevBlock.Hash(),
	}
}

// Genesis returns the fixed first block every chain starts from.
func Genesis() Block {
	return Block{
		Index:        0,
		TimeStamp:    0,
		Transactions: []Tx{},
		Proof:        GenesisProof,
		PrevHash:     "",
	}
}

// blockDigest is the deterministic, field-order-stable form of a block
// used for hashing. The timestamp is excluded so peers re-validating a
// block are independent of wall-clock jitter.
type blockDigest struct {
	Index        uint64 `json:"index"`
	Transactions []Tx   `json:"transactions"`
	Proof        uint64 `json:"proof"`
	PrevHash     string `json:"previous_hash"`
}

// Hash returns the canonical hash of the block. The hash is derived on
// demand and never stored, so it can't go stale.
func (b Block) Hash() string {
	trans := b.Transactions
	if trans == nil {
		trans = []Tx{}
	}

	return Hash(blockDigest{
		Index:        b.Index,
		Transactions: trans,
		Proof:        b.Proof,
		PrevHash:     b.PrevHash,
	})
}

// =============================================================================

// Hash returns the hex-encoded SHA-256 digest of the JSON encoding of
// the specified value. Struct fields marshal in declaration order, which
// keeps the digest deterministic.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ""
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
