// Package signature provides the signing and identity-recovery support
// used by wallets and transaction verification.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/opencoin/blockchain/foundation/blockchain/ledger"
)

// ErrMissingSignature is returned when verifying a transaction that
// carries no signature.
var ErrMissingSignature = errors.New("transaction carries no signature")

// PublicKeyToIdentity converts the public key to the identity string
// recorded on the chain.
func PublicKeyToIdentity(pk ecdsa.PublicKey) string {
	return crypto.PubkeyToAddress(pk).String()
}

// Sign signs the transaction with the specified private key and returns
// a copy carrying the hex-encoded signature.
func Sign(tx ledger.Tx, privateKey *ecdsa.PrivateKey) (ledger.Tx, error) {
	data, err := stamp(tx)
	if err != nil {
		return ledger.Tx{}, err
	}

	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return ledger.Tx{}, fmt.Errorf("signing transaction: %w", err)
	}

	tx.Signature = hexutil.Encode(sig)
	return tx, nil
}

// Verifier implements signature verification against the sender
// identity. It satisfies the verifier capability the chain state needs.
type Verifier struct{}

// Verify recovers the public key behind the transaction's signature and
// checks it resolves to the sender identity.
func (Verifier) Verify(tx ledger.Tx) error {
	if tx.Signature == "" {
		return ErrMissingSignature
	}

	sig, err := hexutil.Decode(tx.Signature)
	if err != nil {
		return fmt.Errorf("decoding signature: %w", err)
	}

	if len(sig) != crypto.SignatureLength {
		return fmt.Errorf("signature length is %d, exp %d", len(sig), crypto.SignatureLength)
	}

	data, err := stamp(tx)
	if err != nil {
		return err
	}

	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return fmt.Errorf("recovering public key: %w", err)
	}

	if identity := crypto.PubkeyToAddress(*publicKey).String(); identity != tx.Sender {
		return fmt.Errorf("signature identity %s does not match sender %s", identity, tx.Sender)
	}

	return nil
}

// stamp returns the digest the signature is computed over. The signature
// field itself is excluded so signing and verification hash the same
// bytes.
func stamp(tx ledger.Tx) ([]byte, error) {
	value := struct {
		Sender    string  `json:"sender"`
		Recipient string  `json:"recipient"`
		Amount    float64 `json:"amount"`
	}{
		Sender:    tx.Sender,
		Recipient: tx.Recipient,
		Amount:    tx.Amount,
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshaling transaction: %w", err)
	}

	hash := sha256.Sum256(data)
	return hash[:], nil
}
