package signature_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/opencoin/blockchain/foundation/blockchain/ledger"
	"github.com/opencoin/blockchain/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestSignVerify(t *testing.T) {
	t.Log("Given the need to validate the sign and verify round trip.")
	{
		privateKey, err := crypto.GenerateKey()
		if err != nil {
			t.Fatalf("\t%s\tShould generate a private key: %v", failed, err)
		}
		sender := signature.PublicKeyToIdentity(privateKey.PublicKey)

		tx, err := signature.Sign(ledger.NewTx(sender, "B", 5, ""), privateKey)
		if err != nil {
			t.Fatalf("\t%s\tShould sign the transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould sign the transaction.", success)

		if tx.Signature == "" {
			t.Fatalf("\t%s\tShould carry a signature after signing.", failed)
		}
		t.Logf("\t%s\tShould carry a signature after signing.", success)

		var verifier signature.Verifier
		if err := verifier.Verify(tx); err != nil {
			t.Fatalf("\t%s\tShould verify the signed transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould verify the signed transaction.", success)
	}
}

func TestVerifyFailures(t *testing.T) {
	t.Log("Given the need to reject forged or tampered transactions.")
	{
		privateKey, err := crypto.GenerateKey()
		if err != nil {
			t.Fatalf("\t%s\tShould generate a private key: %v", failed, err)
		}
		sender := signature.PublicKeyToIdentity(privateKey.PublicKey)

		tx, err := signature.Sign(ledger.NewTx(sender, "B", 5, ""), privateKey)
		if err != nil {
			t.Fatalf("\t%s\tShould sign the transaction: %v", failed, err)
		}

		var verifier signature.Verifier

		tampered := tx
		tampered.Amount = 50
		if err := verifier.Verify(tampered); err == nil {
			t.Fatalf("\t%s\tShould reject a transaction with a tampered amount.", failed)
		}
		t.Logf("\t%s\tShould reject a transaction with a tampered amount.", success)

		stolen := tx
		stolen.Sender = "0x0000000000000000000000000000000000000001"
		if err := verifier.Verify(stolen); err == nil {
			t.Fatalf("\t%s\tShould reject a transaction claiming another sender.", failed)
		}
		t.Logf("\t%s\tShould reject a transaction claiming another sender.", success)

		unsigned := ledger.NewTx(sender, "B", 5, "")
		if err := verifier.Verify(unsigned); err == nil {
			t.Fatalf("\t%s\tShould reject an unsigned transaction.", failed)
		}
		t.Logf("\t%s\tShould reject an unsigned transaction.", success)
	}
}
