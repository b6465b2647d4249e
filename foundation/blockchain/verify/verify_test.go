package verify_test

import (
	"testing"

	"github.com/opencoin/blockchain/foundation/blockchain/ledger"
	"github.com/opencoin/blockchain/foundation/blockchain/verify"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// searchProof runs the nonce search the miner runs, kept small by using
// a low difficulty.
func searchProof(t *testing.T, trans []ledger.Tx, prevHash string, difficulty int) uint64 {
	t.Helper()

	for proof := uint64(0); ; proof++ {
		if verify.ValidProof(proof, trans, prevHash, difficulty) {
			return proof
		}
	}
}

func TestTransaction(t *testing.T) {
	t.Log("Given the need to validate transaction admission checks.")
	{
		balances := map[string]float64{"A": 5}
		balanceOf := func(identity string) float64 { return balances[identity] }

		if !verify.Transaction(ledger.NewTx("A", "B", 5, "sig"), balanceOf) {
			t.Fatalf("\t%s\tShould admit a transaction spending the full balance.", failed)
		}
		t.Logf("\t%s\tShould admit a transaction spending the full balance.", success)

		if verify.Transaction(ledger.NewTx("A", "B", 6, "sig"), balanceOf) {
			t.Fatalf("\t%s\tShould reject a transaction exceeding the balance.", failed)
		}
		t.Logf("\t%s\tShould reject a transaction exceeding the balance.", success)

		if verify.Transaction(ledger.NewTx("C", "B", 1, "sig"), balanceOf) {
			t.Fatalf("\t%s\tShould reject a transaction from an unfunded identity.", failed)
		}
		t.Logf("\t%s\tShould reject a transaction from an unfunded identity.", success)
	}
}

func TestValidProof(t *testing.T) {
	t.Log("Given the need to validate the proof of work predicate.")
	{
		trans := []ledger.Tx{ledger.NewTx("A", "B", 1, "sig")}
		prevHash := ledger.Genesis().Hash()

		proof := searchProof(t, trans, prevHash, 2)
		if !verify.ValidProof(proof, trans, prevHash, 2) {
			t.Fatalf("\t%s\tShould accept a proof found by search.", failed)
		}
		t.Logf("\t%s\tShould accept a proof found by search.", success)

		if proof > 0 && verify.ValidProof(proof-1, trans, prevHash, 2) {
			t.Fatalf("\t%s\tShould reject the proof one below the found one.", failed)
		}
		t.Logf("\t%s\tShould reject proofs the search passed over.", success)

		if verify.ValidProof(proof, trans, "different", 2) {
			t.Fatalf("\t%s\tShould reject the proof against a different previous hash.", failed)
		}
		t.Logf("\t%s\tShould reject the proof against a different previous hash.", success)

		other := []ledger.Tx{ledger.NewTx("A", "B", 2, "sig")}
		if verify.ValidProof(proof, other, prevHash, 2) {
			t.Fatalf("\t%s\tShould reject the proof against different transactions.", failed)
		}
		t.Logf("\t%s\tShould reject the proof against different transactions.", success)

		if !verify.ValidProof(12345, trans, prevHash, 0) {
			t.Fatalf("\t%s\tShould accept any proof at difficulty zero.", failed)
		}
		t.Logf("\t%s\tShould accept any proof at difficulty zero.", success)

		// Nil and empty transaction slices must agree so proofs survive
		// a round trip over the wire.
		emptyProof := searchProof(t, []ledger.Tx{}, prevHash, 2)
		if !verify.ValidProof(emptyProof, nil, prevHash, 2) {
			t.Fatalf("\t%s\tShould treat nil and empty transactions the same.", failed)
		}
		t.Logf("\t%s\tShould treat nil and empty transactions the same.", success)
	}
}

// buildChain mines blocks on top of genesis at the network difficulty so
// the resulting chain passes full verification.
func buildChain(t *testing.T, blocks int) []ledger.Block {
	t.Helper()

	chain := []ledger.Block{ledger.Genesis()}
	for i := 0; i < blocks; i++ {
		prev := chain[len(chain)-1]
		trans := []ledger.Tx{ledger.NewTx("A", "B", 0, "sig")}
		proof := searchProof(t, trans, prev.Hash(), verify.NetworkDifficulty)
		trans = append(trans, ledger.NewRewardTx("miner1"))
		chain = append(chain, ledger.NewBlock(prev, trans, proof))
	}

	return chain
}

func TestChain(t *testing.T) {
	t.Log("Given the need to validate full chain verification.")
	{
		chain := buildChain(t, 2)
		if !verify.Chain(chain) {
			t.Fatalf("\t%s\tShould accept a chain of mined blocks.", failed)
		}
		t.Logf("\t%s\tShould accept a chain of mined blocks.", success)

		if !verify.Chain([]ledger.Block{ledger.Genesis()}) {
			t.Fatalf("\t%s\tShould accept a chain of only the genesis block.", failed)
		}
		t.Logf("\t%s\tShould accept a chain of only the genesis block.", success)

		broken := make([]ledger.Block, len(chain))
		copy(broken, chain)
		broken[1].PrevHash = "0000000000000000000000000000000000000000000000000000000000000000"
		if verify.Chain(broken) {
			t.Fatalf("\t%s\tShould reject a chain with a broken hash link.", failed)
		}
		t.Logf("\t%s\tShould reject a chain with a broken hash link.", success)

		forged := make([]ledger.Block, len(chain))
		copy(forged, chain)
		forged[2].Transactions = append([]ledger.Tx{ledger.NewTx("A", "B", 99, "sig")}, forged[2].Transactions[1:]...)
		if verify.Chain(forged) {
			t.Fatalf("\t%s\tShould reject a chain with tampered transactions.", failed)
		}
		t.Logf("\t%s\tShould reject a chain with tampered transactions.", success)
	}
}
