package state_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/opencoin/blockchain/foundation/blockchain/ledger"
	"github.com/opencoin/blockchain/foundation/blockchain/peer"
	"github.com/opencoin/blockchain/foundation/blockchain/state"
	"github.com/opencoin/blockchain/foundation/blockchain/verify"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================
// Test doubles for the injected collaborators.

// stubVerifier lets a test flip signature verification on and off.
type stubVerifier struct {
	err error
}

func (v *stubVerifier) Verify(tx ledger.Tx) error {
	return v.err
}

// fakeClient serves canned chain fetches keyed by peer host and records
// broadcasts.
type fakeClient struct {
	fetches    map[string]state.ChainFetch
	errs       map[string]error
	sentTxs    []ledger.Tx
	sentBlocks []ledger.Block
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		fetches: make(map[string]state.ChainFetch),
		errs:    make(map[string]error),
	}
}

func (c *fakeClient) FetchChain(ctx context.Context, pr peer.Peer) (state.ChainFetch, error) {
	if err := c.errs[pr.Host]; err != nil {
		return state.ChainFetch{}, err
	}
	return c.fetches[pr.Host], nil
}

func (c *fakeClient) SendTx(ctx context.Context, pr peer.Peer, tx ledger.Tx) error {
	c.sentTxs = append(c.sentTxs, tx)
	return nil
}

func (c *fakeClient) SendBlock(ctx context.Context, pr peer.Peer, block ledger.Block) error {
	c.sentBlocks = append(c.sentBlocks, block)
	return nil
}

// fakeWorker records the signals the state sends it.
type fakeWorker struct {
	cancelled int
	shared    []ledger.Tx
}

func (w *fakeWorker) Shutdown()           {}
func (w *fakeWorker) SignalStartMining()  {}
func (w *fakeWorker) SignalCancelMining() { w.cancelled++ }

func (w *fakeWorker) SignalShareTx(tx ledger.Tx) {
	w.shared = append(w.shared, tx)
}

// =============================================================================
// Helpers.

func newTestState(t *testing.T, beneficiary string, verifier state.TxVerifier) *state.State {
	t.Helper()

	st, err := state.New(state.Config{
		BeneficiaryID: beneficiary,
		ChainID:       uuid.New(),
		Host:          "http://localhost:9080",
		Difficulty:    verify.NetworkDifficulty,
		Client:        newFakeClient(),
		Verifier:      verifier,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould construct the state: %v", failed, err)
	}

	return st
}

// searchProof runs the same nonce search the miner runs.
func searchProof(t *testing.T, trans []ledger.Tx, prevHash string) uint64 {
	t.Helper()

	for proof := uint64(0); ; proof++ {
		if verify.ValidProof(proof, trans, prevHash, verify.NetworkDifficulty) {
			return proof
		}
	}
}

// mineSuccessor produces a valid direct successor of prev carrying the
// specified transactions plus the trailing reward.
func mineSuccessor(t *testing.T, prev ledger.Block, trans []ledger.Tx, beneficiary string) ledger.Block {
	t.Helper()

	proof := searchProof(t, trans, prev.Hash())
	trans = append(trans, ledger.NewRewardTx(beneficiary))

	return ledger.NewBlock(prev, trans, proof)
}

// buildChain mines a chain of the specified total length from genesis.
func buildChain(t *testing.T, length int, beneficiary string) []ledger.Block {
	t.Helper()

	chain := []ledger.Block{ledger.Genesis()}
	for len(chain) < length {
		chain = append(chain, mineSuccessor(t, chain[len(chain)-1], nil, beneficiary))
	}

	return chain
}

// =============================================================================

func TestNewState(t *testing.T) {
	t.Log("Given the need to validate the freshly constructed state.")
	{
		st := newTestState(t, "miner1", &stubVerifier{})

		if st.ChainLength() != 1 {
			t.Fatalf("\t%s\tShould start with a chain of length 1: got %d", failed, st.ChainLength())
		}
		t.Logf("\t%s\tShould start with a chain of length 1.", success)

		latest := st.LatestBlock()
		if latest.Index != 0 || latest.Proof != ledger.GenesisProof || latest.PrevHash != "" {
			t.Fatalf("\t%s\tShould start at the genesis block: %+v", failed, latest)
		}
		t.Logf("\t%s\tShould start at the genesis block.", success)

		if st.QueryMempoolLength() != 0 {
			t.Fatalf("\t%s\tShould start with an empty pool.", failed)
		}
		t.Logf("\t%s\tShould start with an empty pool.", success)
	}
}

func TestMiningLifecycle(t *testing.T) {
	t.Log("Given the need to validate the full mine and spend lifecycle.")
	{
		st := newTestState(t, "miner1", &stubVerifier{})
		ctx := context.Background()

		// Fund the miner with one reward.
		if _, err := st.MineNewBlock(ctx); err != nil {
			t.Fatalf("\t%s\tShould mine the funding block: %v", failed, err)
		}
		t.Logf("\t%s\tShould mine the funding block.", success)

		if st.Balance("miner1") != ledger.MiningReward {
			t.Fatalf("\t%s\tShould credit the reward to the miner: got %v", failed, st.Balance("miner1"))
		}
		t.Logf("\t%s\tShould credit the reward to the miner.", success)

		tx := ledger.NewTx("miner1", "B", 1, "sig")
		if err := st.SubmitWalletTransaction(tx); err != nil {
			t.Fatalf("\t%s\tShould admit a funded transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould admit a funded transaction.", success)

		block, err := st.MineNewBlock(ctx)
		if err != nil {
			t.Fatalf("\t%s\tShould mine the spending block: %v", failed, err)
		}
		t.Logf("\t%s\tShould mine the spending block.", success)

		if st.ChainLength() != 3 {
			t.Fatalf("\t%s\tShould grow the chain to length 3: got %d", failed, st.ChainLength())
		}
		t.Logf("\t%s\tShould grow the chain to length 3.", success)

		if st.QueryMempoolLength() != 0 {
			t.Fatalf("\t%s\tShould clear the pool after mining.", failed)
		}
		t.Logf("\t%s\tShould clear the pool after mining.", success)

		if len(block.Transactions) != 2 || !block.Transactions[0].Equal(tx) {
			t.Fatalf("\t%s\tShould include the admitted transaction: %+v", failed, block.Transactions)
		}
		t.Logf("\t%s\tShould include the admitted transaction.", success)

		last := block.Transactions[len(block.Transactions)-1]
		if last.Sender != ledger.RewardSender || last.Recipient != "miner1" {
			t.Fatalf("\t%s\tShould carry the reward as the last transaction: %+v", failed, last)
		}
		t.Logf("\t%s\tShould carry the reward as the last transaction.", success)

		if !verify.Chain(st.RetrieveChain()) {
			t.Fatalf("\t%s\tShould produce a chain that fully validates.", failed)
		}
		t.Logf("\t%s\tShould produce a chain that fully validates.", success)

		if st.Balance("B") != 1 || st.Balance("miner1") != 1 {
			t.Fatalf("\t%s\tShould settle balances: B[%v] miner1[%v]", failed, st.Balance("B"), st.Balance("miner1"))
		}
		t.Logf("\t%s\tShould settle balances.", success)
	}
}

func TestInsufficientBalance(t *testing.T) {
	t.Log("Given the need to reject overspending transactions.")
	{
		st := newTestState(t, "miner1", &stubVerifier{})
		ctx := context.Background()

		if err := st.SubmitWalletTransaction(ledger.NewTx("A", "B", 1, "sig")); !errors.Is(err, state.ErrInsufficientBalance) {
			t.Fatalf("\t%s\tShould reject a transaction from an unfunded identity: got %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a transaction from an unfunded identity.", success)

		if st.QueryMempoolLength() != 0 {
			t.Fatalf("\t%s\tShould leave the pool unchanged after a rejection.", failed)
		}
		t.Logf("\t%s\tShould leave the pool unchanged after a rejection.", success)

		// Pending spends must count against the balance.
		if _, err := st.MineNewBlock(ctx); err != nil {
			t.Fatalf("\t%s\tShould mine the funding block: %v", failed, err)
		}
		if err := st.SubmitWalletTransaction(ledger.NewTx("miner1", "B", 1, "sig")); err != nil {
			t.Fatalf("\t%s\tShould admit the first spend: %v", failed, err)
		}
		if err := st.SubmitWalletTransaction(ledger.NewTx("miner1", "B", 1, "sig2")); !errors.Is(err, state.ErrInsufficientBalance) {
			t.Fatalf("\t%s\tShould reject a second spend of the same funds: got %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a second spend of the same funds.", success)

		if st.Balance("miner1") != 0 {
			t.Fatalf("\t%s\tShould never report a negative balance: got %v", failed, st.Balance("miner1"))
		}
		t.Logf("\t%s\tShould never report a negative balance.", success)
	}
}

func TestMiningFailures(t *testing.T) {
	t.Log("Given the need to keep chain and pool intact on failed mining.")
	{
		ctx := context.Background()

		keyless := newTestState(t, "", &stubVerifier{})
		if _, err := keyless.MineNewBlock(ctx); !errors.Is(err, state.ErrNoBeneficiary) {
			t.Fatalf("\t%s\tShould refuse to mine without a beneficiary: got %v", failed, err)
		}
		t.Logf("\t%s\tShould refuse to mine without a beneficiary.", success)

		verifier := &stubVerifier{}
		st := newTestState(t, "miner1", verifier)

		if _, err := st.MineNewBlock(ctx); err != nil {
			t.Fatalf("\t%s\tShould mine the funding block: %v", failed, err)
		}
		if err := st.SubmitWalletTransaction(ledger.NewTx("miner1", "B", 1, "sig")); err != nil {
			t.Fatalf("\t%s\tShould admit the transaction: %v", failed, err)
		}

		// One bad signature aborts the whole attempt.
		verifier.err = errors.New("bad signature")
		if _, err := st.MineNewBlock(ctx); err == nil {
			t.Fatalf("\t%s\tShould abort mining on a failed verification.", failed)
		}
		t.Logf("\t%s\tShould abort mining on a failed verification.", success)

		if st.ChainLength() != 2 || st.QueryMempoolLength() != 1 {
			t.Fatalf("\t%s\tShould leave chain and pool unchanged: chain[%d] pool[%d]", failed, st.ChainLength(), st.QueryMempoolLength())
		}
		t.Logf("\t%s\tShould leave chain and pool unchanged.", success)

		// Cancellation must surface and leave state alone too.
		verifier.err = nil
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := st.MineNewBlock(cancelled); !errors.Is(err, context.Canceled) {
			t.Fatalf("\t%s\tShould surface a cancelled search: got %v", failed, err)
		}
		t.Logf("\t%s\tShould surface a cancelled search.", success)

		if st.ChainLength() != 2 || st.QueryMempoolLength() != 1 {
			t.Fatalf("\t%s\tShould leave chain and pool unchanged after cancel: chain[%d] pool[%d]", failed, st.ChainLength(), st.QueryMempoolLength())
		}
		t.Logf("\t%s\tShould leave chain and pool unchanged after cancel.", success)
	}
}

func TestProcessPeerBlock(t *testing.T) {
	t.Log("Given the need to validate acceptance of peer mined blocks.")
	{
		st := newTestState(t, "miner1", &stubVerifier{})
		worker := &fakeWorker{}
		st.Worker = worker

		// The peer confirms a transaction we also hold in our pool.
		tx := ledger.NewTx("A", "B", 0, "sig")
		if err := st.SubmitNodeTransaction(tx); err != nil {
			t.Fatalf("\t%s\tShould admit the zero amount transaction: %v", failed, err)
		}

		genesis := st.LatestBlock()
		block := mineSuccessor(t, genesis, []ledger.Tx{tx}, "miner2")

		if err := st.ProcessPeerBlock(block); err != nil {
			t.Fatalf("\t%s\tShould accept a valid successor block: %v", failed, err)
		}
		t.Logf("\t%s\tShould accept a valid successor block.", success)

		if st.ChainLength() != 2 {
			t.Fatalf("\t%s\tShould grow the chain: got %d", failed, st.ChainLength())
		}
		t.Logf("\t%s\tShould grow the chain.", success)

		if st.QueryMempoolLength() != 0 {
			t.Fatalf("\t%s\tShould reconcile the confirmed transaction out of the pool.", failed)
		}
		t.Logf("\t%s\tShould reconcile the confirmed transaction out of the pool.", success)

		if worker.cancelled == 0 {
			t.Fatalf("\t%s\tShould cancel any in-flight mining.", failed)
		}
		t.Logf("\t%s\tShould cancel any in-flight mining.", success)

		if !verify.Chain(st.RetrieveChain()) {
			t.Fatalf("\t%s\tShould keep the chain fully valid.", failed)
		}
		t.Logf("\t%s\tShould keep the chain fully valid.", success)

		// A block mined against a stale tip is not a direct successor.
		stale := mineSuccessor(t, genesis, nil, "miner2")
		if err := st.ProcessPeerBlock(stale); !errors.Is(err, state.ErrPrevHashMismatch) {
			t.Fatalf("\t%s\tShould reject a block with a stale previous hash: got %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a block with a stale previous hash.", success)

		// A tampered transaction invalidates the proof before anything else.
		forged := mineSuccessor(t, st.LatestBlock(), []ledger.Tx{ledger.NewTx("B", "C", 0, "sig")}, "miner2")
		forged.Transactions[0].Amount = 99
		if err := st.ProcessPeerBlock(forged); !errors.Is(err, state.ErrInvalidProof) {
			t.Fatalf("\t%s\tShould reject a block with an invalid proof: got %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a block with an invalid proof.", success)

		if st.ChainLength() != 2 {
			t.Fatalf("\t%s\tShould leave the chain unchanged after rejections: got %d", failed, st.ChainLength())
		}
		t.Logf("\t%s\tShould leave the chain unchanged after rejections.", success)
	}
}

func TestResolveConflicts(t *testing.T) {
	t.Log("Given the need to validate longest chain consensus.")
	{
		client := newFakeClient()
		registry := peer.NewRegistry()

		st, err := state.New(state.Config{
			BeneficiaryID: "miner1",
			ChainID:       uuid.New(),
			Host:          "http://localhost:9080",
			Difficulty:    verify.NetworkDifficulty,
			KnownPeers:    registry,
			Client:        client,
			Verifier:      &stubVerifier{},
		})
		if err != nil {
			t.Fatalf("\t%s\tShould construct the state: %v", failed, err)
		}

		down, _ := peer.New("http://node-down:9080")
		first, _ := peer.New("http://node-first:9080")
		second, _ := peer.New("http://node-second:9080")
		short, _ := peer.New("http://node-short:9080")
		registry.Add(down)
		registry.Add(first)
		registry.Add(second)
		registry.Add(short)

		firstChain := buildChain(t, 3, "minerA")
		secondChain := buildChain(t, 3, "minerB")
		shortChain := buildChain(t, 2, "minerC")

		client.errs[down.Host] = errors.New("connection refused")
		client.fetches[first.Host] = state.ChainFetch{Length: len(firstChain), Chain: firstChain}
		client.fetches[second.Host] = state.ChainFetch{Length: len(secondChain), Chain: secondChain}
		client.fetches[short.Host] = state.ChainFetch{Length: len(shortChain), Chain: shortChain}

		if !st.ResolveConflicts(context.Background()) {
			t.Fatalf("\t%s\tShould adopt a strictly longer valid chain.", failed)
		}
		t.Logf("\t%s\tShould adopt a strictly longer valid chain.", success)

		chain := st.RetrieveChain()
		if len(chain) != 3 {
			t.Fatalf("\t%s\tShould hold the longest chain: got length %d", failed, len(chain))
		}
		t.Logf("\t%s\tShould hold the longest chain.", success)

		// Two peers tied on length: the one registered first wins.
		if chain[len(chain)-1].Hash() != firstChain[len(firstChain)-1].Hash() {
			t.Fatalf("\t%s\tShould break length ties by registration order.", failed)
		}
		t.Logf("\t%s\tShould break length ties by registration order.", success)

		// Nothing longer on offer now, so nothing changes.
		if st.ResolveConflicts(context.Background()) {
			t.Fatalf("\t%s\tShould keep the local chain when no peer is longer.", failed)
		}
		t.Logf("\t%s\tShould keep the local chain when no peer is longer.", success)

		// A longer chain that fails validation is never adopted.
		forged := buildChain(t, 5, "minerD")
		forged[2].Transactions = []ledger.Tx{ledger.NewTx("A", "B", 99, "sig")}
		client.fetches[second.Host] = state.ChainFetch{Length: len(forged), Chain: forged}

		if st.ResolveConflicts(context.Background()) {
			t.Fatalf("\t%s\tShould refuse a longer chain that fails validation.", failed)
		}
		t.Logf("\t%s\tShould refuse a longer chain that fails validation.", success)

		if len(st.RetrieveChain()) != 3 {
			t.Fatalf("\t%s\tShould leave the local chain untouched: got length %d", failed, len(st.RetrieveChain()))
		}
		t.Logf("\t%s\tShould leave the local chain untouched.", success)
	}
}

// racingClient mines local blocks while a chain fetch is in flight, the
// way a live node keeps mining during a consensus sweep.
type racingClient struct {
	st     *state.State
	remote []ledger.Block
}

func (c *racingClient) FetchChain(ctx context.Context, pr peer.Peer) (state.ChainFetch, error) {
	for c.st.ChainLength() < 3 {
		if _, err := c.st.MineNewBlock(ctx); err != nil {
			return state.ChainFetch{}, err
		}
	}
	return state.ChainFetch{Length: len(c.remote), Chain: c.remote}, nil
}

func (c *racingClient) SendTx(ctx context.Context, pr peer.Peer, tx ledger.Tx) error {
	return nil
}

func (c *racingClient) SendBlock(ctx context.Context, pr peer.Peer, block ledger.Block) error {
	return nil
}

func TestResolveConflictsNeverShrinks(t *testing.T) {
	t.Log("Given the need to keep local blocks mined during a sweep.")
	{
		client := &racingClient{remote: buildChain(t, 2, "minerA")}
		registry := peer.NewRegistry()
		remote, _ := peer.New("http://node-remote:9080")
		registry.Add(remote)

		st, err := state.New(state.Config{
			BeneficiaryID: "miner1",
			ChainID:       uuid.New(),
			Host:          "http://localhost:9080",
			Difficulty:    verify.NetworkDifficulty,
			KnownPeers:    registry,
			Client:        client,
			Verifier:      &stubVerifier{},
		})
		if err != nil {
			t.Fatalf("\t%s\tShould construct the state: %v", failed, err)
		}
		client.st = st

		// The peer's chain beats the length snapshotted at sweep start,
		// but local mining passes it while the fetch is on the wire.
		if st.ResolveConflicts(context.Background()) {
			t.Fatalf("\t%s\tShould not adopt a chain the local one outgrew.", failed)
		}
		t.Logf("\t%s\tShould not adopt a chain the local one outgrew.", success)

		if st.ChainLength() != 3 {
			t.Fatalf("\t%s\tShould keep the longer local chain: got length %d", failed, st.ChainLength())
		}
		t.Logf("\t%s\tShould keep the longer local chain.", success)
	}
}

func TestResolveConflictsInflatedLength(t *testing.T) {
	t.Log("Given the need to distrust a peer's reported chain length.")
	{
		client := newFakeClient()
		registry := peer.NewRegistry()
		liar, _ := peer.New("http://node-liar:9080")
		registry.Add(liar)

		st, err := state.New(state.Config{
			BeneficiaryID: "miner1",
			ChainID:       uuid.New(),
			Host:          "http://localhost:9080",
			Difficulty:    verify.NetworkDifficulty,
			KnownPeers:    registry,
			Client:        client,
			Verifier:      &stubVerifier{},
		})
		if err != nil {
			t.Fatalf("\t%s\tShould construct the state: %v", failed, err)
		}

		ctx := context.Background()
		if _, err := st.MineNewBlock(ctx); err != nil {
			t.Fatalf("\t%s\tShould mine the first local block: %v", failed, err)
		}
		if _, err := st.MineNewBlock(ctx); err != nil {
			t.Fatalf("\t%s\tShould mine the second local block: %v", failed, err)
		}

		// The peer claims length 10 but delivers only 2 valid blocks.
		client.fetches[liar.Host] = state.ChainFetch{Length: 10, Chain: buildChain(t, 2, "minerA")}

		if st.ResolveConflicts(ctx) {
			t.Fatalf("\t%s\tShould not adopt a chain shorter than claimed.", failed)
		}
		t.Logf("\t%s\tShould not adopt a chain shorter than claimed.", success)

		if st.ChainLength() != 3 {
			t.Fatalf("\t%s\tShould keep the local chain: got length %d", failed, st.ChainLength())
		}
		t.Logf("\t%s\tShould keep the local chain.", success)
	}
}

func TestWorkerSignals(t *testing.T) {
	t.Log("Given the need to validate how submissions reach the worker.")
	{
		st := newTestState(t, "miner1", &stubVerifier{})
		worker := &fakeWorker{}
		st.Worker = worker

		if _, err := st.MineNewBlock(context.Background()); err != nil {
			t.Fatalf("\t%s\tShould mine the funding block: %v", failed, err)
		}

		tx := ledger.NewTx("miner1", "B", 1, "sig")
		if err := st.SubmitWalletTransaction(tx); err != nil {
			t.Fatalf("\t%s\tShould admit the wallet transaction: %v", failed, err)
		}

		if len(worker.shared) != 1 || !worker.shared[0].Equal(tx) {
			t.Fatalf("\t%s\tShould share a wallet transaction with the peers.", failed)
		}
		t.Logf("\t%s\tShould share a wallet transaction with the peers.", success)

		if _, err := st.MineNewBlock(context.Background()); err != nil {
			t.Fatalf("\t%s\tShould mine the spending block: %v", failed, err)
		}

		if err := st.SubmitNodeTransaction(ledger.NewTx("B", "C", 1, "sig")); err != nil {
			t.Fatalf("\t%s\tShould admit the node transaction: %v", failed, err)
		}

		if len(worker.shared) != 1 {
			t.Fatalf("\t%s\tShould not re-share a transaction received from a peer.", failed)
		}
		t.Logf("\t%s\tShould not re-share a transaction received from a peer.", success)
	}
}
