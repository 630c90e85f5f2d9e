package withdraw_test

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shieldedpool/internal/transactions/withdraw"
	"shieldedpool/internal/zerocash"
	"shieldedpool/internal/zerocash/zerocashtest"
)

var (
	usd       = zerocashtest.Key("usd")
	recipient = zerocashtest.Key("recipient")
	relayer   = zerocashtest.Key("relayer")
)

func newFixture(t *testing.T, reserve uint64) *zerocashtest.Fixture {
	t.Helper()
	f, err := zerocashtest.NewFixture(zerocashtest.FixtureOptions{})
	require.NoError(t, err)
	require.NoError(t, f.Ledger.Mint(f.Pool.ReserveAccount(usd), usd, reserve))
	return f
}

func newRequest(t *testing.T, f *zerocashtest.Fixture, amount int64, fee uint64, seed uint64) *withdraw.Request {
	t.Helper()
	ext := zerocash.ExtData{Recipient: recipient, ExtAmount: amount, Fee: fee, FeeRecipient: relayer}
	proof, err := f.SingleAssetProof(ext, nil, usd, zerocashtest.NotesFor(seed))
	require.NoError(t, err)
	return &withdraw.Request{
		Proof:        proof,
		ExtData:      zerocash.ExtDataMinified{ExtAmount: amount, Fee: fee},
		Asset:        usd,
		Recipient:    recipient,
		FeeRecipient: relayer,
	}
}

func balance(t *testing.T, l zerocash.Ledger, account zerocash.Pubkey) uint64 {
	t.Helper()
	b, err := l.Balance(context.Background(), account, usd)
	require.NoError(t, err)
	return b
}

func TestWithdrawSettles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10_000)

	res, err := withdraw.Process(ctx, f.Pool, newRequest(t, f, -1000, 3, 0))
	require.NoError(t, err)
	assert.Equal(t, &withdraw.Result{Index: 0, Amount: 1000, Fee: 3}, res)

	assert.Equal(t, uint64(1000), balance(t, f.Ledger, recipient))
	assert.Equal(t, uint64(3), balance(t, f.Ledger, relayer))
	assert.Equal(t, uint64(10_000-1003), balance(t, f.Ledger, f.Pool.ReserveAccount(usd)))

	events := f.Events.Events()
	require.Len(t, events, 2)
	assert.IsType(t, zerocash.CommitmentAppended{}, events[0])
	assert.Equal(t, zerocash.WithdrawCompleted{Asset: usd, Amount: 1000}, events[1])
}

func TestWithdrawFeePolicy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 100_000)

	// 10000 * 25 / 10000 = 25, less a 5% margin = 23.
	_, err := withdraw.Process(ctx, f.Pool, newRequest(t, f, -10000, 22, 0))
	assert.ErrorIs(t, err, zerocash.ErrFeeTooLow)

	_, err = withdraw.Process(ctx, f.Pool, newRequest(t, f, -10000, 23, 1))
	assert.NoError(t, err)

	// Dust withdrawals round the fee down to zero.
	_, err = withdraw.Process(ctx, f.Pool, newRequest(t, f, -39, 0, 2))
	assert.NoError(t, err)
}

func TestWithdrawRejectsDepositAmount(t *testing.T) {
	f := newFixture(t, 10_000)
	_, err := withdraw.Validate(f.Pool, newRequest(t, f, 1000, 0, 0))
	assert.ErrorIs(t, err, zerocash.ErrInvalidDirection)
}

func TestWithdrawBindsRecipient(t *testing.T) {
	f := newFixture(t, 10_000)
	req := newRequest(t, f, -1000, 3, 0)
	req.Recipient = zerocashtest.Key("thief")
	_, err := withdraw.Validate(f.Pool, req)
	assert.ErrorIs(t, err, zerocash.ErrBindingMismatch)
}

func TestWithdrawInsufficientCustody(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 999)
	req := newRequest(t, f, -1000, 3, 0)

	_, err := withdraw.Process(ctx, f.Pool, req)
	assert.ErrorIs(t, err, zerocash.ErrInsufficientCustody)
	assert.Equal(t, "insufficient_custody", zerocash.Kind(err))
	assert.Equal(t, uint64(999), balance(t, f.Ledger, f.Pool.ReserveAccount(usd)))
	assert.Zero(t, balance(t, f.Ledger, relayer))
	assert.Zero(t, f.Tree.NextIndex())
	for _, id := range f.Pool.NullifierIDs(&req.Proof) {
		assert.False(t, f.Registry.Contains(id))
	}

	// Covering the amount but not the fee still leaves nothing behind.
	require.NoError(t, f.Ledger.Mint(f.Pool.ReserveAccount(usd), usd, 1))
	_, err = withdraw.Process(ctx, f.Pool, req)
	assert.ErrorIs(t, err, zerocash.ErrExternalAdapterFailure)
	assert.Equal(t, uint64(1000), balance(t, f.Ledger, f.Pool.ReserveAccount(usd)))
	assert.Zero(t, balance(t, f.Ledger, relayer))

	require.NoError(t, f.Ledger.Mint(f.Pool.ReserveAccount(usd), usd, 3))
	_, err = withdraw.Process(ctx, f.Pool, req)
	assert.NoError(t, err)
}

// recordingLedger remembers the destination of every transfer.
type recordingLedger struct {
	*zerocash.MemoryLedger

	mu  sync.Mutex
	tos []zerocash.Pubkey
}

func (l *recordingLedger) Transfer(ctx context.Context, from, to, asset zerocash.Pubkey, amount uint64) error {
	if err := l.MemoryLedger.Transfer(ctx, from, to, asset, amount); err != nil {
		return err
	}
	l.mu.Lock()
	l.tos = append(l.tos, to)
	l.mu.Unlock()
	return nil
}

func TestWithdrawPaysFeeFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	verifier, err := f.Prover.Verifier()
	require.NoError(t, err)
	ledger := &recordingLedger{MemoryLedger: zerocash.NewMemoryLedger()}
	pool, err := zerocash.NewPool(zerocash.PoolParams{
		Tree:     f.Tree,
		Config:   f.Config,
		Verifier: verifier,
		Registry: zerocash.NewMemoryRegistry(),
		Ledger:   ledger,
	})
	require.NoError(t, err)
	require.NoError(t, ledger.Mint(pool.ReserveAccount(usd), usd, 5000))

	_, err = withdraw.Process(ctx, pool, newRequest(t, f, -1000, 3, 0))
	require.NoError(t, err)
	assert.Equal(t, []zerocash.Pubkey{relayer, recipient}, ledger.tos)
}

func TestWithdrawZeroFeeSkipsRelayer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10_000)

	_, err := withdraw.Process(ctx, f.Pool, newRequest(t, f, -39, 0, 0))
	require.NoError(t, err)
	assert.Zero(t, balance(t, f.Ledger, relayer))
	assert.Equal(t, uint64(39), balance(t, f.Ledger, recipient))
}

// plusModulus returns v + r as a 32-byte big-endian value.
func plusModulus(v [32]byte) [32]byte {
	var out [32]byte
	new(big.Int).Add(new(big.Int).SetBytes(v[:]), fr.Modulus()).FillBytes(out[:])
	return out
}

func TestWithdrawRejectsAliasedNullifiers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10_000)
	req := newRequest(t, f, -1000, 3, 0)
	_, err := withdraw.Process(ctx, f.Pool, req)
	require.NoError(t, err)

	// nf + r satisfies the same proof, so the encoding itself must be refused.
	replay := *req
	replay.Proof.InputNullifiers[0] = plusModulus(req.Proof.InputNullifiers[0])
	replay.Proof.InputNullifiers[1] = plusModulus(req.Proof.InputNullifiers[1])
	_, err = withdraw.Process(ctx, f.Pool, &replay)
	assert.ErrorIs(t, err, zerocash.ErrInvalidProof)

	assert.Equal(t, uint64(1000), balance(t, f.Ledger, recipient))
	assert.Equal(t, uint64(10_000-1003), balance(t, f.Ledger, f.Pool.ReserveAccount(usd)))
	assert.Equal(t, uint64(2), f.Tree.NextIndex())

	// Settling directly still lands on the spent slots.
	_, err = f.Pool.Settle(ctx, &replay.Proof, nil, func(context.Context, *zerocash.Settlement) (zerocash.Event, error) {
		t.Fatal("value moved for an aliased nullifier")
		return nil, nil
	})
	assert.ErrorIs(t, err, zerocash.ErrDoubleSpend)
	assert.Equal(t, f.Pool.NullifierIDs(&req.Proof), f.Pool.NullifierIDs(&replay.Proof))
}
