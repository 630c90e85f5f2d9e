package swap_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shieldedpool/internal/transactions/swap"
	"shieldedpool/internal/zerocash"
	"shieldedpool/internal/zerocash/zerocashtest"
)

var (
	usd     = zerocashtest.Key("usd")
	eur     = zerocashtest.Key("eur")
	relayer = zerocashtest.Key("relayer")
	route   = []byte("usd->eur")
)

// With 1_000_000 usd and 2_000_000 eur at 30 bps, 1000 usd buys 1992 eur.
const quotedOut = 1992

func newFixture(t *testing.T, maxSwapFee uint64) *zerocashtest.Fixture {
	t.Helper()
	f, err := zerocashtest.NewFixture(zerocashtest.FixtureOptions{MaxSwapFee: maxSwapFee})
	require.NoError(t, err)
	require.NoError(t, f.Ledger.Mint(f.Exchange.Account, usd, 1_000_000))
	require.NoError(t, f.Ledger.Mint(f.Exchange.Account, eur, 2_000_000))
	require.NoError(t, f.Ledger.Mint(f.Pool.ReserveAccount(usd), usd, 10_000))
	return f
}

func newRequest(t *testing.T, f *zerocashtest.Fixture, amountIn, minOut int64, seed uint64) *swap.Request {
	t.Helper()
	encrypted := []byte("swap output")
	ext := zerocash.SwapExtData{ExtAmount: amountIn, ExtMinAmountOut: minOut, FeeRecipient: relayer}
	proof, err := f.SwapProof(ext, encrypted, usd, eur, zerocashtest.NotesFor(seed))
	require.NoError(t, err)
	return &swap.Request{
		Proof:           proof,
		ExtData:         zerocash.SwapExtDataMinified{ExtAmount: amountIn, ExtMinAmountOut: minOut},
		EncryptedOutput: encrypted,
		AssetIn:         usd,
		AssetOut:        eur,
		FeeRecipient:    relayer,
		Payload:         route,
	}
}

func balance(t *testing.T, f *zerocashtest.Fixture, account, asset zerocash.Pubkey) uint64 {
	t.Helper()
	b, err := f.Ledger.Balance(context.Background(), account, asset)
	require.NoError(t, err)
	return b
}

func TestSwapSettles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	res, err := swap.Process(ctx, f.Pool, newRequest(t, f, -1000, 1990, 0))
	require.NoError(t, err)
	assert.Equal(t, &swap.Result{Index: 0, AmountIn: 1000, AmountOut: quotedOut, RealizedFee: 2}, res)

	assert.Equal(t, uint64(9000), balance(t, f, f.Pool.ReserveAccount(usd), usd))
	assert.Equal(t, uint64(1990), balance(t, f, f.Pool.ReserveAccount(eur), eur))
	assert.Equal(t, uint64(2), balance(t, f, relayer, eur))

	events := f.Events.Events()
	require.Len(t, events, 2)
	assert.IsType(t, zerocash.CommitmentAppended{}, events[0])
	assert.Equal(t, zerocash.SwapCompleted{AssetIn: usd, AssetOut: eur, AmountIn: 1000, AmountOut: quotedOut}, events[1])
}

func TestSwapExactMinimumPaysNoFee(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	res, err := swap.Process(ctx, f.Pool, newRequest(t, f, -1000, quotedOut, 0))
	require.NoError(t, err)
	assert.Zero(t, res.RealizedFee)
	assert.Zero(t, balance(t, f, relayer, eur))
}

func TestSwapSlippage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	req := newRequest(t, f, -1000, quotedOut+1, 0)

	_, err := swap.Process(ctx, f.Pool, req)
	assert.ErrorIs(t, err, zerocash.ErrSlippageViolation)

	// The exchange leg was reversed along with everything else.
	assert.Equal(t, uint64(10_000), balance(t, f, f.Pool.ReserveAccount(usd), usd))
	assert.Zero(t, balance(t, f, f.Pool.ReserveAccount(eur), eur))
	assert.Equal(t, uint64(1_000_000), balance(t, f, f.Exchange.Account, usd))
	assert.Equal(t, uint64(2_000_000), balance(t, f, f.Exchange.Account, eur))
	assert.Zero(t, f.Tree.NextIndex())
	assert.False(t, f.Registry.Contains(f.Pool.NullifierIDs(&req.Proof)[0]))
	assert.Empty(t, f.Events.Events())
}

func TestSwapFeeCap(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10)

	res, err := swap.Process(ctx, f.Pool, newRequest(t, f, -1000, 1900, 0))
	require.NoError(t, err)
	assert.Equal(t, uint64(10), res.RealizedFee)
	assert.Equal(t, uint64(10), balance(t, f, relayer, eur))
	// The excess over the cap stays with the pool.
	assert.Equal(t, uint64(quotedOut-10), balance(t, f, f.Pool.ReserveAccount(eur), eur))
}

func TestSwapRequiresPayload(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	req := newRequest(t, f, -1000, 1990, 0)
	req.Payload = nil

	_, err := swap.Process(ctx, f.Pool, req)
	assert.ErrorIs(t, err, zerocash.ErrExternalAdapterFailure)
	assert.Zero(t, f.Tree.NextIndex())
	assert.False(t, f.Registry.Contains(f.Pool.NullifierIDs(&req.Proof)[1]))
}

func TestSwapExchangeFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)

	// The reserve only holds 10_000 usd.
	_, err := swap.Process(ctx, f.Pool, newRequest(t, f, -20_000, 0, 0))
	assert.ErrorIs(t, err, zerocash.ErrExternalAdapterFailure)
	assert.Equal(t, uint64(10_000), balance(t, f, f.Pool.ReserveAccount(usd), usd))
	assert.Zero(t, f.Tree.NextIndex())
}

func TestSwapDirection(t *testing.T) {
	f := newFixture(t, 0)

	_, err := swap.Validate(f.Pool, newRequest(t, f, 1000, 0, 0))
	assert.ErrorIs(t, err, zerocash.ErrInvalidDirection)

	_, err = swap.Validate(f.Pool, newRequest(t, f, -1000, -1, 0))
	assert.ErrorIs(t, err, zerocash.ErrInvalidDirection)
}

func TestSwapRejectsSameAsset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0)
	encrypted := []byte("swap output")
	ext := zerocash.SwapExtData{ExtAmount: -1000, ExtMinAmountOut: 900, FeeRecipient: relayer}
	proof, err := f.SwapProof(ext, encrypted, usd, usd, zerocashtest.NotesFor(0))
	require.NoError(t, err)
	req := &swap.Request{
		Proof:           proof,
		ExtData:         zerocash.SwapExtDataMinified{ExtAmount: -1000, ExtMinAmountOut: 900},
		EncryptedOutput: encrypted,
		AssetIn:         usd,
		AssetOut:        usd,
		FeeRecipient:    relayer,
		Payload:         route,
	}

	_, err = swap.Process(ctx, f.Pool, req)
	assert.ErrorIs(t, err, zerocash.ErrInvalidDirection)
	assert.Equal(t, "invalid_direction", zerocash.Kind(err))
	assert.Equal(t, uint64(10_000), balance(t, f, f.Pool.ReserveAccount(usd), usd))
	assert.Zero(t, balance(t, f, relayer, usd))
	assert.Zero(t, f.Tree.NextIndex())
}

func TestSwapValidation(t *testing.T) {
	f := newFixture(t, 0)

	req := newRequest(t, f, -1000, 1990, 0)
	req.AssetIn, req.AssetOut = req.AssetOut, req.AssetIn
	_, err := swap.Validate(f.Pool, req)
	assert.ErrorIs(t, err, zerocash.ErrBindingMismatch)

	req = newRequest(t, f, -1000, 1990, 0)
	req.ExtData.ExtMinAmountOut = 1
	_, err = swap.Validate(f.Pool, req)
	assert.ErrorIs(t, err, zerocash.ErrBindingMismatch)

	req = newRequest(t, f, -1000, 1990, 0)
	req.Proof.PublicAmount1 = zerocashtest.Field(1991)
	_, err = swap.Validate(f.Pool, req)
	assert.ErrorIs(t, err, zerocash.ErrInvalidPublicAmount)

	req = newRequest(t, f, -1000, 1990, 0)
	other := newRequest(t, f, -1000, 1990, 1)
	req.Proof.ProofC = other.Proof.ProofC
	_, err = swap.Validate(f.Pool, req)
	assert.ErrorIs(t, err, zerocash.ErrInvalidProof)
}

func TestSwapValidateIsPure(t *testing.T) {
	f := newFixture(t, 0)
	req := newRequest(t, f, -1000, 1990, 0)

	for i := 0; i < 3; i++ {
		_, err := swap.Validate(f.Pool, req)
		require.NoError(t, err)
	}
	assert.Equal(t, uint64(10_000), balance(t, f, f.Pool.ReserveAccount(usd), usd))
	assert.Zero(t, f.Tree.NextIndex())
}

func TestRealizedFee(t *testing.T) {
	fee, err := swap.RealizedFee(1992, 1990, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), fee)

	fee, err = swap.RealizedFee(1992, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), fee)

	_, err = swap.RealizedFee(1989, 1990, 0)
	assert.ErrorIs(t, err, zerocash.ErrSlippageViolation)

	fee, err = swap.RealizedFee(950, 900, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), fee)
	_, err = swap.RealizedFee(880, 900, 0)
	assert.ErrorIs(t, err, zerocash.ErrSlippageViolation)

	fee, err = swap.RealizedFee(900, 900, 10)
	require.NoError(t, err)
	assert.Zero(t, fee)
}
