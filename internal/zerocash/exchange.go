// exchange.go - Exchange adapter interface and a constant-product simulator.

package zerocash

import (
	"context"
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// SwapInstruction is what the pool hands to the exchange adapter. Source and
// Destination are the pool reserves for the two assets; Signer is the pool's
// delegated authority over them. Payload is opaque routing data.
type SwapInstruction struct {
	Signer       Pubkey
	AssetIn      Pubkey
	AssetOut     Pubkey
	Source       Pubkey
	Destination  Pubkey
	AmountIn     uint64
	MinAmountOut uint64
	Payload      []byte
}

// Exchange executes a swap through ledger. When Swap returns nil the
// destination balance already reflects the output.
type Exchange interface {
	Swap(ctx context.Context, ledger Ledger, in SwapInstruction) error
}

// ErrNoLiquidity is returned by the simulator when a side of the market is empty.
var ErrNoLiquidity = errors.New("no liquidity")

// ConstantProductExchange prices swaps with x*y=k against the balances its
// Account holds on the ledger. FeeBps is taken from the input side.
type ConstantProductExchange struct {
	Account Pubkey
	FeeBps  uint16
}

// Quote returns the output for amountIn given the current reserves.
func (x *ConstantProductExchange) Quote(ctx context.Context, ledger Ledger, assetIn, assetOut Pubkey, amountIn uint64) (uint64, error) {
	reserveIn, err := ledger.Balance(ctx, x.Account, assetIn)
	if err != nil {
		return 0, err
	}
	reserveOut, err := ledger.Balance(ctx, x.Account, assetOut)
	if err != nil {
		return 0, err
	}
	if reserveIn == 0 || reserveOut == 0 {
		return 0, fmt.Errorf("%w: %s/%s", ErrNoLiquidity, assetIn, assetOut)
	}
	if x.FeeBps > BasisPoints {
		return 0, fmt.Errorf("%w: exchange fee %d", ErrInvalidFeeRate, x.FeeBps)
	}

	// out = reserveOut * in' / (reserveIn + in'), in' = amountIn * (1 - fee)
	inWithFee := new(uint256.Int).Mul(uint256.NewInt(amountIn), uint256.NewInt(uint64(BasisPoints-x.FeeBps)))
	num := new(uint256.Int).Mul(inWithFee, uint256.NewInt(reserveOut))
	den := new(uint256.Int).Mul(uint256.NewInt(reserveIn), basisPoints)
	den.Add(den, inWithFee)
	out := num.Div(num, den)
	return out.Uint64(), nil
}

// Swap moves AmountIn from Source into the market and the quoted output from
// the market to Destination.
func (x *ConstantProductExchange) Swap(ctx context.Context, ledger Ledger, in SwapInstruction) error {
	if len(in.Payload) == 0 {
		return errors.New("empty swap payload")
	}
	out, err := x.Quote(ctx, ledger, in.AssetIn, in.AssetOut, in.AmountIn)
	if err != nil {
		return err
	}
	if err := ledger.Transfer(ctx, in.Source, x.Account, in.AssetIn, in.AmountIn); err != nil {
		return fmt.Errorf("swap input: %w", err)
	}
	if err := ledger.Transfer(ctx, x.Account, in.Destination, in.AssetOut, out); err != nil {
		return fmt.Errorf("swap output: %w", err)
	}
	return nil
}
