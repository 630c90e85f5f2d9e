// swap.go - Swap a shielded balance of one asset for another through an
// external exchange.
//
// The proof spends notes of AssetIn (leg 0, ext_amount < 0) and creates notes
// of AssetOut worth ext_min_amount_out (leg 1, no fee). Whatever the exchange
// delivers above the minimum is the relayer's fee, so the user always receives
// exactly the minimum and the pool rejects any swap that delivers less.

package swap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"shieldedpool/internal/zerocash"
)

// Request is a swap. Payload is the opaque exchange instruction; it must not
// be empty.
type Request struct {
	Proof           zerocash.CompressedProof
	ExtData         zerocash.SwapExtDataMinified
	EncryptedOutput []byte
	AssetIn         zerocash.Pubkey
	AssetOut        zerocash.Pubkey
	FeeRecipient    zerocash.Pubkey
	Payload         []byte
	Namespace       zerocash.Pubkey
}

// Result describes a settled swap.
type Result struct {
	Index       uint64
	AmountIn    uint64
	AmountOut   uint64 // everything the output reserve received
	RealizedFee uint64
}

// Validate runs every pure check of a swap in order.
func Validate(pool *zerocash.Pool, req *Request) (zerocash.SwapExtData, error) {
	proof := &req.Proof
	ext := req.ExtData.FromMinified(req.FeeRecipient)

	if err := pool.CheckNamespace(req.Namespace); err != nil {
		return ext, err
	}
	if req.AssetIn == req.AssetOut {
		return ext, fmt.Errorf("%w: swap from %s to itself", zerocash.ErrInvalidDirection, req.AssetIn)
	}

	// Step 1: Known root
	if err := pool.CheckRoot(proof.Root); err != nil {
		return ext, err
	}

	// Step 2: Ext data binding, bound to both assets
	computed := zerocash.SwapExtDataHash(ext, req.EncryptedOutput, req.AssetIn, req.AssetOut)
	if err := pool.CheckBinding(computed, proof.ExtDataHash); err != nil {
		return ext, err
	}

	// Step 3: Direction, swap-out only
	if ext.ExtAmount >= 0 {
		return ext, fmt.Errorf("%w: swap ext amount %d must be negative", zerocash.ErrInvalidDirection, ext.ExtAmount)
	}
	if ext.ExtMinAmountOut < 0 {
		return ext, fmt.Errorf("%w: min amount out %d must not be negative", zerocash.ErrInvalidDirection, ext.ExtMinAmountOut)
	}

	// Step 4: Public amounts for both legs
	if err := pool.CheckPublicAmount(0, ext.ExtAmount, ext.Fee, proof.PublicAmount0); err != nil {
		return ext, err
	}
	if err := pool.CheckPublicAmount(1, ext.ExtMinAmountOut, 0, proof.PublicAmount1); err != nil {
		return ext, err
	}

	// Step 5: Proof over both assets
	if err := pool.CheckProof(proof, req.AssetIn, req.AssetOut); err != nil {
		return ext, err
	}
	return ext, nil
}

// Process validates a swap and settles it through the pool's exchange adapter.
func Process(ctx context.Context, pool *zerocash.Pool, req *Request) (*Result, error) {
	ext, err := Validate(pool, req)
	if err != nil {
		return nil, err
	}
	amountIn := uint64(-ext.ExtAmount)
	minOut := uint64(ext.ExtMinAmountOut)
	source := pool.ReserveAccount(req.AssetIn)
	destination := pool.ReserveAccount(req.AssetOut)

	var received, fee uint64
	index, err := pool.Settle(ctx, &req.Proof, req.EncryptedOutput,
		func(ctx context.Context, s *zerocash.Settlement) (zerocash.Event, error) {
			if len(req.Payload) == 0 {
				return nil, fmt.Errorf("%w: empty swap payload", zerocash.ErrExternalAdapterFailure)
			}
			exchange := pool.Exchange()
			if exchange == nil {
				return nil, fmt.Errorf("%w: no exchange configured", zerocash.ErrExternalAdapterFailure)
			}

			// Step 1: Observe the output reserve around the exchange call
			before, err := s.Balance(ctx, destination, req.AssetOut)
			if err != nil {
				return nil, err
			}
			err = exchange.Swap(ctx, s.Ledger(), zerocash.SwapInstruction{
				Signer:       pool.Signer(),
				AssetIn:      req.AssetIn,
				AssetOut:     req.AssetOut,
				Source:       source,
				Destination:  destination,
				AmountIn:     amountIn,
				MinAmountOut: minOut,
				Payload:      req.Payload,
			})
			if err != nil {
				return nil, fmt.Errorf("%w: exchange: %v", zerocash.ErrExternalAdapterFailure, err)
			}
			after, err := s.Balance(ctx, destination, req.AssetOut)
			if err != nil {
				return nil, err
			}

			// Step 2: Slippage protection and realized fee
			if after < before {
				return nil, fmt.Errorf("%w: output reserve shrank from %d to %d",
					zerocash.ErrArithmeticOverflow, before, after)
			}
			received = after - before
			realized, err := RealizedFee(received, minOut, pool.MaxSwapFee())
			if err != nil {
				return nil, err
			}
			fee = realized

			// Step 3: Pay the relayer
			if fee > 0 {
				if err := s.Transfer(ctx, destination, ext.FeeRecipient, req.AssetOut, fee); err != nil {
					return nil, err
				}
			}
			return zerocash.SwapCompleted{
				AssetIn:   req.AssetIn,
				AssetOut:  req.AssetOut,
				AmountIn:  amountIn,
				AmountOut: received,
			}, nil
		})
	if err != nil {
		return nil, err
	}

	pool.Logger().Info("swap settled",
		zap.String("asset_in", req.AssetIn.String()),
		zap.String("asset_out", req.AssetOut.String()),
		zap.Uint64("amount_in", amountIn),
		zap.Uint64("amount_out", received),
		zap.Uint64("fee", fee),
		zap.Uint64("index", index),
	)
	return &Result{Index: index, AmountIn: amountIn, AmountOut: received, RealizedFee: fee}, nil
}

// RealizedFee is received - minOut, capped at maxFee when maxFee is non-zero.
// Anything above the cap stays in the reserve. Receiving less than minOut is a
// slippage violation.
func RealizedFee(received, minOut, maxFee uint64) (uint64, error) {
	if received < minOut {
		return 0, fmt.Errorf("%w: received %d, minimum %d", zerocash.ErrSlippageViolation, received, minOut)
	}
	fee := received - minOut
	if maxFee > 0 && fee > maxFee {
		fee = maxFee
	}
	return fee, nil
}
