package deposit

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"shieldedpool/internal/zerocash"
)

// Request is a deposit as submitted by a client, together with the identities
// the host resolved for it. The binding recipient is always the pool reserve
// for Asset; clients never choose it.
type Request struct {
	Proof           zerocash.CompressedProof
	ExtData         zerocash.ExtDataMinified
	EncryptedOutput []byte
	Asset           zerocash.Pubkey
	Payer           zerocash.Pubkey
	FeeRecipient    zerocash.Pubkey
	Namespace       zerocash.Pubkey
}

// Result describes a settled deposit.
type Result struct {
	Index  uint64 // index of the first appended commitment
	Amount uint64
	Fee    uint64
}

// Validate runs every pure check of a deposit in order. It mutates nothing.
func Validate(pool *zerocash.Pool, req *Request) (zerocash.ExtData, error) {
	proof := &req.Proof
	ext := req.ExtData.FromMinified(pool.ReserveAccount(req.Asset), req.FeeRecipient)

	if err := pool.CheckNamespace(req.Namespace); err != nil {
		return ext, err
	}

	// Step 1: The proof must be built against a known root
	if err := pool.CheckRoot(proof.Root); err != nil {
		return ext, err
	}

	// Step 2: The proof must commit to this exact ext data
	computed := zerocash.ExtDataHash(ext, req.EncryptedOutput, req.Asset, req.Asset)
	if err := pool.CheckBinding(computed, proof.ExtDataHash); err != nil {
		return ext, err
	}

	// Step 3: Public amounts, leg 1 unused
	if err := pool.CheckSingleAssetAmounts(ext.ExtAmount, ext.Fee, proof); err != nil {
		return ext, err
	}

	// Step 4: Fee policy
	if err := pool.CheckFee(ext.ExtAmount, ext.Fee); err != nil {
		return ext, err
	}

	// Step 5: Proof
	if err := pool.CheckProof(proof, req.Asset, req.Asset); err != nil {
		return ext, err
	}

	// Step 6: Direction and deposit limit
	if ext.ExtAmount <= 0 {
		return ext, fmt.Errorf("%w: deposit ext amount %d must be positive", zerocash.ErrInvalidDirection, ext.ExtAmount)
	}
	if limit := pool.Tree().MaxDepositAmount(); uint64(ext.ExtAmount) > limit {
		return ext, fmt.Errorf("%w: %d > %d", zerocash.ErrDepositLimitExceeded, ext.ExtAmount, limit)
	}
	return ext, nil
}

// Process validates a deposit and settles it: the nullifiers are registered,
// the amount moves from the payer to the reserve, the fee to the fee recipient,
// and the two output commitments are appended.
func Process(ctx context.Context, pool *zerocash.Pool, req *Request) (*Result, error) {
	ext, err := Validate(pool, req)
	if err != nil {
		return nil, err
	}
	amount := uint64(ext.ExtAmount)
	reserve := ext.Recipient

	index, err := pool.Settle(ctx, &req.Proof, req.EncryptedOutput,
		func(ctx context.Context, s *zerocash.Settlement) (zerocash.Event, error) {
			if err := s.Transfer(ctx, req.Payer, reserve, req.Asset, amount); err != nil {
				return nil, err
			}
			if ext.Fee > 0 {
				if err := s.Transfer(ctx, req.Payer, ext.FeeRecipient, req.Asset, ext.Fee); err != nil {
					return nil, err
				}
			}
			return zerocash.DepositCompleted{Asset: req.Asset, Amount: amount}, nil
		})
	if err != nil {
		return nil, err
	}

	pool.Logger().Info("deposit settled",
		zap.String("asset", req.Asset.String()),
		zap.Uint64("amount", amount),
		zap.Uint64("fee", ext.Fee),
		zap.Uint64("index", index),
	)
	return &Result{Index: index, Amount: amount, Fee: ext.Fee}, nil
}
