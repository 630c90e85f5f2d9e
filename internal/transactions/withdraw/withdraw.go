package withdraw

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"shieldedpool/internal/zerocash"
)

// Request is a withdrawal. Recipient and FeeRecipient come from the host
// context and are bound into the ext data hash.
type Request struct {
	Proof           zerocash.CompressedProof
	ExtData         zerocash.ExtDataMinified
	EncryptedOutput []byte
	Asset           zerocash.Pubkey
	Recipient       zerocash.Pubkey
	FeeRecipient    zerocash.Pubkey
	Namespace       zerocash.Pubkey
}

// Result describes a settled withdrawal.
type Result struct {
	Index  uint64
	Amount uint64
	Fee    uint64
}

// Validate runs every pure check of a withdrawal in order.
func Validate(pool *zerocash.Pool, req *Request) (zerocash.ExtData, error) {
	proof := &req.Proof
	ext := req.ExtData.FromMinified(req.Recipient, req.FeeRecipient)

	if err := pool.CheckNamespace(req.Namespace); err != nil {
		return ext, err
	}

	// Step 1: Known root
	if err := pool.CheckRoot(proof.Root); err != nil {
		return ext, err
	}

	// Step 2: Ext data binding
	computed := zerocash.ExtDataHash(ext, req.EncryptedOutput, req.Asset, req.Asset)
	if err := pool.CheckBinding(computed, proof.ExtDataHash); err != nil {
		return ext, err
	}

	// Step 3: Public amounts
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

	// Step 6: Direction
	if ext.ExtAmount >= 0 {
		return ext, fmt.Errorf("%w: withdrawal ext amount %d must be negative", zerocash.ErrInvalidDirection, ext.ExtAmount)
	}
	return ext, nil
}

// Process validates a withdrawal and settles it. The reserve must hold the
// withdrawn amount; the fee is paid before the recipient.
func Process(ctx context.Context, pool *zerocash.Pool, req *Request) (*Result, error) {
	ext, err := Validate(pool, req)
	if err != nil {
		return nil, err
	}
	amount := uint64(-ext.ExtAmount)
	reserve := pool.ReserveAccount(req.Asset)

	index, err := pool.Settle(ctx, &req.Proof, req.EncryptedOutput,
		func(ctx context.Context, s *zerocash.Settlement) (zerocash.Event, error) {
			balance, err := s.Balance(ctx, reserve, req.Asset)
			if err != nil {
				return nil, err
			}
			if balance < amount {
				return nil, fmt.Errorf("%w: reserve holds %d, withdrawal needs %d",
					zerocash.ErrInsufficientCustody, balance, amount)
			}
			if ext.Fee > 0 {
				if err := s.Transfer(ctx, reserve, ext.FeeRecipient, req.Asset, ext.Fee); err != nil {
					return nil, err
				}
			}
			if err := s.Transfer(ctx, reserve, ext.Recipient, req.Asset, amount); err != nil {
				return nil, err
			}
			return zerocash.WithdrawCompleted{Asset: req.Asset, Amount: amount}, nil
		})
	if err != nil {
		return nil, err
	}

	pool.Logger().Info("withdrawal settled",
		zap.String("asset", req.Asset.String()),
		zap.Uint64("amount", amount),
		zap.Uint64("fee", ext.Fee),
		zap.Uint64("index", index),
	)
	return &Result{Index: index, Amount: amount, Fee: ext.Fee}, nil
}
