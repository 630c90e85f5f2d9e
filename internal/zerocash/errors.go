package zerocash

import (
	"errors"
	"fmt"

	"shieldedpool/internal/merkle"
)

// Every rejection the pool can produce. Callers match them with errors.Is;
// the pipeline wraps them with context.
var (
	ErrUnknownRoot            = errors.New("unknown or stale merkle root")
	ErrBindingMismatch        = errors.New("ext data hash mismatch")
	ErrInvalidPublicAmount    = errors.New("invalid public amount")
	ErrInvalidProof           = errors.New("invalid proof")
	ErrFeeTooLow              = errors.New("fee below policy minimum")
	ErrInvalidDirection       = errors.New("invalid ext amount direction")
	ErrCapacityExceeded       = merkle.ErrCapacityExceeded
	ErrDepositLimitExceeded   = fmt.Errorf("deposit limit exceeded: %w", ErrCapacityExceeded)
	ErrDoubleSpend            = errors.New("double-spend detected: nullifier already registered")
	ErrInsufficientCustody    = errors.New("insufficient custody balance for withdrawal")
	ErrSlippageViolation      = errors.New("swap output below minimum amount out")
	ErrArithmeticOverflow     = errors.New("arithmetic overflow")
	ErrExternalAdapterFailure = errors.New("external adapter failure")
	ErrUnauthorized           = merkle.ErrUnauthorized
	ErrInvalidFeeRate         = errors.New("fee rate exceeds 10000 basis points")
	ErrInvalidNamespace       = errors.New("nullifier namespace is not the canonical one")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrUnknownRoot, "unknown_root"},
	{ErrBindingMismatch, "binding_mismatch"},
	{ErrInvalidPublicAmount, "invalid_public_amount"},
	{ErrInvalidProof, "invalid_proof"},
	{ErrFeeTooLow, "fee_too_low"},
	{ErrInvalidDirection, "invalid_direction"},
	// Deposit limit wraps capacity, so it must be matched first.
	{ErrDepositLimitExceeded, "deposit_limit_exceeded"},
	{ErrCapacityExceeded, "capacity_exceeded"},
	{ErrDoubleSpend, "double_spend"},
	{ErrInsufficientCustody, "insufficient_custody"},
	{ErrSlippageViolation, "slippage_violation"},
	{ErrArithmeticOverflow, "arithmetic_overflow"},
	{ErrExternalAdapterFailure, "external_adapter_failure"},
	{ErrUnauthorized, "unauthorized"},
	{ErrInvalidFeeRate, "invalid_fee_rate"},
	{ErrInvalidNamespace, "invalid_namespace"},
}

// Kind returns a stable code for err, "ok" for nil and "internal" for errors
// outside the pool taxonomy.
func Kind(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}
