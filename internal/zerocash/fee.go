// fee.go - Fee policy arithmetic.
//
// expected = floor(|ext_amount| * rate / 10000)
// minimum  = floor(expected * (10000 - margin) / 10000), or 0 when expected is 0
//
// Intermediates are 256-bit and every step is checked. Overpayment is always
// accepted; a zero ext_amount has no fee basis and always passes.

package zerocash

import (
	"fmt"
	"math"

	"github.com/holiman/uint256"
)

// BasisPoints is the denominator of every rate and margin.
const BasisPoints = 10000

var basisPoints = uint256.NewInt(BasisPoints)

// MinimumFee returns the lowest fee the policy accepts for ext_amount.
func MinimumFee(extAmount int64, depositRate, withdrawalRate, margin uint16) (uint64, error) {
	var amount uint64
	var rate uint16
	switch {
	case extAmount > 0:
		amount, rate = uint64(extAmount), depositRate
	case extAmount < 0:
		if extAmount == math.MinInt64 {
			return 0, fmt.Errorf("%w: cannot negate ext amount %d", ErrArithmeticOverflow, extAmount)
		}
		amount, rate = uint64(-extAmount), withdrawalRate
	default:
		return 0, nil
	}

	expected, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(amount), uint256.NewInt(uint64(rate)))
	if overflow {
		return 0, fmt.Errorf("%w: %d * %d", ErrArithmeticOverflow, amount, rate)
	}
	expected.Div(expected, basisPoints)
	if !expected.IsUint64() {
		return 0, fmt.Errorf("%w: expected fee does not fit in 64 bits", ErrArithmeticOverflow)
	}
	if expected.IsZero() {
		return 0, nil
	}

	multiplier, underflow := new(uint256.Int).SubOverflow(basisPoints, uint256.NewInt(uint64(margin)))
	if underflow {
		return 0, fmt.Errorf("%w: margin %d exceeds %d", ErrArithmeticOverflow, margin, BasisPoints)
	}
	minimum, overflow := new(uint256.Int).MulOverflow(expected, multiplier)
	if overflow {
		return 0, fmt.Errorf("%w: minimum fee", ErrArithmeticOverflow)
	}
	minimum.Div(minimum, basisPoints)
	return minimum.Uint64(), nil
}

// ValidateFee rejects a fee below the policy minimum for ext_amount.
func ValidateFee(extAmount int64, fee uint64, depositRate, withdrawalRate, margin uint16) error {
	minimum, err := MinimumFee(extAmount, depositRate, withdrawalRate, margin)
	if err != nil {
		return err
	}
	if fee < minimum {
		return fmt.Errorf("%w: fee %d, minimum %d", ErrFeeTooLow, fee, minimum)
	}
	return nil
}
