package zerocash

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFeeFloor(t *testing.T) {
	minimum, err := MinimumFee(10000, 100, 0, 500)
	require.NoError(t, err)
	assert.Equal(t, uint64(95), minimum)

	assert.NoError(t, ValidateFee(10000, 95, 100, 0, 500))
	assert.NoError(t, ValidateFee(10000, 1_000_000, 100, 0, 500))
	assert.ErrorIs(t, ValidateFee(10000, 94, 100, 0, 500), ErrFeeTooLow)
}

func TestValidateFeeUsesDirectionRate(t *testing.T) {
	// Withdrawal: 10000 * 25 / 10000 = 25, 25 * 9500 / 10000 = 23.
	minimum, err := MinimumFee(-10000, 100, 25, 500)
	require.NoError(t, err)
	assert.Equal(t, uint64(23), minimum)
	assert.NoError(t, ValidateFee(-10000, 23, 100, 25, 500))
	assert.ErrorIs(t, ValidateFee(-10000, 22, 100, 25, 500), ErrFeeTooLow)

	// A zero deposit rate leaves deposits free.
	assert.NoError(t, ValidateFee(10000, 0, 0, 25, 500))
}

func TestValidateFeeZeroAmountAlwaysAccepts(t *testing.T) {
	assert.NoError(t, ValidateFee(0, 0, 10000, 10000, 10000))
	assert.NoError(t, ValidateFee(0, 0, math.MaxUint16, math.MaxUint16, math.MaxUint16))
}

func TestValidateFeeDustRoundsToZero(t *testing.T) {
	// 39 * 25 / 10000 floors to 0, so the minimum is 0 despite a non-zero rate.
	minimum, err := MinimumFee(-39, 0, 25, 500)
	require.NoError(t, err)
	assert.Zero(t, minimum)

	// 400 * 25 / 10000 = 1, 1 * 9500 / 10000 floors to 0.
	minimum, err = MinimumFee(-400, 0, 25, 500)
	require.NoError(t, err)
	assert.Zero(t, minimum)

	minimum, err = MinimumFee(-400, 0, 25, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), minimum)
}

func TestValidateFeeOverflow(t *testing.T) {
	_, err := MinimumFee(math.MinInt64, 0, 25, 500)
	assert.ErrorIs(t, err, ErrArithmeticOverflow)

	// The expected fee no longer fits in 64 bits.
	_, err = MinimumFee(math.MaxInt64, math.MaxUint16, 0, 0)
	assert.ErrorIs(t, err, ErrArithmeticOverflow)

	// A margin above 100% cannot be subtracted.
	_, err = MinimumFee(10000, 100, 0, BasisPoints+1)
	assert.ErrorIs(t, err, ErrArithmeticOverflow)

	// ...but is never reached when the expected fee is zero.
	_, err = MinimumFee(10, 100, 0, BasisPoints+1)
	assert.NoError(t, err)
}

func TestValidateFeeLargeAmounts(t *testing.T) {
	minimum, err := MinimumFee(math.MaxInt64, BasisPoints, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxInt64), minimum)
}
