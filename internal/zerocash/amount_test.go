package zerocash

import (
	"math"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/assert"
)

func be32(v *big.Int) [32]byte {
	var out [32]byte
	v.FillBytes(out[:])
	return out
}

func TestCheckPublicAmountDeposit(t *testing.T) {
	assert.True(t, CheckPublicAmount(1000, 10, be32(big.NewInt(990))))
	assert.False(t, CheckPublicAmount(1000, 10, be32(big.NewInt(991))))
	assert.False(t, CheckPublicAmount(1000, 10, be32(big.NewInt(1000))))
}

func TestCheckPublicAmountRejectsAmountNotAboveFee(t *testing.T) {
	claims := [][32]byte{
		{},
		be32(big.NewInt(5)),
		be32(new(big.Int).Sub(fr.Modulus(), big.NewInt(5))),
	}
	for _, claimed := range claims {
		assert.False(t, CheckPublicAmount(5, 10, claimed))
		assert.False(t, CheckPublicAmount(10, 10, claimed))
	}
	assert.False(t, CheckPublicAmount(0, 0, [32]byte{}))
}

func TestCheckPublicAmountWithdraw(t *testing.T) {
	expected := new(big.Int).Sub(fr.Modulus(), big.NewInt(505))
	assert.True(t, CheckPublicAmount(-500, 5, be32(expected)))
	assert.False(t, CheckPublicAmount(-500, 5, be32(big.NewInt(505))))
	assert.False(t, CheckPublicAmount(-500, 5, be32(new(big.Int).Sub(fr.Modulus(), big.NewInt(500)))))
}

func TestCheckPublicAmountRejectsMinInt64(t *testing.T) {
	for _, fee := range []uint64{0, 1, math.MaxUint64} {
		amount := new(big.Int).Neg(new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), 63), new(big.Int).SetUint64(fee)))
		amount.Mod(amount, fr.Modulus())
		assert.False(t, CheckPublicAmount(math.MinInt64, fee, be32(amount)))
	}
}

func TestCheckPublicAmountReducesClaim(t *testing.T) {
	// 990 + r is a non-canonical encoding of 990 and still fits in 32 bytes.
	claimed := new(big.Int).Add(fr.Modulus(), big.NewInt(990))
	assert.True(t, CheckPublicAmount(1000, 10, be32(claimed)))
}

func TestCheckPublicAmountIsPure(t *testing.T) {
	claimed := be32(big.NewInt(990))
	first := CheckPublicAmount(1000, 10, claimed)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, CheckPublicAmount(1000, 10, claimed))
	}
}

func TestEncodePublicAmountRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		ext int64
		fee uint64
	}{{1000, 10}, {-500, 5}, {math.MaxInt64, 0}, {-math.MaxInt64, math.MaxUint64}} {
		enc, ok := EncodePublicAmount(tc.ext, tc.fee)
		assert.True(t, ok)
		assert.True(t, CheckPublicAmount(tc.ext, tc.fee, enc), "ext=%d fee=%d", tc.ext, tc.fee)
	}
	_, ok := EncodePublicAmount(5, 10)
	assert.False(t, ok)
}

func TestIsZeroAmount(t *testing.T) {
	assert.True(t, IsZeroAmount([32]byte{}))
	assert.False(t, IsZeroAmount(be32(big.NewInt(1))))
	assert.False(t, IsZeroAmount(be32(fr.Modulus())))
}
