package zerocash

import (
	"math"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// PublicAmount returns the field encoding of ext_amount net of fee:
// ext_amount - fee for deposits, -(|ext_amount| + fee) for withdrawals.
// ok is false when ext_amount is MinInt64 or a non-negative ext_amount does
// not exceed the fee.
func PublicAmount(extAmount int64, fee uint64) (amount fr.Element, ok bool) {
	if extAmount == math.MinInt64 {
		return amount, false
	}
	var feeFr, extFr fr.Element
	feeFr.SetUint64(fee)
	if extAmount >= 0 {
		if uint64(extAmount) <= fee {
			return amount, false
		}
		extFr.SetUint64(uint64(extAmount))
		amount.Sub(&extFr, &feeFr)
		return amount, true
	}
	extFr.SetUint64(uint64(-extAmount))
	amount.Add(&extFr, &feeFr)
	amount.Neg(&amount)
	return amount, true
}

// CheckPublicAmount reports whether claimed (big-endian, reduced mod r)
// encodes the public amount for ext_amount and fee.
func CheckPublicAmount(extAmount int64, fee uint64, claimed [32]byte) bool {
	expected, ok := PublicAmount(extAmount, fee)
	if !ok {
		return false
	}
	var got fr.Element
	got.SetBytes(claimed[:])
	return expected.Equal(&got)
}

// IsZeroAmount reports whether an unused leg carries the exact zero encoding.
// A non-canonical encoding of zero (for example the modulus) is rejected.
func IsZeroAmount(claimed [32]byte) bool {
	return claimed == [32]byte{}
}

// EncodePublicAmount is the client-side counterpart of CheckPublicAmount.
func EncodePublicAmount(extAmount int64, fee uint64) ([32]byte, bool) {
	amount, ok := PublicAmount(extAmount, fee)
	if !ok {
		return [32]byte{}, false
	}
	return amount.Bytes(), true
}
