package zerocash

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressG1RoundTrip(t *testing.T) {
	_, _, g1, _ := bn254.Generators()
	for k := int64(1); k <= 16; k++ {
		var p, neg bn254.G1Affine
		p.ScalarMultiplication(&g1, big.NewInt(k))
		neg.Neg(&p)

		for _, point := range []bn254.G1Affine{p, neg} {
			enc := CompressG1(&point)
			got, err := DecompressG1(enc)
			require.NoError(t, err)
			assert.True(t, got.Equal(&point), "k=%d", k)

			// Our largest flag tracks the lexicographically largest y.
			assert.Equal(t, point.Y.LexicographicallyLargest(), enc[0]&flagLargest != 0, "k=%d", k)
			assert.Zero(t, enc[0]&flagInfinity)
		}

		// P and -P share x and differ only in the sign flag.
		a, b := CompressG1(&p), CompressG1(&neg)
		assert.Equal(t, a[1:], b[1:])
		assert.Equal(t, flagLargest, a[0]^b[0])
	}
}

func TestCompressG1Infinity(t *testing.T) {
	var inf bn254.G1Affine
	enc := CompressG1(&inf)
	want := [32]byte{flagInfinity}
	assert.Equal(t, want, enc)

	got, err := DecompressG1(want)
	require.NoError(t, err)
	assert.True(t, got.IsInfinity())
}

func TestDecompressG1RejectsBadInput(t *testing.T) {
	_, _, g1, _ := bn254.Generators()
	enc := CompressG1(&g1)

	both := enc
	both[0] |= flagMask
	_, err := DecompressG1(both)
	assert.Error(t, err)

	// 4^3 + 3 is not a square in the base field, so x = 4 is off the curve.
	var offCurve [32]byte
	offCurve[31] = 4
	_, err = DecompressG1(offCurve)
	assert.Error(t, err)
}

func TestCompressG2RoundTrip(t *testing.T) {
	_, _, _, g2 := bn254.Generators()
	for k := int64(1); k <= 8; k++ {
		var p, neg bn254.G2Affine
		p.ScalarMultiplication(&g2, big.NewInt(k))
		neg.Neg(&p)

		for _, point := range []bn254.G2Affine{p, neg} {
			enc := CompressG2(&point)
			got, err := DecompressG2(enc)
			require.NoError(t, err)
			assert.True(t, got.Equal(&point), "k=%d", k)
		}

		a, b := CompressG2(&p), CompressG2(&neg)
		assert.Equal(t, a[1:], b[1:])
		assert.Equal(t, flagLargest, a[0]^b[0])
	}
}

func TestDecompressG2RejectsBothFlags(t *testing.T) {
	_, _, _, g2 := bn254.Generators()
	enc := CompressG2(&g2)
	enc[0] |= flagMask
	_, err := DecompressG2(enc)
	assert.Error(t, err)
}

func TestDefaultVerifyingKeyParses(t *testing.T) {
	vk, err := DefaultVerifyingKey()
	require.NoError(t, err)
	require.Len(t, vk.IC, NumPublicInputs+1)

	assert.True(t, vk.Alpha.IsOnCurve())
	assert.True(t, vk.Beta.IsInSubGroup())
	assert.True(t, vk.Gamma.IsInSubGroup())
	assert.True(t, vk.Delta.IsInSubGroup())
	for i := range vk.IC {
		assert.True(t, vk.IC[i].IsOnCurve(), "IC[%d]", i)
	}

	again, err := DefaultVerifyingKey()
	require.NoError(t, err)
	assert.Same(t, vk, again)

	_, err = NewVerifier(vk)
	assert.NoError(t, err)
}

func TestNewVerifierRejectsWrongWidth(t *testing.T) {
	_, err := NewVerifier(nil)
	assert.Error(t, err)

	vk, err := DefaultVerifyingKey()
	require.NoError(t, err)
	short := *vk
	short.IC = short.IC[:NumPublicInputs]
	_, err = NewVerifier(&short)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	vk, err := DefaultVerifyingKey()
	require.NoError(t, err)
	v, err := NewVerifier(vk)
	require.NoError(t, err)

	assert.False(t, v.Verify(nil, Pubkey{}, Pubkey{}))

	var proof CompressedProof
	for i := range proof.ProofA {
		proof.ProofA[i] = 0xff
	}
	assert.False(t, v.Verify(&proof, Pubkey{}, Pubkey{}))

	// Well-formed points that do not satisfy the pairing equation.
	_, _, g1, g2 := bn254.Generators()
	proof.ProofA = CompressG1(&g1)
	proof.ProofB = CompressG2(&g2)
	proof.ProofC = CompressG1(&g1)
	assert.False(t, v.Verify(&proof, Pubkey{}, Pubkey{}))
	assert.False(t, v.VerifyChecked(&proof, Pubkey{}, Pubkey{}))
}
