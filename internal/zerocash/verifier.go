// verifier.go - Groth16 verification of compressed pool proofs over BN254.
//
// The check is e(-A, B) * e(vk_x, gamma) * e(C, delta) * e(alpha, beta) == 1
// where the client supplies A already negated and
// vk_x = IC[0] + sum(input[i] * IC[i+1]).
//
// Mint identities are opaque 256-bit values and may exceed the scalar field
// modulus. Verify accepts such inputs: a scalar s >= r multiplies a point of
// order r exactly like s mod r. VerifyChecked rejects them instead.

package zerocash

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// VerifyingKey is a Groth16 verifying key over BN254.
type VerifyingKey struct {
	Alpha bn254.G1Affine
	Beta  bn254.G2Affine
	Gamma bn254.G2Affine
	Delta bn254.G2Affine
	IC    []bn254.G1Affine
}

// Verifier checks pool proofs against a fixed verifying key. It holds no
// mutable state and is safe for concurrent use.
type Verifier struct {
	vk *VerifyingKey
}

// NewVerifier returns a verifier for vk, which must have NumPublicInputs+1 IC points.
func NewVerifier(vk *VerifyingKey) (*Verifier, error) {
	if vk == nil {
		return nil, fmt.Errorf("nil verifying key")
	}
	if len(vk.IC) != NumPublicInputs+1 {
		return nil, fmt.Errorf("verifying key has %d IC points, want %d", len(vk.IC), NumPublicInputs+1)
	}
	return &Verifier{vk: vk}, nil
}

// PublicInputs lays out the public input vector in circuit order.
func PublicInputs(p *CompressedProof, mintA, mintB Pubkey) [NumPublicInputs][32]byte {
	return [NumPublicInputs][32]byte{
		p.Root,
		p.PublicAmount0,
		p.PublicAmount1,
		p.ExtDataHash,
		mintA,
		mintB,
		p.InputNullifiers[0],
		p.InputNullifiers[1],
		p.OutputCommitments[0],
		p.OutputCommitments[1],
	}
}

// Verify reports whether the proof is valid for the given mints, tolerating
// public inputs at or above the field modulus. Any decoding failure or
// internal error yields false.
func (v *Verifier) Verify(p *CompressedProof, mintA, mintB Pubkey) bool {
	return v.verify(p, mintA, mintB, false)
}

// VerifyChecked is Verify but rejects any public input that is not a
// canonical field element.
func (v *Verifier) VerifyChecked(p *CompressedProof, mintA, mintB Pubkey) bool {
	return v.verify(p, mintA, mintB, true)
}

func (v *Verifier) verify(p *CompressedProof, mintA, mintB Pubkey, checked bool) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	if p == nil {
		return false
	}

	negA, err := DecompressG1(p.ProofA)
	if err != nil {
		return false
	}
	b, err := DecompressG2(p.ProofB)
	if err != nil {
		return false
	}
	c, err := DecompressG1(p.ProofC)
	if err != nil {
		return false
	}

	vkX, err := v.prepareInputs(PublicInputs(p, mintA, mintB), checked)
	if err != nil {
		return false
	}

	valid, err := bn254.PairingCheck(
		[]bn254.G1Affine{negA, vkX, c, v.vk.Alpha},
		[]bn254.G2Affine{b, v.vk.Gamma, v.vk.Delta, v.vk.Beta},
	)
	return err == nil && valid
}

// prepareInputs computes vk_x = IC[0] + sum(input[i] * IC[i+1]).
func (v *Verifier) prepareInputs(inputs [NumPublicInputs][32]byte, checked bool) (bn254.G1Affine, error) {
	modulus := fr.Modulus()
	var acc bn254.G1Jac
	acc.FromAffine(&v.vk.IC[0])
	for i := range inputs {
		s := new(big.Int).SetBytes(inputs[i][:])
		if s.Cmp(modulus) >= 0 {
			if checked {
				return bn254.G1Affine{}, fmt.Errorf("public input %d is not a field element", i)
			}
			s.Mod(s, modulus)
		}
		var term bn254.G1Affine
		term.ScalarMultiplication(&v.vk.IC[i+1], s)
		acc.AddMixed(&term)
	}
	var out bn254.G1Affine
	out.FromJacobian(&acc)
	return out, nil
}
