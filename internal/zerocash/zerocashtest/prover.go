// Package zerocashtest builds real Groth16 proofs for the pool's public input
// layout. The circuit only ties the ten public inputs to one private witness;
// it stands in for the production circuit in tests and on devnet.
package zerocashtest

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark/backend/groth16"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"shieldedpool/internal/zerocash"
)

// PoolCircuit exposes the pool's public inputs in verifier order.
type PoolCircuit struct {
	Root          frontend.Variable `gnark:",public"`
	PublicAmount0 frontend.Variable `gnark:",public"`
	PublicAmount1 frontend.Variable `gnark:",public"`
	ExtDataHash   frontend.Variable `gnark:",public"`
	MintA         frontend.Variable `gnark:",public"`
	MintB         frontend.Variable `gnark:",public"`
	Nullifier0    frontend.Variable `gnark:",public"`
	Nullifier1    frontend.Variable `gnark:",public"`
	Commitment0   frontend.Variable `gnark:",public"`
	Commitment1   frontend.Variable `gnark:",public"`

	Sum frontend.Variable
}

// Define constrains Sum to the sum of all public inputs.
func (c *PoolCircuit) Define(api frontend.API) error {
	sum := api.Add(c.Root, c.PublicAmount0, c.PublicAmount1, c.ExtDataHash, c.MintA,
		c.MintB, c.Nullifier0, c.Nullifier1, c.Commitment0, c.Commitment1)
	api.AssertIsEqual(c.Sum, sum)
	return nil
}

// Prover holds a compiled PoolCircuit and its keys.
type Prover struct {
	ccs constraint.ConstraintSystem
	pk  groth16.ProvingKey
	vk  groth16.VerifyingKey
}

var (
	sharedOnce   sync.Once
	sharedProver *Prover
	sharedErr    error
)

// Shared returns a process-wide prover, compiling and setting up once.
func Shared() (*Prover, error) {
	sharedOnce.Do(func() {
		sharedProver, sharedErr = NewProver()
	})
	return sharedProver, sharedErr
}

// NewProver compiles the circuit and runs a fresh Groth16 setup.
func NewProver() (*Prover, error) {
	ccs, err := compile()
	if err != nil {
		return nil, err
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("groth16 setup: %w", err)
	}
	return &Prover{ccs: ccs, pk: pk, vk: vk}, nil
}

// LoadOrSetupProver reuses keys from pkPath and vkPath, creating them if needed.
func LoadOrSetupProver(pkPath, vkPath string) (*Prover, error) {
	ccs, err := compile()
	if err != nil {
		return nil, err
	}
	pk, vk, err := zerocash.SetupOrLoadKeys(ccs, pkPath, vkPath)
	if err != nil {
		return nil, err
	}
	return &Prover{ccs: ccs, pk: pk, vk: vk}, nil
}

func compile() (constraint.ConstraintSystem, error) {
	var circuit PoolCircuit
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return nil, fmt.Errorf("circuit compilation failed: %w", err)
	}
	return ccs, nil
}

// GnarkVerifyingKey returns the key in gnark form, for writing to disk.
func (p *Prover) GnarkVerifyingKey() groth16.VerifyingKey { return p.vk }

// VerifyingKey returns the key in the pool's form.
func (p *Prover) VerifyingKey() (*zerocash.VerifyingKey, error) {
	return zerocash.FromGnarkVerifyingKey(p.vk)
}

// Verifier returns a pool verifier bound to this prover's key.
func (p *Prover) Verifier() (*zerocash.Verifier, error) {
	vk, err := p.VerifyingKey()
	if err != nil {
		return nil, err
	}
	return zerocash.NewVerifier(vk)
}

// Prove fills ProofA (negated), ProofB and ProofC of proof for its current
// public inputs and the two mints. Inputs at or above the field modulus enter
// the witness reduced.
func (p *Prover) Prove(proof *zerocash.CompressedProof, mintA, mintB zerocash.Pubkey) error {
	inputs := zerocash.PublicInputs(proof, mintA, mintB)
	values := make([]*big.Int, len(inputs))
	sum := new(big.Int)
	for i := range inputs {
		values[i] = new(big.Int).SetBytes(inputs[i][:])
		sum.Add(sum, values[i])
	}
	assignment := &PoolCircuit{
		Root:          values[0],
		PublicAmount0: values[1],
		PublicAmount1: values[2],
		ExtDataHash:   values[3],
		MintA:         values[4],
		MintB:         values[5],
		Nullifier0:    values[6],
		Nullifier1:    values[7],
		Commitment0:   values[8],
		Commitment1:   values[9],
		Sum:           sum,
	}
	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return fmt.Errorf("build witness: %w", err)
	}
	gp, err := groth16.Prove(p.ccs, p.pk, witness)
	if err != nil {
		return fmt.Errorf("prove: %w", err)
	}
	bp, ok := gp.(*groth16_bn254.Proof)
	if !ok {
		return fmt.Errorf("unexpected proof type %T", gp)
	}

	var negA bn254.G1Affine
	negA.Neg(&bp.Ar)
	proof.ProofA = zerocash.CompressG1(&negA)
	proof.ProofB = zerocash.CompressG2(&bp.Bs)
	proof.ProofC = zerocash.CompressG1(&bp.Krs)
	return nil
}
