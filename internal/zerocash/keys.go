// keys.go - Groth16 key files.
//
// Keys are stored in gnark's binary format. A verifying key loaded from disk is
// converted into the pool's VerifyingKey so the verifier never depends on
// gnark's backend types.

package zerocash

import (
	"fmt"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/constraint"
)

// SaveProvingKey saves a Groth16 proving key to disk.
func SaveProvingKey(path string, pk groth16.ProvingKey) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = pk.WriteTo(f)
	return err
}

// SaveVerifyingKey saves a Groth16 verifying key to disk.
func SaveVerifyingKey(path string, vk groth16.VerifyingKey) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = vk.WriteTo(f)
	return err
}

// LoadProvingKey loads a BN254 Groth16 proving key from disk.
func LoadProvingKey(path string) (groth16.ProvingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	pk := groth16.NewProvingKey(ecc.BN254)
	_, err = pk.ReadFrom(f)
	return pk, err
}

// LoadGnarkVerifyingKey loads a BN254 Groth16 verifying key from disk.
func LoadGnarkVerifyingKey(path string) (groth16.VerifyingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	vk := groth16.NewVerifyingKey(ecc.BN254)
	_, err = vk.ReadFrom(f)
	return vk, err
}

// LoadVerifyingKey reads a gnark verifying key file and converts it.
func LoadVerifyingKey(path string) (*VerifyingKey, error) {
	vk, err := LoadGnarkVerifyingKey(path)
	if err != nil {
		return nil, fmt.Errorf("load verifying key %s: %w", path, err)
	}
	return FromGnarkVerifyingKey(vk)
}

// FromGnarkVerifyingKey converts a gnark BN254 verifying key. Keys with
// commitment extensions are rejected since the pool circuit has none.
func FromGnarkVerifyingKey(vk groth16.VerifyingKey) (*VerifyingKey, error) {
	bvk, ok := vk.(*groth16_bn254.VerifyingKey)
	if !ok {
		return nil, fmt.Errorf("verifying key is %T, want BN254", vk)
	}
	if len(bvk.CommitmentKeys) > 0 {
		return nil, fmt.Errorf("verifying key uses %d commitments, want none", len(bvk.CommitmentKeys))
	}
	if len(bvk.G1.K) != NumPublicInputs+1 {
		return nil, fmt.Errorf("verifying key has %d public inputs, want %d", len(bvk.G1.K)-1, NumPublicInputs)
	}
	return &VerifyingKey{
		Alpha: bvk.G1.Alpha,
		Beta:  bvk.G2.Beta,
		Gamma: bvk.G2.Gamma,
		Delta: bvk.G2.Delta,
		IC:    append(bvk.G1.K[:0:0], bvk.G1.K...),
	}, nil
}

// SetupOrLoadKeys loads Groth16 keys for ccs from disk, or runs a fresh setup
// and saves them when either file is missing.
func SetupOrLoadKeys(ccs constraint.ConstraintSystem, pkPath, vkPath string) (groth16.ProvingKey, groth16.VerifyingKey, error) {
	pk, pkErr := LoadProvingKey(pkPath)
	vk, vkErr := LoadGnarkVerifyingKey(vkPath)
	if pkErr == nil && vkErr == nil {
		return pk, vk, nil
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, nil, err
	}
	if err := SaveProvingKey(pkPath, pk); err != nil {
		return nil, nil, err
	}
	if err := SaveVerifyingKey(vkPath, vk); err != nil {
		return nil, nil, err
	}
	return pk, vk, nil
}
