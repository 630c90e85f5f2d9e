package merkle

import (
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"
)

// Hasher compresses two child nodes into their parent node.
type Hasher interface {
	Hash(left, right [32]byte) ([32]byte, error)
}

// PoseidonHasher hashes node pairs with the circom-compatible Poseidon
// permutation over the BN254 scalar field. Both children must be canonical
// field elements (big-endian, below the field modulus).
type PoseidonHasher struct{}

// Hash returns Poseidon(left, right) as 32 big-endian bytes.
func (PoseidonHasher) Hash(left, right [32]byte) ([32]byte, error) {
	var out [32]byte
	h, err := poseidon.Hash([]*big.Int{
		new(big.Int).SetBytes(left[:]),
		new(big.Int).SetBytes(right[:]),
	})
	if err != nil {
		return out, fmt.Errorf("poseidon: %w", err)
	}
	h.FillBytes(out[:])
	return out, nil
}

// ZeroHashes returns the roots of empty subtrees for heights 0..depth.
// zeros[0] is the empty leaf (32 zero bytes), zeros[i] = H(zeros[i-1], zeros[i-1]).
func ZeroHashes(h Hasher, depth int) ([][32]byte, error) {
	zeros := make([][32]byte, depth+1)
	for i := 1; i <= depth; i++ {
		z, err := h.Hash(zeros[i-1], zeros[i-1])
		if err != nil {
			return nil, fmt.Errorf("zero hash at height %d: %w", i, err)
		}
		zeros[i] = z
	}
	return zeros, nil
}
