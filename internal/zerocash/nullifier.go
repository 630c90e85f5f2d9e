// nullifier.go - Nullifier identities and the in-memory registry.
//
// A nullifier is registered under an identity derived from
// ("nullifier", nullifier) and salted by the canonical namespace and the pool's
// program identity, so the same nullifier always maps to the same slot.

package zerocash

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// NullifierID is the registry key of a spent nullifier.
type NullifierID [32]byte

func (id NullifierID) String() string { return hex.EncodeToString(id[:]) }

var (
	// DefaultNamespace is the canonical nullifier address space.
	DefaultNamespace = DeriveAddress([]byte("nullifier_namespace"))
	// DefaultProgramID identifies the pool when deriving registry identities.
	DefaultProgramID = DeriveAddress([]byte("shielded_pool"))
)

// NullifierIdentity derives the registry key for nullifier. The nullifier is
// reduced mod r first, so every encoding of one field element shares a slot.
func NullifierIdentity(nullifier [32]byte, namespace, programID Pubkey) NullifierID {
	var e fr.Element
	e.SetBytes(nullifier[:])
	canonical := e.Bytes()
	return NullifierID(DeriveAddress([]byte("nullifier"), canonical[:], namespace[:], programID[:]))
}

// IsCanonicalField reports whether b, read big-endian, is below r.
func IsCanonicalField(b [32]byte) bool {
	return new(big.Int).SetBytes(b[:]).Cmp(fr.Modulus()) < 0
}

// Registry records spent nullifiers. Register must insert every id or none,
// and fail with ErrDoubleSpend if any id is already present or repeated.
// Release undoes a Register whose transaction later aborted.
type Registry interface {
	Register(ctx context.Context, ids ...NullifierID) error
	Release(ctx context.Context, ids ...NullifierID) error
}

// MemoryRegistry is a Registry backed by a map.
type MemoryRegistry struct {
	mu   sync.Mutex
	seen map[NullifierID]struct{}
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{seen: make(map[NullifierID]struct{})}
}

func (r *MemoryRegistry) Register(_ context.Context, ids ...NullifierID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch := make(map[NullifierID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := r.seen[id]; ok {
			return fmt.Errorf("%w: %s", ErrDoubleSpend, id)
		}
		if _, ok := batch[id]; ok {
			return fmt.Errorf("%w: %s repeated in transaction", ErrDoubleSpend, id)
		}
		batch[id] = struct{}{}
	}
	for id := range batch {
		r.seen[id] = struct{}{}
	}
	return nil
}

func (r *MemoryRegistry) Release(_ context.Context, ids ...NullifierID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.seen, id)
	}
	return nil
}

// Contains reports whether id has been registered.
func (r *MemoryRegistry) Contains(id NullifierID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.seen[id]
	return ok
}
