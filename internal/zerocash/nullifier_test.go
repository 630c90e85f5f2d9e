package zerocash

import (
	"context"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullifierIdentityIsDeterministic(t *testing.T) {
	nf := [32]byte{1, 2, 3}
	a := NullifierIdentity(nf, DefaultNamespace, DefaultProgramID)
	assert.Equal(t, a, NullifierIdentity(nf, DefaultNamespace, DefaultProgramID))
	assert.NotEqual(t, a, NullifierIdentity([32]byte{1, 2, 4}, DefaultNamespace, DefaultProgramID))
	assert.NotEqual(t, a, NullifierIdentity(nf, Pubkey{9}, DefaultProgramID))
	assert.NotEqual(t, a, NullifierIdentity(nf, DefaultNamespace, Pubkey{9}))
	assert.Len(t, a.String(), 64)
}

func TestNullifierIdentityIgnoresModulusAlias(t *testing.T) {
	nf := [32]byte{31: 7}
	var alias [32]byte
	new(big.Int).Add(big.NewInt(7), fr.Modulus()).FillBytes(alias[:])

	assert.True(t, IsCanonicalField(nf))
	assert.False(t, IsCanonicalField(alias))
	assert.Equal(t,
		NullifierIdentity(nf, DefaultNamespace, DefaultProgramID),
		NullifierIdentity(alias, DefaultNamespace, DefaultProgramID))

	var below [32]byte
	new(big.Int).Sub(fr.Modulus(), big.NewInt(1)).FillBytes(below[:])
	assert.True(t, IsCanonicalField(below))
}

func TestRegistryRejectsDoubleSpend(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()
	a, b, c := NullifierID{1}, NullifierID{2}, NullifierID{3}

	require.NoError(t, r.Register(ctx, a, b))
	assert.ErrorIs(t, r.Register(ctx, b, c), ErrDoubleSpend)
	// All-or-nothing: c must not have been inserted.
	assert.False(t, r.Contains(c))
	assert.True(t, r.Contains(a))
}

func TestRegistryRejectsRepeatedID(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()
	id := NullifierID{7}
	assert.ErrorIs(t, r.Register(ctx, id, id), ErrDoubleSpend)
	assert.False(t, r.Contains(id))
}

func TestRegistryRelease(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()
	id := NullifierID{7}
	require.NoError(t, r.Register(ctx, id))
	require.NoError(t, r.Release(ctx, id))
	assert.False(t, r.Contains(id))
	assert.NoError(t, r.Register(ctx, id))
}

func TestRegistryRaceHasOneWinner(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRegistry()
	id := NullifierID{42}

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if r.Register(ctx, id, NullifierID{byte(i), 1}) == nil {
				wins.Add(1)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}
