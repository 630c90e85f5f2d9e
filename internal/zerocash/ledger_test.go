package zerocash

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedgerTransfer(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	alice, bob, usd := Pubkey{1}, Pubkey{2}, Pubkey{3}
	require.NoError(t, l.Mint(alice, usd, 100))

	require.NoError(t, l.Transfer(ctx, alice, bob, usd, 60))
	bal, _ := l.Balance(ctx, alice, usd)
	assert.Equal(t, uint64(40), bal)
	bal, _ = l.Balance(ctx, bob, usd)
	assert.Equal(t, uint64(60), bal)

	assert.ErrorIs(t, l.Transfer(ctx, alice, bob, usd, 41), ErrInsufficientFunds)
	bal, _ = l.Balance(ctx, alice, usd)
	assert.Equal(t, uint64(40), bal)

	require.NoError(t, l.Mint(bob, usd, math.MaxUint64-60))
	assert.ErrorIs(t, l.Transfer(ctx, alice, bob, usd, 1), ErrArithmeticOverflow)
	assert.ErrorIs(t, l.Mint(bob, usd, 1), ErrArithmeticOverflow)
}

func TestMemoryLedgerSaveLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.json")
	l := NewMemoryLedger()
	alice, usd, eur := Pubkey{1}, Pubkey{3}, Pubkey{4}
	require.NoError(t, l.Mint(alice, usd, 100))
	require.NoError(t, l.Mint(alice, eur, 7))
	require.NoError(t, l.SaveToFile(path))

	loaded, err := LoadLedgerFromFile(path)
	require.NoError(t, err)
	bal, _ := loaded.Balance(ctx, alice, usd)
	assert.Equal(t, uint64(100), bal)
	bal, _ = loaded.Balance(ctx, alice, eur)
	assert.Equal(t, uint64(7), bal)

	_, err = LoadLedgerFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestJournalRevert(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	a, b, c, usd := Pubkey{1}, Pubkey{2}, Pubkey{3}, Pubkey{9}
	require.NoError(t, l.Mint(a, usd, 10))

	j := &journal{Ledger: l}
	require.NoError(t, j.Transfer(ctx, a, b, usd, 10))
	require.NoError(t, j.Transfer(ctx, b, c, usd, 4))
	assert.Error(t, j.Transfer(ctx, b, c, usd, 100))
	assert.Len(t, j.done, 2)

	require.NoError(t, j.revert(ctx))
	for _, want := range []struct {
		account Pubkey
		amount  uint64
	}{{a, 10}, {b, 0}, {c, 0}} {
		bal, _ := l.Balance(ctx, want.account, usd)
		assert.Equal(t, want.amount, bal)
	}
}
