// ledger.go - Host ledger interface and an in-memory implementation.
//
// The pool never owns balances. It asks the host ledger for custody balances
// and moves value with transfers. MemoryLedger backs the tests and is the
// JSON import/export form (ledger.json) of the daemon's stored balances.

package zerocash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
)

// ErrInsufficientFunds is returned by MemoryLedger when a debit exceeds a balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Ledger moves value between accounts. Transfer is all-or-nothing.
type Ledger interface {
	Balance(ctx context.Context, account, asset Pubkey) (uint64, error)
	Transfer(ctx context.Context, from, to, asset Pubkey, amount uint64) error
}

type balanceKey struct {
	Account Pubkey
	Asset   Pubkey
}

// MemoryLedger is a mutex-guarded map of (account, asset) balances.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[balanceKey]uint64
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{balances: make(map[balanceKey]uint64)}
}

func (l *MemoryLedger) Balance(_ context.Context, account, asset Pubkey) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[balanceKey{account, asset}], nil
}

func (l *MemoryLedger) Transfer(_ context.Context, from, to, asset Pubkey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	src, dst := balanceKey{from, asset}, balanceKey{to, asset}
	if l.balances[src] < amount {
		return fmt.Errorf("%w: %s holds %d of %s, need %d", ErrInsufficientFunds, from, l.balances[src], asset, amount)
	}
	if from == to {
		return nil
	}
	if l.balances[dst] > math.MaxUint64-amount {
		return fmt.Errorf("%w: credit to %s", ErrArithmeticOverflow, to)
	}
	l.balances[src] -= amount
	l.balances[dst] += amount
	return nil
}

// Mint credits amount out of thin air. It exists for devnet funding.
func (l *MemoryLedger) Mint(account, asset Pubkey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := balanceKey{account, asset}
	if l.balances[k] > math.MaxUint64-amount {
		return fmt.Errorf("%w: mint to %s", ErrArithmeticOverflow, account)
	}
	l.balances[k] += amount
	return nil
}

// Each calls fn for every non-zero balance until fn fails.
func (l *MemoryLedger) Each(fn func(account, asset Pubkey, amount uint64) error) error {
	l.mu.Lock()
	entries := make([]ledgerEntry, 0, len(l.balances))
	for k, v := range l.balances {
		if v > 0 {
			entries = append(entries, ledgerEntry{k.Account, k.Asset, v})
		}
	}
	l.mu.Unlock()
	for _, e := range entries {
		if err := fn(e.Account, e.Asset, e.Amount); err != nil {
			return err
		}
	}
	return nil
}

type ledgerEntry struct {
	Account Pubkey `json:"account"`
	Asset   Pubkey `json:"asset"`
	Amount  uint64 `json:"amount"`
}

// SaveToFile saves all non-zero balances to a JSON file.
// Overwrites the file if it exists.
func (l *MemoryLedger) SaveToFile(path string) error {
	l.mu.Lock()
	entries := make([]ledgerEntry, 0, len(l.balances))
	for k, v := range l.balances {
		if v > 0 {
			entries = append(entries, ledgerEntry{k.Account, k.Asset, v})
		}
	}
	l.mu.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// LoadLedgerFromFile loads balances written by SaveToFile.
func LoadLedgerFromFile(path string) (*MemoryLedger, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var entries []ledgerEntry
	if err := json.NewDecoder(f).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode ledger %s: %w", path, err)
	}
	l := NewMemoryLedger()
	for _, e := range entries {
		if err := l.Mint(e.Account, e.Asset, e.Amount); err != nil {
			return nil, err
		}
	}
	return l, nil
}
