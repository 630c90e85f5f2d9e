package store

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"shieldedpool/internal/merkle"
	"shieldedpool/internal/zerocash"
)

const (
	nullifierPrefix = "nf_"
	balancePrefix   = "bal_"
)

type balanceKey struct {
	account zerocash.Pubkey
	asset   zerocash.Pubkey
}

// State is the pool's registry and ledger on LevelDB. Nullifier registrations
// and transfers are staged in memory and reach disk only through Checkpoint,
// which writes them together with the tree record in one synced batch. A
// crash between checkpoints loses the whole settlement and nothing else.
type State struct {
	mu sync.Mutex
	db *DB

	// true registers, false releases an id spent in an earlier checkpoint.
	nullifiers map[zerocash.NullifierID]bool
	balances   map[balanceKey]uint64
}

func NewState(db *DB) *State {
	return &State{
		db:         db,
		nullifiers: make(map[zerocash.NullifierID]bool),
		balances:   make(map[balanceKey]uint64),
	}
}

func nullifierKey(id zerocash.NullifierID) []byte {
	return []byte(nullifierPrefix + hex.EncodeToString(id[:]))
}

func (k balanceKey) bytes() []byte {
	return []byte(balancePrefix + hex.EncodeToString(k.account[:]) + hex.EncodeToString(k.asset[:]))
}

func parseBalanceKey(b []byte) (balanceKey, error) {
	var k balanceKey
	raw, err := hex.DecodeString(string(b[len(balancePrefix):]))
	if err != nil || len(raw) != 64 {
		return k, fmt.Errorf("malformed balance key %q", b)
	}
	copy(k.account[:], raw[:32])
	copy(k.asset[:], raw[32:])
	return k, nil
}

// Register stages every id, or none of them.
func (s *State) Register(ctx context.Context, ids ...zerocash.NullifierID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[zerocash.NullifierID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := batch[id]; ok {
			return fmt.Errorf("%w: %s repeated in transaction", zerocash.ErrDoubleSpend, id)
		}
		batch[id] = struct{}{}
		spent, err := s.containsLocked(id)
		if err != nil {
			return err
		}
		if spent {
			return fmt.Errorf("%w: %s", zerocash.ErrDoubleSpend, id)
		}
	}
	for id := range batch {
		if released, ok := s.nullifiers[id]; ok && !released {
			// Spent on disk, released and spent again before a checkpoint.
			delete(s.nullifiers, id)
			continue
		}
		s.nullifiers[id] = true
	}
	return nil
}

// Release undoes a Register.
func (s *State) Release(_ context.Context, ids ...zerocash.NullifierID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if staged, ok := s.nullifiers[id]; ok && staged {
			delete(s.nullifiers, id)
			continue
		}
		s.nullifiers[id] = false
	}
	return nil
}

// Contains reports whether id is spent, counting staged registrations.
func (s *State) Contains(id zerocash.NullifierID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.containsLocked(id)
}

func (s *State) containsLocked(id zerocash.NullifierID) (bool, error) {
	if staged, ok := s.nullifiers[id]; ok {
		return staged, nil
	}
	ok, err := s.db.db.Has(nullifierKey(id), nil)
	return ok, errors.Wrap(err, "lookup nullifier")
}

// Count returns the number of nullifiers written by checkpoints.
func (s *State) Count() (int, error) {
	iter := s.db.db.NewIterator(util.BytesPrefix([]byte(nullifierPrefix)), nil)
	defer iter.Release()
	n := 0
	for iter.Next() {
		n++
	}
	return n, errors.Wrap(iter.Error(), "count nullifiers")
}

func (s *State) Balance(_ context.Context, account, asset zerocash.Pubkey) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balanceLocked(balanceKey{account, asset})
}

func (s *State) balanceLocked(k balanceKey) (uint64, error) {
	if v, ok := s.balances[k]; ok {
		return v, nil
	}
	return s.storedBalance(k)
}

func (s *State) storedBalance(k balanceKey) (uint64, error) {
	data, err := s.db.db.Get(k.bytes(), nil)
	if err == leveldb.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "load balance")
	}
	if len(data) != 8 {
		return 0, errors.Errorf("balance record is %d bytes", len(data))
	}
	return binary.LittleEndian.Uint64(data), nil
}

// Transfer stages a balance move. It fails like zerocash.MemoryLedger does.
func (s *State) Transfer(_ context.Context, from, to, asset zerocash.Pubkey, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, dst := balanceKey{from, asset}, balanceKey{to, asset}
	have, err := s.balanceLocked(src)
	if err != nil {
		return err
	}
	if have < amount {
		return fmt.Errorf("%w: %s holds %d of %s, need %d", zerocash.ErrInsufficientFunds, from, have, asset, amount)
	}
	if from == to {
		return nil
	}
	credit, err := s.balanceLocked(dst)
	if err != nil {
		return err
	}
	if credit > math.MaxUint64-amount {
		return fmt.Errorf("%w: credit to %s", zerocash.ErrArithmeticOverflow, to)
	}
	s.balances[src] = have - amount
	s.balances[dst] = credit + amount
	return nil
}

// Mint credits a devnet balance and writes it straight away.
func (s *State) Mint(account, asset zerocash.Pubkey, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := balanceKey{account, asset}
	have, err := s.balanceLocked(k)
	if err != nil {
		return err
	}
	if have > math.MaxUint64-amount {
		return fmt.Errorf("%w: mint to %s", zerocash.ErrArithmeticOverflow, account)
	}
	stored, err := s.storedBalance(k)
	if err != nil {
		return err
	}
	if stored > math.MaxUint64-amount {
		return fmt.Errorf("%w: mint to %s", zerocash.ErrArithmeticOverflow, account)
	}
	batch := new(leveldb.Batch)
	putBalance(batch, k, stored+amount)
	if err := s.db.db.Write(batch, syncWrite); err != nil {
		return errors.Wrap(err, "write minted balance")
	}
	if _, ok := s.balances[k]; ok {
		s.balances[k] = have + amount
	}
	return nil
}

func putBalance(batch *leveldb.Batch, k balanceKey, v uint64) {
	if v == 0 {
		batch.Delete(k.bytes())
		return
	}
	var value [8]byte
	binary.LittleEndian.PutUint64(value[:], v)
	batch.Put(k.bytes(), value[:])
}

// Checkpoint commits the staged nullifiers and balances with r in one synced
// batch. It is the pool's checkpoint hook. On failure the staged writes are
// kept, so the pool's rollback can undo them.
func (s *State) Checkpoint(r merkle.Record) error {
	data, err := r.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "encode tree record")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := new(leveldb.Batch)
	var spentAt [8]byte
	binary.LittleEndian.PutUint64(spentAt[:], uint64(time.Now().Unix()))
	for id, spent := range s.nullifiers {
		if spent {
			batch.Put(nullifierKey(id), spentAt[:])
		} else {
			batch.Delete(nullifierKey(id))
		}
	}
	for k, v := range s.balances {
		putBalance(batch, k, v)
	}
	batch.Put(treeRecordKey, data)
	if err := s.db.db.Write(batch, syncWrite); err != nil {
		return errors.Wrap(err, "commit settlement")
	}
	clear(s.nullifiers)
	clear(s.balances)
	return nil
}

// ImportLedger mints every balance of l.
func (s *State) ImportLedger(l *zerocash.MemoryLedger) error {
	return l.Each(func(account, asset zerocash.Pubkey, amount uint64) error {
		return s.Mint(account, asset, amount)
	})
}

// ExportLedger copies the committed balances into a MemoryLedger.
func (s *State) ExportLedger() (*zerocash.MemoryLedger, error) {
	l := zerocash.NewMemoryLedger()
	iter := s.db.db.NewIterator(util.BytesPrefix([]byte(balancePrefix)), nil)
	defer iter.Release()
	for iter.Next() {
		k, err := parseBalanceKey(iter.Key())
		if err != nil {
			return nil, err
		}
		if len(iter.Value()) != 8 {
			return nil, errors.Errorf("balance record is %d bytes", len(iter.Value()))
		}
		if err := l.Mint(k.account, k.asset, binary.LittleEndian.Uint64(iter.Value())); err != nil {
			return nil, err
		}
	}
	return l, errors.Wrap(iter.Error(), "read balances")
}
