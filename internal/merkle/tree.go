// tree.go - Append-only commitment accumulator with a bounded root history.
//
// The tree never stores its leaves. It keeps one cached node per level
// (filledSubtrees) which is enough to recompute the path of the next leaf, so an
// append costs exactly Depth hashes. Superseded roots go into a fixed ring so
// proofs built against a slightly stale root stay verifiable until evicted.

package merkle

import (
	"errors"
	"fmt"
	"sync"
)

const (
	// DefaultDepth is the tree height used by the pool (2^26 leaves).
	DefaultDepth = 26
	// DefaultRootHistorySize is the number of superseded roots kept.
	DefaultRootHistorySize = 100
	// MaxDepth bounds the height so the capacity fits a uint64 comfortably.
	MaxDepth = 32
)

var (
	// ErrCapacityExceeded is returned when an append would overflow the tree.
	ErrCapacityExceeded = errors.New("merkle tree is full")
	// ErrUnauthorized is returned when a policy setter is called by anyone but the authority.
	ErrUnauthorized = errors.New("unauthorized")
)

// Config describes a new, empty tree.
type Config struct {
	Depth            int
	RootHistorySize  int
	MaxDepositAmount uint64
	Authority        [32]byte
	Bump             uint8
}

// Tree is a fixed-depth incremental Merkle tree. It is safe for concurrent use.
type Tree struct {
	mu     sync.RWMutex
	hasher Hasher
	depth  int
	zeros  [][32]byte

	nextIndex      uint64
	filledSubtrees [][32]byte
	root           [32]byte
	rootHistory    [][32]byte
	rootCursor     uint64

	maxDepositAmount uint64
	authority        [32]byte
	bump             uint8
}

// New creates an empty tree whose root is the all-zero tree hash.
func New(cfg Config, hasher Hasher) (*Tree, error) {
	if err := checkShape(cfg.Depth, cfg.RootHistorySize); err != nil {
		return nil, err
	}
	zeros, err := ZeroHashes(hasher, cfg.Depth)
	if err != nil {
		return nil, err
	}
	t := &Tree{
		hasher:           hasher,
		depth:            cfg.Depth,
		zeros:            zeros,
		filledSubtrees:   make([][32]byte, cfg.Depth),
		root:             zeros[cfg.Depth],
		rootHistory:      make([][32]byte, cfg.RootHistorySize),
		maxDepositAmount: cfg.MaxDepositAmount,
		authority:        cfg.Authority,
		bump:             cfg.Bump,
	}
	copy(t.filledSubtrees, zeros[:cfg.Depth])
	return t, nil
}

func checkShape(depth, historySize int) error {
	if depth < 1 || depth > MaxDepth {
		return fmt.Errorf("invalid tree depth %d (want 1..%d)", depth, MaxDepth)
	}
	if historySize < 1 {
		return fmt.Errorf("invalid root history size %d", historySize)
	}
	return nil
}

// Root returns the current root.
func (t *Tree) Root() [32]byte {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root
}

// NextIndex returns the number of leaves appended so far.
func (t *Tree) NextIndex() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nextIndex
}

// Depth returns the tree height.
func (t *Tree) Depth() int { return t.depth }

// HistorySize returns the capacity of the root ring.
func (t *Tree) HistorySize() int { return len(t.rootHistory) }

// Capacity returns the maximum number of leaves, 2^Depth.
func (t *Tree) Capacity() uint64 { return uint64(1) << uint(t.depth) }

// IsKnownRoot reports whether root is the current root or one of the
// superseded roots still held in the history ring. The zero value is never known.
func (t *Tree) IsKnownRoot(root [32]byte) bool {
	if root == ([32]byte{}) {
		return false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if root == t.root {
		return true
	}
	for _, r := range t.rootHistory {
		if r == root {
			return true
		}
	}
	return false
}

// Append inserts leaf at NextIndex and returns its index.
func (t *Tree) Append(leaf [32]byte) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkCapacity(1); err != nil {
		return 0, err
	}
	return t.append(leaf)
}

// AppendPair inserts two leaves atomically: either both land or neither does.
// It returns the index of the first leaf.
func (t *Tree) AppendPair(first, second [32]byte) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkCapacity(2); err != nil {
		return 0, err
	}
	saved := t.save()
	index, err := t.append(first)
	if err != nil {
		return 0, err
	}
	if _, err := t.append(second); err != nil {
		t.restore(saved)
		return 0, err
	}
	return index, nil
}

func (t *Tree) checkCapacity(n uint64) error {
	if t.nextIndex+n > t.Capacity() {
		return fmt.Errorf("%w: next index %d, adding %d, capacity %d",
			ErrCapacityExceeded, t.nextIndex, n, t.Capacity())
	}
	return nil
}

// append must be called with the write lock held and capacity checked.
func (t *Tree) append(leaf [32]byte) (uint64, error) {
	index := t.nextIndex
	filled := make([][32]byte, t.depth)
	copy(filled, t.filledSubtrees)

	current := leaf
	idx := index
	for level := 0; level < t.depth; level++ {
		var left, right [32]byte
		if idx%2 == 0 {
			left, right = current, t.zeros[level]
			filled[level] = current
		} else {
			left, right = filled[level], current
		}
		h, err := t.hasher.Hash(left, right)
		if err != nil {
			return 0, fmt.Errorf("append leaf %d: %w", index, err)
		}
		current = h
		idx >>= 1
	}

	t.filledSubtrees = filled
	t.rootHistory[t.rootCursor] = t.root
	t.rootCursor = (t.rootCursor + 1) % uint64(len(t.rootHistory))
	t.root = current
	t.nextIndex++
	return index, nil
}

type treeState struct {
	nextIndex      uint64
	filledSubtrees [][32]byte
	root           [32]byte
	rootHistory    [][32]byte
	rootCursor     uint64
}

func (t *Tree) save() treeState {
	s := treeState{
		nextIndex:      t.nextIndex,
		filledSubtrees: append([][32]byte(nil), t.filledSubtrees...),
		root:           t.root,
		rootHistory:    append([][32]byte(nil), t.rootHistory...),
		rootCursor:     t.rootCursor,
	}
	return s
}

func (t *Tree) restore(s treeState) {
	t.nextIndex = s.nextIndex
	t.filledSubtrees = s.filledSubtrees
	t.root = s.root
	t.rootHistory = s.rootHistory
	t.rootCursor = s.rootCursor
}

// MaxDepositAmount returns the per-deposit cap.
func (t *Tree) MaxDepositAmount() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.maxDepositAmount
}

// Authority returns the identity allowed to change the deposit limit.
func (t *Tree) Authority() [32]byte {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.authority
}

// Bump returns the derivation nonce stored with the tree.
func (t *Tree) Bump() uint8 { return t.bump }

// SetDepositLimit updates the per-deposit cap. Only the authority may call it.
func (t *Tree) SetDepositLimit(signer [32]byte, limit uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if signer != t.authority {
		return ErrUnauthorized
	}
	t.maxDepositAmount = limit
	return nil
}
