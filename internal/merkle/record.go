// record.go - Fixed-size persistence record for a commitment tree.
//
// Layout (little-endian):
//
//	bump u8 | max_deposit_amount u64 | next_index u64 | depth u8 | history u32 |
//	root_cursor u64 | root [32] | filled_subtrees [depth][32] |
//	root_history [history][32] | authority [32]

package merkle

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const recordHeaderSize = 1 + 8 + 8 + 1 + 4 + 8

// ErrMalformedRecord is returned when a stored tree record cannot be decoded.
var ErrMalformedRecord = errors.New("malformed tree record")

// Record is the serializable state of a Tree.
type Record struct {
	Bump             uint8
	MaxDepositAmount uint64
	NextIndex        uint64
	RootCursor       uint64
	Root             [32]byte
	FilledSubtrees   [][32]byte
	RootHistory      [][32]byte
	Authority        [32]byte
}

// RecordSize returns the encoded size of a record for the given shape.
func RecordSize(depth, historySize int) int {
	return recordHeaderSize + 32 + depth*32 + historySize*32 + 32
}

// Record snapshots the tree state.
func (t *Tree) Record() Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Record{
		Bump:             t.bump,
		MaxDepositAmount: t.maxDepositAmount,
		NextIndex:        t.nextIndex,
		RootCursor:       t.rootCursor,
		Root:             t.root,
		FilledSubtrees:   append([][32]byte(nil), t.filledSubtrees...),
		RootHistory:      append([][32]byte(nil), t.rootHistory...),
		Authority:        t.authority,
	}
}

// FromRecord restores a tree from a snapshot taken with Record.
func FromRecord(r Record, hasher Hasher) (*Tree, error) {
	depth, historySize := len(r.FilledSubtrees), len(r.RootHistory)
	if err := checkShape(depth, historySize); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if r.NextIndex > uint64(1)<<uint(depth) {
		return nil, fmt.Errorf("%w: next index %d exceeds capacity", ErrMalformedRecord, r.NextIndex)
	}
	if r.RootCursor >= uint64(historySize) {
		return nil, fmt.Errorf("%w: root cursor %d out of range", ErrMalformedRecord, r.RootCursor)
	}
	zeros, err := ZeroHashes(hasher, depth)
	if err != nil {
		return nil, err
	}
	return &Tree{
		hasher:           hasher,
		depth:            depth,
		zeros:            zeros,
		nextIndex:        r.NextIndex,
		filledSubtrees:   append([][32]byte(nil), r.FilledSubtrees...),
		root:             r.Root,
		rootHistory:      append([][32]byte(nil), r.RootHistory...),
		rootCursor:       r.RootCursor,
		maxDepositAmount: r.MaxDepositAmount,
		authority:        r.Authority,
		bump:             r.Bump,
	}, nil
}

// Restore rewinds the tree to a snapshot of the same shape.
func (t *Tree) Restore(r Record) error {
	if len(r.FilledSubtrees) != t.depth || len(r.RootHistory) != len(t.rootHistory) {
		return fmt.Errorf("%w: shape %d/%d does not match tree %d/%d", ErrMalformedRecord,
			len(r.FilledSubtrees), len(r.RootHistory), t.depth, len(t.rootHistory))
	}
	if r.RootCursor >= uint64(len(r.RootHistory)) || r.NextIndex > t.Capacity() {
		return fmt.Errorf("%w: cursor or index out of range", ErrMalformedRecord)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.restore(treeState{
		nextIndex:      r.NextIndex,
		filledSubtrees: append([][32]byte(nil), r.FilledSubtrees...),
		root:           r.Root,
		rootHistory:    append([][32]byte(nil), r.RootHistory...),
		rootCursor:     r.RootCursor,
	})
	t.maxDepositAmount = r.MaxDepositAmount
	t.authority = r.Authority
	return nil
}

// MarshalBinary encodes the record in its fixed layout.
func (r Record) MarshalBinary() ([]byte, error) {
	depth, historySize := len(r.FilledSubtrees), len(r.RootHistory)
	if depth > MaxDepth {
		return nil, fmt.Errorf("%w: depth %d", ErrMalformedRecord, depth)
	}
	buf := make([]byte, 0, RecordSize(depth, historySize))
	buf = append(buf, r.Bump)
	buf = binary.LittleEndian.AppendUint64(buf, r.MaxDepositAmount)
	buf = binary.LittleEndian.AppendUint64(buf, r.NextIndex)
	buf = append(buf, uint8(depth))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(historySize))
	buf = binary.LittleEndian.AppendUint64(buf, r.RootCursor)
	buf = append(buf, r.Root[:]...)
	for i := range r.FilledSubtrees {
		buf = append(buf, r.FilledSubtrees[i][:]...)
	}
	for i := range r.RootHistory {
		buf = append(buf, r.RootHistory[i][:]...)
	}
	buf = append(buf, r.Authority[:]...)
	return buf, nil
}

// UnmarshalBinary decodes a record produced by MarshalBinary.
func (r *Record) UnmarshalBinary(data []byte) error {
	if len(data) < recordHeaderSize {
		return fmt.Errorf("%w: %d bytes", ErrMalformedRecord, len(data))
	}
	off := 0
	r.Bump = data[off]
	off++
	r.MaxDepositAmount = binary.LittleEndian.Uint64(data[off:])
	off += 8
	r.NextIndex = binary.LittleEndian.Uint64(data[off:])
	off += 8
	depth := int(data[off])
	off++
	historySize := int(binary.LittleEndian.Uint32(data[off:]))
	off += 4
	r.RootCursor = binary.LittleEndian.Uint64(data[off:])
	off += 8

	if depth > MaxDepth || len(data) != RecordSize(depth, historySize) {
		return fmt.Errorf("%w: size %d does not match depth %d history %d",
			ErrMalformedRecord, len(data), depth, historySize)
	}

	copy(r.Root[:], data[off:off+32])
	off += 32
	r.FilledSubtrees = make([][32]byte, depth)
	for i := range r.FilledSubtrees {
		copy(r.FilledSubtrees[i][:], data[off:off+32])
		off += 32
	}
	r.RootHistory = make([][32]byte, historySize)
	for i := range r.RootHistory {
		copy(r.RootHistory[i][:], data[off:off+32])
		off += 32
	}
	copy(r.Authority[:], data[off:off+32])
	return nil
}
