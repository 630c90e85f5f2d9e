package store

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"

	"shieldedpool/internal/merkle"
)

var treeRecordKey = []byte("tree_record")

// TreeStore keeps the latest commitment tree record.
type TreeStore struct {
	db *DB
}

func NewTreeStore(db *DB) *TreeStore {
	return &TreeStore{db: db}
}

// Save overwrites the stored record. It is meant to be used as the pool's
// checkpoint hook, so the write is synced before it returns.
func (s *TreeStore) Save(r merkle.Record) error {
	data, err := r.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "encode tree record")
	}
	return errors.Wrap(s.db.db.Put(treeRecordKey, data, syncWrite), "save tree record")
}

// Load returns the stored record. ok is false when nothing was saved yet.
func (s *TreeStore) Load() (r merkle.Record, ok bool, err error) {
	data, err := s.db.db.Get(treeRecordKey, nil)
	if err == leveldb.ErrNotFound {
		return r, false, nil
	}
	if err != nil {
		return r, false, errors.Wrap(err, "load tree record")
	}
	if err := r.UnmarshalBinary(data); err != nil {
		return r, false, errors.Wrap(err, "decode tree record")
	}
	return r, true, nil
}

// LoadOrCreate restores the tree from the stored record, or creates an empty
// tree from cfg and saves it. A stored tree keeps its own shape; cfg only
// applies to a fresh one.
func (s *TreeStore) LoadOrCreate(cfg merkle.Config, hasher merkle.Hasher) (*merkle.Tree, error) {
	r, ok, err := s.Load()
	if err != nil {
		return nil, err
	}
	if ok {
		tree, err := merkle.FromRecord(r, hasher)
		return tree, errors.Wrap(err, "restore tree")
	}
	tree, err := merkle.New(cfg, hasher)
	if err != nil {
		return nil, errors.Wrap(err, "create tree")
	}
	if err := s.Save(tree.Record()); err != nil {
		return nil, err
	}
	return tree, nil
}
