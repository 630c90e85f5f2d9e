// Package store persists the pool state that must survive a restart: the
// commitment tree record, the set of spent nullifiers and the devnet ledger
// balances. All of them live in one LevelDB database under distinct key
// prefixes and change together, one batch per settlement.
package store

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// DB is a LevelDB handle shared by TreeStore and State.
type DB struct {
	db *leveldb.DB
}

// Open opens or creates the database at path.
func Open(path string) (*DB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open store %s", path)
	}
	return &DB{db: db}, nil
}

// OpenMemory opens a database that lives only in memory.
func OpenMemory() (*DB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "open memory store")
	}
	return &DB{db: db}, nil
}

// Ping reports whether the database still answers reads.
func (d *DB) Ping() error {
	_, err := d.db.Has(treeRecordKey, nil)
	return errors.Wrap(err, "ping store")
}

func (d *DB) Close() error {
	return d.db.Close()
}

var syncWrite = &opt.WriteOptions{Sync: true}
