// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// badgerDB is the persistent Database backed by badger
type badgerDB struct {
	db *badger.DB
}

func newBadgerDB(path string) (*badgerDB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &badgerDB{db: db}, nil
}

func (b *badgerDB) Put(key, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (b *badgerDB) Get(key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return out, translate(err)
}

func (b *badgerDB) Has(key []byte) (bool, error) {
	_, err := b.Get(key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (b *badgerDB) Delete(key []byte) error {
	return translate(b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	}))
}

func (b *badgerDB) NewBatch() Batch {
	return &badgerBatch{db: b.db}
}

func (b *badgerDB) Iterate(prefix []byte, fn func(key, value []byte) error) error {
	return translate(b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(item.KeyCopy(nil), value); err != nil {
				return err
			}
		}
		return nil
	}))
}

func (b *badgerDB) Close() error {
	return b.db.Close()
}

type badgerBatch struct {
	db  *badger.DB
	ops []batchOp
}

func (b *badgerBatch) Put(key, value []byte) error {
	b.ops = append(b.ops, batchOp{key: key, value: value})
	return nil
}

func (b *badgerBatch) Delete(key []byte) error {
	b.ops = append(b.ops, batchOp{key: key, delete: true})
	return nil
}

// Write applies the batch in one transaction so it lands all-or-nothing.
func (b *badgerBatch) Write() error {
	return translate(b.db.Update(func(txn *badger.Txn) error {
		for _, op := range b.ops {
			var err error
			if op.delete {
				err = txn.Delete(op.key)
			} else {
				err = txn.Set(op.key, op.value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	}))
}

func (b *badgerBatch) Reset() {
	b.ops = b.ops[:0]
}

func translate(err error) error {
	if errors.Is(err, badger.ErrDBClosed) {
		return ErrClosed
	}
	return err
}
