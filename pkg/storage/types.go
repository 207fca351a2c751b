// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrClosed   = errors.New("database closed")
)

// Database is the key-value contract shared by the storage backends
type Database interface {
	Put(key, value []byte) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Delete(key []byte) error

	// NewBatch starts an atomic group of writes
	NewBatch() Batch

	// Iterate calls fn for each key with prefix in ascending key order.
	// Returning an error from fn stops the walk.
	Iterate(prefix []byte, fn func(key, value []byte) error) error

	Close() error
}

// Batch buffers writes until Write applies them atomically
type Batch interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Write() error
	Reset()
}

type batchOp struct {
	key    []byte
	value  []byte
	delete bool
}
